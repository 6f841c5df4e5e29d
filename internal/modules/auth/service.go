package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"marketplace/internal/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service contains all business logic for authentication, the token
// ledger, and role switching.
type Service struct {
	users  UserRepositoryInterface
	ledger TokenLedgerInterface
	jwt    tokenIssuer
	pepper string
}

type DeviceInfo struct {
	IP        string
	UserAgent string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenID      int64
}

type LoginResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
	TokenID      int64
}

func NewService(users UserRepositoryInterface, ledger TokenLedgerInterface, jwt tokenIssuer, refreshTokenPepper string) *Service {
	return &Service{
		users:  users,
		ledger: ledger,
		jwt:    jwt,
		pepper: refreshTokenPepper,
	}
}

// Register creates a customer account. Conflicts on email and username
// are reported separately; the password is stored as a bcrypt hash only.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	exists, err = s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Roles:        domain.RoleList{domain.RoleCustomer},
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// ValidateUser fails closed: an unknown email and a wrong password both
// return (nil, nil) so callers cannot distinguish the two.
func (s *Service) ValidateUser(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil
	}

	return user, nil
}

// Login verifies credentials, records the login time, and issues a token
// pair scoped to the user's default role (customer when held, otherwise
// the first role in the set).
func (s *Service) Login(ctx context.Context, req LoginRequest, device DeviceInfo) (*LoginResult, error) {
	user, err := s.ValidateUser(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if user.IsBanned {
		return nil, ErrAccountBanned
	}
	if len(user.Roles) == 0 {
		return nil, ErrInvalidCredentials
	}

	role := user.Roles[0]
	if user.Roles.Has(domain.RoleCustomer) {
		role = domain.RoleCustomer
	}

	pair, err := s.issueTokens(ctx, user, role, device)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	user.PasswordHash = ""
	return &LoginResult{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenID:      pair.TokenID,
	}, nil
}

// Refresh rotates the pair stored in the ledger row matching
// (userID, refresh token). The row keeps its identity; the conditional
// update in Rotate makes the old token single-use even under races.
func (s *Service) Refresh(ctx context.Context, userID int64, refreshRaw string, device DeviceInfo) (*TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshRaw)
	if err != nil || claims.UserID != userID {
		return nil, ErrInvalidRefreshToken
	}

	hash := hashToken(refreshRaw, s.pepper)
	row, err := s.ledger.GetActiveByUserAndHash(ctx, userID, hash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if row.IsExpired(time.Now()) {
		return nil, ErrExpiredRefreshToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if user.IsBanned {
		return nil, ErrAccountBanned
	}
	if !user.Roles.Has(row.Role) {
		return nil, ErrInvalidRefreshToken
	}

	accessToken, jti, err := s.jwt.GenerateAccessToken(user.ID, user.Email, string(row.Role))
	if err != nil {
		return nil, err
	}
	newRaw, err := s.jwt.GenerateRefreshToken(user.ID, string(row.Role))
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().UTC().Add(s.jwt.RefreshTTL())
	rotated, err := s.ledger.Rotate(ctx, row.ID, hash, hashToken(newRaw, s.pepper), jti, expiresAt, device.IP, device.UserAgent)
	if err != nil {
		return nil, err
	}
	if !rotated {
		// Lost the race: another refresh already spent this token.
		return nil, ErrInvalidRefreshToken
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: newRaw, TokenID: row.ID}, nil
}

// Logout revokes the ledger row holding the presented refresh token.
// Unknown tokens are a no-op, not an error.
func (s *Service) Logout(ctx context.Context, userID int64, refreshRaw string) error {
	hash := hashToken(refreshRaw, s.pepper)
	row, err := s.ledger.GetActiveByUserAndHash(ctx, userID, hash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return s.ledger.Revoke(ctx, row.ID)
}

// LogoutAll implements "log out everywhere".
func (s *Service) LogoutAll(ctx context.Context, userID int64) error {
	return s.ledger.RevokeByUser(ctx, userID)
}

// SwitchRole mints a fresh pair scoped to a role the user already holds,
// without requiring the password again. Switching never grants roles.
func (s *Service) SwitchRole(ctx context.Context, userID int64, role domain.Role, device DeviceInfo) (*LoginResult, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsBanned {
		return nil, ErrAccountBanned
	}
	if !user.Roles.Has(role) {
		return nil, ErrRoleNotHeld
	}

	pair, err := s.issueTokens(ctx, user, role, device)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &LoginResult{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenID:      pair.TokenID,
	}, nil
}

// ActiveSessions returns one freshly minted access token per held role,
// for multi-tab role presence. These tokens get no ledger rows; they are
// access-only and expire on their own.
func (s *Service) ActiveSessions(ctx context.Context, userID int64) ([]RoleSession, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsBanned {
		return nil, ErrAccountBanned
	}

	sessions := make([]RoleSession, 0, len(user.Roles))
	for _, role := range user.Roles {
		token, _, err := s.jwt.GenerateAccessToken(user.ID, user.Email, string(role))
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, RoleSession{Role: string(role), AccessToken: token})
	}
	return sessions, nil
}

// ActiveDevices lists the user's live ledger rows with device metadata.
func (s *Service) ActiveDevices(ctx context.Context, userID int64) ([]DeviceSession, error) {
	rows, err := s.ledger.ActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	devices := make([]DeviceSession, 0, len(rows))
	for _, row := range rows {
		devices = append(devices, DeviceSession{
			TokenID:    row.ID,
			Role:       string(row.Role),
			IP:         row.IP,
			UserAgent:  row.UserAgent,
			CreatedAt:  row.CreatedAt,
			LastUsedAt: row.LastUsedAt,
			ExpiresAt:  row.ExpiresAt,
		})
	}
	return devices, nil
}

// BecomeMerchant appends the merchant role. Idempotent.
func (s *Service) BecomeMerchant(ctx context.Context, userID int64) (*domain.User, error) {
	if err := s.users.AppendRole(ctx, userID, domain.RoleMerchant); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *Service) GetCurrentUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Address != "" {
		user.Address = req.Address
	}
	if req.AvatarURL != "" {
		user.AvatarURL = req.AvatarURL
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *Service) AcceptTerms(ctx context.Context, userID int64, signature string) error {
	return s.users.AcceptTerms(ctx, userID, signature, time.Now().UTC())
}

// issueTokens mints an access/refresh pair and records the ledger row.
func (s *Service) issueTokens(ctx context.Context, user *domain.User, role domain.Role, device DeviceInfo) (*TokenPair, error) {
	accessToken, jti, err := s.jwt.GenerateAccessToken(user.ID, user.Email, string(role))
	if err != nil {
		return nil, err
	}
	refreshRaw, err := s.jwt.GenerateRefreshToken(user.ID, string(role))
	if err != nil {
		return nil, err
	}

	row := &domain.SessionToken{
		UserID:      user.ID,
		Role:        role,
		RefreshHash: hashToken(refreshRaw, s.pepper),
		AccessJTI:   jti,
		IP:          device.IP,
		UserAgent:   device.UserAgent,
		ExpiresAt:   time.Now().UTC().Add(s.jwt.RefreshTTL()),
	}
	if err := s.ledger.Create(ctx, row); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshRaw, TokenID: row.ID}, nil
}

func hashToken(raw, pepper string) string {
	sum := sha256.Sum256([]byte(raw + pepper))
	return hex.EncodeToString(sum[:])
}
