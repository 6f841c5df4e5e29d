package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"marketplace/internal/domain"
	jwtsvc "marketplace/internal/pkg/jwt"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) AppendRole(ctx context.Context, userID int64, role domain.Role) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func (m *mockUserRepo) RecordLogin(ctx context.Context, userID int64, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

func (m *mockUserRepo) AcceptTerms(ctx context.Context, userID int64, signature string, at time.Time) error {
	args := m.Called(ctx, userID, signature, at)
	return args.Error(0)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Create(ctx context.Context, t *domain.SessionToken) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockLedger) GetActiveByUserAndHash(ctx context.Context, userID int64, hash string) (*domain.SessionToken, error) {
	args := m.Called(ctx, userID, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionToken), args.Error(1)
}

func (m *mockLedger) Rotate(ctx context.Context, id int64, oldHash, newHash, accessJTI string, expiresAt time.Time, ip, userAgent string) (bool, error) {
	args := m.Called(ctx, id, oldHash, newHash, accessJTI, expiresAt, ip, userAgent)
	return args.Bool(0), args.Error(1)
}

func (m *mockLedger) Revoke(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockLedger) RevokeByUser(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockLedger) ActiveByUser(ctx context.Context, userID int64) ([]domain.SessionToken, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SessionToken), args.Error(1)
}

func newTestJWT() *jwtsvc.Service {
	return jwtsvc.New("test-access", "test-refresh", 15*time.Minute, time.Hour)
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return string(hash)
}

func TestRegister_Success(t *testing.T) {
	users := new(mockUserRepo)
	ledger := new(mockLedger)
	svc := NewService(users, ledger, newTestJWT(), "pepper")

	users.On("ExistsByEmail", mock.Anything, "new@example.com").Return(false, nil)
	users.On("ExistsByUsername", mock.Anything, "newuser").Return(false, nil)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "new@example.com" &&
			u.Roles.Has(domain.RoleCustomer) &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")) == nil
	})).Return(nil)

	user, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "New@Example.com",
		Username: "newuser",
		Password: "secret123",
	})

	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)
	users.AssertExpectations(t)
}

func TestRegister_EmailConflict(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewService(users, new(mockLedger), newTestJWT(), "pepper")

	users.On("ExistsByEmail", mock.Anything, "taken@example.com").Return(true, nil)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "taken@example.com",
		Username: "whoever",
		Password: "secret123",
	})

	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestRegister_UsernameConflict(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewService(users, new(mockLedger), newTestJWT(), "pepper")

	users.On("ExistsByEmail", mock.Anything, "fresh@example.com").Return(false, nil)
	users.On("ExistsByUsername", mock.Anything, "taken").Return(true, nil)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "fresh@example.com",
		Username: "taken",
		Password: "secret123",
	})

	assert.ErrorIs(t, err, ErrUsernameAlreadyExists)
}

func TestValidateUser_UnknownEmail(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewService(users, new(mockLedger), newTestJWT(), "pepper")

	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)

	user, err := svc.ValidateUser(context.Background(), "ghost@example.com", "whatever")

	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestValidateUser_WrongPassword(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewService(users, new(mockLedger), newTestJWT(), "pepper")

	stored := &domain.User{ID: 1, Email: "user@example.com", PasswordHash: hashPassword(t, "right")}
	users.On("GetByEmail", mock.Anything, "user@example.com").Return(stored, nil)

	user, err := svc.ValidateUser(context.Background(), "user@example.com", "wrong")

	// Unknown email and wrong password are indistinguishable to callers.
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestLogin_Success(t *testing.T) {
	users := new(mockUserRepo)
	ledger := new(mockLedger)
	j := newTestJWT()
	svc := NewService(users, ledger, j, "pepper")

	stored := &domain.User{
		ID:           5,
		Email:        "shopper@example.com",
		PasswordHash: hashPassword(t, "secret123"),
		Roles:        domain.RoleList{domain.RoleMerchant, domain.RoleCustomer},
	}
	users.On("GetByEmail", mock.Anything, "shopper@example.com").Return(stored, nil)
	users.On("RecordLogin", mock.Anything, int64(5), mock.Anything).Return(nil)
	ledger.On("Create", mock.Anything, mock.MatchedBy(func(row *domain.SessionToken) bool {
		return row.UserID == 5 && row.Role == domain.RoleCustomer && row.RefreshHash != ""
	})).Return(nil)

	result, err := svc.Login(context.Background(), LoginRequest{
		Email:    "shopper@example.com",
		Password: "secret123",
	}, DeviceInfo{IP: "10.0.0.1", UserAgent: "test"})

	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)
	assert.Empty(t, result.User.PasswordHash)

	// Customer wins as the default active role when held.
	claims, err := j.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "customer", claims.Role)
	ledger.AssertExpectations(t)
}

func TestLogin_Banned(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewService(users, new(mockLedger), newTestJWT(), "pepper")

	stored := &domain.User{
		ID:           9,
		Email:        "banned@example.com",
		PasswordHash: hashPassword(t, "secret123"),
		Roles:        domain.RoleList{domain.RoleCustomer},
		IsBanned:     true,
	}
	users.On("GetByEmail", mock.Anything, "banned@example.com").Return(stored, nil)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "banned@example.com",
		Password: "secret123",
	}, DeviceInfo{})

	assert.ErrorIs(t, err, ErrAccountBanned)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewService(users, new(mockLedger), newTestJWT(), "pepper")

	users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	}, DeviceInfo{})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh_Success(t *testing.T) {
	users := new(mockUserRepo)
	ledger := new(mockLedger)
	j := newTestJWT()
	svc := NewService(users, ledger, j, "pepper")

	raw, err := j.GenerateRefreshToken(5, "customer")
	require.NoError(t, err)

	row := &domain.SessionToken{
		ID:        77,
		UserID:    5,
		Role:      domain.RoleCustomer,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	user := &domain.User{ID: 5, Email: "shopper@example.com", Roles: domain.RoleList{domain.RoleCustomer}}

	ledger.On("GetActiveByUserAndHash", mock.Anything, int64(5), mock.Anything).Return(row, nil)
	users.On("GetByID", mock.Anything, int64(5)).Return(user, nil)
	ledger.On("Rotate", mock.Anything, int64(77), mock.Anything, mock.Anything, mock.Anything, mock.Anything, "10.0.0.1", "test").
		Return(true, nil)

	pair, err := svc.Refresh(context.Background(), 5, raw, DeviceInfo{IP: "10.0.0.1", UserAgent: "test"})

	require.NoError(t, err)
	assert.Equal(t, int64(77), pair.TokenID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, raw, pair.RefreshToken)
}

func TestRefresh_RotationRaceLoses(t *testing.T) {
	users := new(mockUserRepo)
	ledger := new(mockLedger)
	j := newTestJWT()
	svc := NewService(users, ledger, j, "pepper")

	raw, err := j.GenerateRefreshToken(5, "customer")
	require.NoError(t, err)

	row := &domain.SessionToken{ID: 77, UserID: 5, Role: domain.RoleCustomer, ExpiresAt: time.Now().Add(time.Hour)}
	user := &domain.User{ID: 5, Email: "shopper@example.com", Roles: domain.RoleList{domain.RoleCustomer}}

	ledger.On("GetActiveByUserAndHash", mock.Anything, int64(5), mock.Anything).Return(row, nil)
	users.On("GetByID", mock.Anything, int64(5)).Return(user, nil)
	ledger.On("Rotate", mock.Anything, int64(77), mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(false, nil)

	_, err = svc.Refresh(context.Background(), 5, raw, DeviceInfo{})

	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_ExpiredRow(t *testing.T) {
	users := new(mockUserRepo)
	ledger := new(mockLedger)
	j := newTestJWT()
	svc := NewService(users, ledger, j, "pepper")

	raw, err := j.GenerateRefreshToken(5, "customer")
	require.NoError(t, err)

	row := &domain.SessionToken{ID: 1, UserID: 5, Role: domain.RoleCustomer, ExpiresAt: time.Now().Add(-time.Minute)}
	ledger.On("GetActiveByUserAndHash", mock.Anything, int64(5), mock.Anything).Return(row, nil)

	_, err = svc.Refresh(context.Background(), 5, raw, DeviceInfo{})

	assert.ErrorIs(t, err, ErrExpiredRefreshToken)
}

func TestRefresh_WrongUser(t *testing.T) {
	j := newTestJWT()
	svc := NewService(new(mockUserRepo), new(mockLedger), j, "pepper")

	raw, err := j.GenerateRefreshToken(5, "customer")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), 6, raw, DeviceInfo{})

	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_RoleDropped(t *testing.T) {
	users := new(mockUserRepo)
	ledger := new(mockLedger)
	j := newTestJWT()
	svc := NewService(users, ledger, j, "pepper")

	raw, err := j.GenerateRefreshToken(5, "merchant")
	require.NoError(t, err)

	row := &domain.SessionToken{ID: 2, UserID: 5, Role: domain.RoleMerchant, ExpiresAt: time.Now().Add(time.Hour)}
	user := &domain.User{ID: 5, Email: "ex@example.com", Roles: domain.RoleList{domain.RoleCustomer}}

	ledger.On("GetActiveByUserAndHash", mock.Anything, int64(5), mock.Anything).Return(row, nil)
	users.On("GetByID", mock.Anything, int64(5)).Return(user, nil)

	_, err = svc.Refresh(context.Background(), 5, raw, DeviceInfo{})

	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestLogout_UnknownTokenIsNoop(t *testing.T) {
	ledger := new(mockLedger)
	svc := NewService(new(mockUserRepo), ledger, newTestJWT(), "pepper")

	ledger.On("GetActiveByUserAndHash", mock.Anything, int64(5), mock.Anything).Return(nil, gorm.ErrRecordNotFound)

	err := svc.Logout(context.Background(), 5, "some-refresh-token")

	assert.NoError(t, err)
}

func TestSwitchRole_NotHeld(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewService(users, new(mockLedger), newTestJWT(), "pepper")

	user := &domain.User{ID: 3, Email: "c@example.com", Roles: domain.RoleList{domain.RoleCustomer}}
	users.On("GetByID", mock.Anything, int64(3)).Return(user, nil)

	_, err := svc.SwitchRole(context.Background(), 3, domain.RoleMerchant, DeviceInfo{})

	assert.ErrorIs(t, err, ErrRoleNotHeld)
}

func TestSwitchRole_Success(t *testing.T) {
	users := new(mockUserRepo)
	ledger := new(mockLedger)
	j := newTestJWT()
	svc := NewService(users, ledger, j, "pepper")

	user := &domain.User{
		ID:    3,
		Email: "seller@example.com",
		Roles: domain.RoleList{domain.RoleCustomer, domain.RoleMerchant},
	}
	users.On("GetByID", mock.Anything, int64(3)).Return(user, nil)
	ledger.On("Create", mock.Anything, mock.MatchedBy(func(row *domain.SessionToken) bool {
		return row.Role == domain.RoleMerchant
	})).Return(nil)

	result, err := svc.SwitchRole(context.Background(), 3, domain.RoleMerchant, DeviceInfo{})

	require.NoError(t, err)
	claims, err := j.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "merchant", claims.Role)
}

func TestSwitchRole_InvalidRole(t *testing.T) {
	svc := NewService(new(mockUserRepo), new(mockLedger), newTestJWT(), "pepper")

	_, err := svc.SwitchRole(context.Background(), 3, domain.Role("superuser"), DeviceInfo{})

	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestActiveSessions_OneTokenPerRole(t *testing.T) {
	users := new(mockUserRepo)
	j := newTestJWT()
	svc := NewService(users, new(mockLedger), j, "pepper")

	user := &domain.User{
		ID:    3,
		Email: "seller@example.com",
		Roles: domain.RoleList{domain.RoleCustomer, domain.RoleMerchant},
	}
	users.On("GetByID", mock.Anything, int64(3)).Return(user, nil)

	sessions, err := svc.ActiveSessions(context.Background(), 3)

	require.NoError(t, err)
	require.Len(t, sessions, 2)
	for _, session := range sessions {
		claims, err := j.ValidateAccessToken(session.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, session.Role, claims.Role)
	}
}

func TestBecomeMerchant(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewService(users, new(mockLedger), newTestJWT(), "pepper")

	after := &domain.User{ID: 3, Email: "c@example.com", Roles: domain.RoleList{domain.RoleCustomer, domain.RoleMerchant}}
	users.On("AppendRole", mock.Anything, int64(3), domain.RoleMerchant).Return(nil)
	users.On("GetByID", mock.Anything, int64(3)).Return(after, nil)

	user, err := svc.BecomeMerchant(context.Background(), 3)

	require.NoError(t, err)
	assert.True(t, user.Roles.Has(domain.RoleMerchant))
}
