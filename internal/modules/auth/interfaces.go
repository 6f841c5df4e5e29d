package auth

import (
	"context"
	"time"

	"marketplace/internal/domain"
	jwtsvc "marketplace/internal/pkg/jwt"
)

// UserRepositoryInterface narrows the user repository to the methods the
// auth service uses.
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, u *domain.User) error
	AppendRole(ctx context.Context, userID int64, role domain.Role) error
	RecordLogin(ctx context.Context, userID int64, at time.Time) error
	AcceptTerms(ctx context.Context, userID int64, signature string, at time.Time) error
}

// TokenLedgerInterface is the storage for issued token pairs.
type TokenLedgerInterface interface {
	Create(ctx context.Context, t *domain.SessionToken) error
	GetActiveByUserAndHash(ctx context.Context, userID int64, hash string) (*domain.SessionToken, error)
	Rotate(ctx context.Context, id int64, oldHash, newHash, accessJTI string, expiresAt time.Time, ip, userAgent string) (bool, error)
	Revoke(ctx context.Context, id int64) error
	RevokeByUser(ctx context.Context, userID int64) error
	ActiveByUser(ctx context.Context, userID int64) ([]domain.SessionToken, error)
}

type tokenIssuer interface {
	GenerateAccessToken(userID int64, email, role string) (token string, jti string, err error)
	GenerateRefreshToken(userID int64, role string) (string, error)
	ValidateRefreshToken(tokenStr string) (*jwtsvc.Claims, error)
	RefreshTTL() time.Duration
}
