package repository

import (
	"context"
	"time"

	"marketplace/internal/domain"

	"gorm.io/gorm"
)

// SessionTokenRepository provides DB access for the token ledger.
type SessionTokenRepository struct {
	db *gorm.DB
}

func NewSessionTokenRepository(db *gorm.DB) *SessionTokenRepository {
	return &SessionTokenRepository{db: db}
}

func (r *SessionTokenRepository) Create(ctx context.Context, t *domain.SessionToken) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *SessionTokenRepository) GetByID(ctx context.Context, id int64) (*domain.SessionToken, error) {
	var t domain.SessionToken
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// GetActiveByUserAndHash looks a refresh token up only in combination with
// its owner, never by hash alone.
func (r *SessionTokenRepository) GetActiveByUserAndHash(ctx context.Context, userID int64, hash string) (*domain.SessionToken, error) {
	var t domain.SessionToken
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND refresh_hash = ? AND revoked_at IS NULL", userID, hash).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Rotate overwrites the row's token pair in place. The filter matches the
// old refresh hash, so of two racing refresh calls exactly one wins; the
// loser sees zero rows affected and must treat the token as spent.
func (r *SessionTokenRepository) Rotate(ctx context.Context, id int64, oldHash, newHash, accessJTI string, expiresAt time.Time, ip, userAgent string) (bool, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&domain.SessionToken{}).
		Where("id = ? AND refresh_hash = ? AND revoked_at IS NULL", id, oldHash).
		Updates(map[string]any{
			"refresh_hash": newHash,
			"access_jti":   accessJTI,
			"expires_at":   expiresAt,
			"ip":           ip,
			"user_agent":   userAgent,
			"last_used_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Revoke marks a single row revoked; unknown ids are a no-op.
func (r *SessionTokenRepository) Revoke(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.SessionToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", now).Error
}

func (r *SessionTokenRepository) RevokeByUser(ctx context.Context, userID int64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.SessionToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", now).Error
}

// ActiveByUser returns rows that are both non-revoked and not yet expired.
func (r *SessionTokenRepository) ActiveByUser(ctx context.Context, userID int64) ([]domain.SessionToken, error) {
	var tokens []domain.SessionToken
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, time.Now().UTC()).
		Order("created_at DESC").
		Find(&tokens).Error
	return tokens, err
}

// DeleteExpired purges dead rows; run periodically by cmd/token_cleanup.
func (r *SessionTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at IS NOT NULL", time.Now().UTC()).
		Delete(&domain.SessionToken{})
	return res.RowsAffected, res.Error
}
