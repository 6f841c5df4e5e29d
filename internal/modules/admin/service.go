package admin

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/domain"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrCannotActOnSelf = errors.New("cannot act on your own account")
)

type userRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, int64, error)
	SetBanned(ctx context.Context, userID int64, reason string, at time.Time) error
	ClearBan(ctx context.Context, userID int64) error
	Delete(ctx context.Context, userID int64) error
}

type tokenLedger interface {
	RevokeByUser(ctx context.Context, userID int64) error
}

type Service struct {
	users  userRepo
	ledger tokenLedger
}

func NewService(users userRepo, ledger tokenLedger) *Service {
	return &Service{users: users, ledger: ledger}
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, int64, error) {
	return s.users.List(ctx, limit, offset)
}

func (s *Service) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// BanUser marks the account banned and revokes every refresh token, so
// outstanding sessions die as soon as their access tokens expire.
func (s *Service) BanUser(ctx context.Context, adminID, userID int64, reason string) (*domain.User, error) {
	if adminID == userID {
		return nil, ErrCannotActOnSelf
	}

	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.users.SetBanned(ctx, userID, reason, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.ledger.RevokeByUser(ctx, userID); err != nil {
		return nil, err
	}

	return s.GetUser(ctx, userID)
}

func (s *Service) UnbanUser(ctx context.Context, userID int64) (*domain.User, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.users.ClearBan(ctx, userID); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, userID)
}

// DeleteUser revokes tokens first so no live refresh token outlives the
// account row.
func (s *Service) DeleteUser(ctx context.Context, adminID, userID int64) error {
	if adminID == userID {
		return ErrCannotActOnSelf
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	if err := s.ledger.RevokeByUser(ctx, userID); err != nil {
		return err
	}
	return s.users.Delete(ctx, userID)
}
