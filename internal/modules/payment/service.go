package payment

import (
	"context"
	"errors"
	"strings"

	"marketplace/internal/database"
	"marketplace/internal/domain"

	"gorm.io/gorm"
)

type paymentRepo interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetByCaptureID(ctx context.Context, captureID string) (*domain.Payment, error)
	GetByOrder(ctx context.Context, orderID int64) ([]domain.Payment, error)
	UpdateStatus(ctx context.Context, paymentID int64, status domain.PaymentStatus) error
	CreateRefund(ctx context.Context, ref *domain.Refund) error
	SumRefunds(ctx context.Context, paymentID int64) (int64, error)
	GetRefunds(ctx context.Context, paymentID int64) ([]domain.Refund, error)
}

type orderRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, from, to domain.OrderStatus) (bool, error)
}

type notifier interface {
	NotifyUser(userID int64, event string, payload any)
}

type Service struct {
	payments paymentRepo
	orders   orderRepo
	notify   notifier
}

func NewService(payments paymentRepo, orders orderRepo, notify notifier) *Service {
	return &Service{payments: payments, orders: orders, notify: notify}
}

// Capture records a capture the provider already performed and moves the
// order to paid. Recording the same capture id twice returns the existing
// payment; the unique index backs that up under concurrency.
func (s *Service) Capture(ctx context.Context, userID int64, req CaptureRequest) (*domain.Payment, error) {
	if req.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	order, err := s.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}

	if existing, err := s.payments.GetByCaptureID(ctx, req.CaptureID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if order.Status != domain.OrderPending {
		return nil, ErrOrderNotPayable
	}
	if req.AmountCents != order.TotalCents {
		return nil, ErrAmountMismatch
	}
	if !strings.EqualFold(req.Currency, order.Currency) {
		return nil, ErrCurrencyMismatch
	}

	p := &domain.Payment{
		OrderID:     order.ID,
		Provider:    req.Provider,
		CaptureID:   req.CaptureID,
		AmountCents: req.AmountCents,
		Currency:    order.Currency,
		Status:      domain.PaymentCaptured,
		RawPayload:  req.RawPayload,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		// Lost the insert race on the capture id; the winner's row is
		// the payment.
		if database.IsUniqueViolation(err) {
			if existing, lookupErr := s.payments.GetByCaptureID(ctx, req.CaptureID); lookupErr == nil {
				return existing, nil
			}
		}
		return nil, err
	}

	if _, err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderPending, domain.OrderPaid); err != nil {
		return nil, err
	}

	if s.notify != nil {
		s.notify.NotifyUser(order.UserID, "payment.captured", map[string]any{
			"order_id":     order.ID,
			"amount_cents": p.AmountCents,
			"currency":     p.Currency,
		})
	}

	return p, nil
}

// Refund records a provider refund against a payment. Cumulative refunds
// can never exceed the captured amount; a full refund flips the payment
// and its order to refunded.
func (s *Service) Refund(ctx context.Context, paymentID int64, req RefundRequest) (*PaymentView, error) {
	if req.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	refunded, err := s.payments.SumRefunds(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if refunded+req.AmountCents > p.AmountCents {
		return nil, ErrRefundExceeds
	}

	ref := &domain.Refund{
		PaymentID:   paymentID,
		RefundID:    req.RefundID,
		AmountCents: req.AmountCents,
		Reason:      req.Reason,
	}
	if err := s.payments.CreateRefund(ctx, ref); err != nil {
		// Duplicate refund id means this refund was already recorded.
		if database.IsUniqueViolation(err) {
			if refunds, lookupErr := s.payments.GetRefunds(ctx, paymentID); lookupErr == nil {
				for _, existing := range refunds {
					if existing.RefundID == req.RefundID {
						return s.view(ctx, p)
					}
				}
			}
		}
		return nil, err
	}

	refunded += req.AmountCents
	status := domain.PaymentPartiallyRefunded
	if refunded == p.AmountCents {
		status = domain.PaymentRefunded
	}
	if err := s.payments.UpdateStatus(ctx, paymentID, status); err != nil {
		return nil, err
	}
	p.Status = status

	if status == domain.PaymentRefunded {
		order, err := s.orders.GetByID(ctx, p.OrderID)
		if err == nil && order.Status.CanTransitionTo(domain.OrderRefunded) {
			_, _ = s.orders.UpdateStatus(ctx, order.ID, order.Status, domain.OrderRefunded)
		}
	}

	return s.view(ctx, p)
}

// GetOrderPayments returns the payment history for an order the caller
// owns (admins see any order's payments).
func (s *Service) GetOrderPayments(ctx context.Context, callerID int64, callerRole domain.Role, orderID int64) ([]PaymentView, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != callerID && callerRole != domain.RoleAdmin {
		return nil, ErrForbidden
	}

	payments, err := s.payments.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	views := make([]PaymentView, 0, len(payments))
	for i := range payments {
		v, err := s.view(ctx, &payments[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

func (s *Service) view(ctx context.Context, p *domain.Payment) (*PaymentView, error) {
	refunds, err := s.payments.GetRefunds(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	var refunded int64
	for _, r := range refunds {
		refunded += r.AmountCents
	}
	return &PaymentView{Payment: *p, Refunds: refunds, RefundedCents: refunded}, nil
}
