package repository

import (
	"context"

	"marketplace/internal/domain"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByCaptureID(ctx context.Context, captureID string) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.WithContext(ctx).Where("capture_id = ?", captureID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByOrder(ctx context.Context, orderID int64) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id").
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, paymentID int64, status domain.PaymentStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("id = ?", paymentID).
		Update("status", status).Error
}

func (r *PaymentRepository) CreateRefund(ctx context.Context, ref *domain.Refund) error {
	return r.db.WithContext(ctx).Create(ref).Error
}

// SumRefunds returns the cumulative refunded amount for a payment.
func (r *PaymentRepository) SumRefunds(ctx context.Context, paymentID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.Refund{}).
		Where("payment_id = ?", paymentID).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error
	return total, err
}

func (r *PaymentRepository) GetRefunds(ctx context.Context, paymentID int64) ([]domain.Refund, error) {
	var refunds []domain.Refund
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("id").
		Find(&refunds).Error
	return refunds, err
}
