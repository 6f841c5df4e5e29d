package repository

import (
	"context"

	"marketplace/internal/domain"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// DB exposes the handle so the order service can run the placement
// transaction across products, orders and cart items.
func (r *OrderRepository) DB() *gorm.DB { return r.db }

func (r *OrderRepository) CreateTx(ctx context.Context, tx *gorm.DB, o *domain.Order) error {
	return tx.WithContext(ctx).Create(o).Error
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	return orders, total, err
}

// GetByMerchant returns orders containing at least one of the merchant's
// items.
func (r *OrderRepository) GetByMerchant(ctx context.Context, merchantID int64, limit, offset int) ([]domain.Order, int64, error) {
	sub := r.db.Model(&domain.OrderItem{}).
		Select("DISTINCT order_id").
		Where("merchant_id = ?", merchantID)

	q := r.db.WithContext(ctx).Model(&domain.Order{}).Where("id IN (?)", sub)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id IN (?)", sub).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	return orders, total, err
}

// UpdateStatus is conditional on the current status so concurrent
// transitions cannot skip a state.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID int64, from, to domain.OrderStatus) (bool, error) {
	return r.UpdateStatusTx(ctx, nil, orderID, from, to)
}

// UpdateStatusTx is UpdateStatus inside a caller-owned transaction, for
// transitions that must commit together with other writes.
func (r *OrderRepository) UpdateStatusTx(ctx context.Context, tx *gorm.DB, orderID int64, from, to domain.OrderStatus) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
