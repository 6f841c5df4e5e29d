package repository

import (
	"context"
	"strings"

	"marketplace/internal/domain"

	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ProductFilters narrows the public listing. Search is a case-insensitive
// substring match over the name; there is no ranking.
type ProductFilters struct {
	Category   string
	MerchantID int64
	MinPrice   int64
	MaxPrice   int64
	Search     string
	Limit      int
	Offset     int
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&domain.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ProductRepository) GetByMerchant(ctx context.Context, merchantID int64) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("id DESC").
		Find(&products).Error
	return products, err
}

// ListPublished applies filters over published products only.
func (r *ProductRepository) ListPublished(ctx context.Context, f ProductFilters) ([]domain.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Product{}).Where("published = ?", true)

	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.MerchantID > 0 {
		q = q.Where("merchant_id = ?", f.MerchantID)
	}
	if f.MinPrice > 0 {
		q = q.Where("price_cents >= ?", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		q = q.Where("price_cents <= ?", f.MaxPrice)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []domain.Product
	err := q.Order("id DESC").Limit(f.Limit).Offset(f.Offset).Find(&products).Error
	return products, total, err
}

// DecrementStock is conditional on sufficient stock so two concurrent
// orders cannot oversell.
func (r *ProductRepository) DecrementStock(ctx context.Context, tx *gorm.DB, productID, quantity int64) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ProductRepository) RestoreStock(ctx context.Context, tx *gorm.DB, productID, quantity int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", quantity)).Error
}
