package catalog

import (
	"context"
	"strings"

	"marketplace/internal/domain"
	"marketplace/internal/repository"
)

type productRepo interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
	GetByMerchant(ctx context.Context, merchantID int64) ([]domain.Product, error)
	ListPublished(ctx context.Context, f repository.ProductFilters) ([]domain.Product, int64, error)
}

type Service struct {
	products productRepo
}

func NewService(products productRepo) *Service {
	return &Service{products: products}
}

func (s *Service) CreateProduct(ctx context.Context, merchantID int64, req CreateProductRequest) (*domain.Product, error) {
	if req.PriceCents <= 0 {
		return nil, ErrInvalidPrice
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return nil, ErrInvalidCurrency
	}

	product := &domain.Product{
		MerchantID:  merchantID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Currency:    currency,
		ImageURLs:   domain.StringList(req.ImageURLs),
		Stock:       req.Stock,
		Published:   req.Published,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct enforces ownership: only the selling merchant may edit.
func (s *Service) UpdateProduct(ctx context.Context, merchantID, productID int64, req UpdateProductRequest) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.MerchantID != merchantID {
		return nil, ErrForbidden
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.PriceCents != nil {
		if *req.PriceCents <= 0 {
			return nil, ErrInvalidPrice
		}
		product.PriceCents = *req.PriceCents
	}
	if req.ImageURLs != nil {
		product.ImageURLs = domain.StringList(*req.ImageURLs)
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Published != nil {
		product.Published = *req.Published
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, merchantID, productID int64) error {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product.MerchantID != merchantID {
		return ErrForbidden
	}
	return s.products.Delete(ctx, productID)
}

func (s *Service) GetProductsByMerchant(ctx context.Context, merchantID int64) ([]domain.Product, error) {
	return s.products.GetByMerchant(ctx, merchantID)
}

func (s *Service) ListPublished(ctx context.Context, f repository.ProductFilters) ([]domain.Product, int64, error) {
	return s.products.ListPublished(ctx, f)
}

// GetPublishedProduct hides unpublished products from the public catalog.
func (s *Service) GetPublishedProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Published {
		return nil, ErrNotFound
	}
	return product, nil
}
