package cart

import (
	"context"
	"errors"

	"marketplace/internal/domain"

	"gorm.io/gorm"
)

type cartRepo interface {
	GetOrCreateByUser(ctx context.Context, userID int64) (*domain.Cart, error)
	UpsertItem(ctx context.Context, cartID, productID, quantity int64) (*domain.CartItem, error)
	UpdateItemQuantity(ctx context.Context, cartID, itemID, quantity int64) error
	DeleteItem(ctx context.Context, cartID, itemID int64) error
	Clear(ctx context.Context, cartID int64) error
}

type productReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

type Service struct {
	carts    cartRepo
	products productReader
}

func NewService(carts cartRepo, products productReader) *Service {
	return &Service{carts: carts, products: products}
}

// GetCart returns the user's cart joined with live product data. Lines
// whose product disappeared or was unpublished are flagged unavailable
// rather than silently dropped.
func (s *Service) GetCart(ctx context.Context, userID int64) (*CartView, error) {
	cart, err := s.carts.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &CartView{ID: cart.ID, Items: make([]CartItemView, 0, len(cart.Items))}
	for _, item := range cart.Items {
		line := CartItemView{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}

		product, err := s.products.GetByID(ctx, item.ProductID)
		switch {
		case err == nil && product.Published:
			line.Name = product.Name
			line.PriceCents = product.PriceCents
			line.Currency = product.Currency
			line.Available = product.Stock >= item.Quantity
			if line.Available {
				view.TotalCents += product.PriceCents * item.Quantity
			}
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}

		view.Items = append(view.Items, line)
	}

	return view, nil
}

// AddItem sets the quantity for a product, inserting the line if absent.
func (s *Service) AddItem(ctx context.Context, userID int64, req AddItemRequest) (*domain.CartItem, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductUnavailable
		}
		return nil, err
	}
	if !product.Published {
		return nil, ErrProductUnavailable
	}

	cart, err := s.carts.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.carts.UpsertItem(ctx, cart.ID, req.ProductID, req.Quantity)
}

func (s *Service) UpdateItem(ctx context.Context, userID, itemID int64, req UpdateItemRequest) error {
	if req.Quantity < 1 {
		return ErrInvalidQuantity
	}

	cart, err := s.carts.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.carts.UpdateItemQuantity(ctx, cart.ID, itemID, req.Quantity)
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID int64) error {
	cart, err := s.carts.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.carts.DeleteItem(ctx, cart.ID, itemID)
}

func (s *Service) Clear(ctx context.Context, userID int64) error {
	cart, err := s.carts.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.carts.Clear(ctx, cart.ID)
}
