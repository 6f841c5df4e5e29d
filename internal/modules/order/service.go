package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/domain"
	"marketplace/internal/pkg/events"

	"gorm.io/gorm"
)

type orderRepo interface {
	DB() *gorm.DB
	CreateTx(ctx context.Context, tx *gorm.DB, o *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Order, int64, error)
	GetByMerchant(ctx context.Context, merchantID int64, limit, offset int) ([]domain.Order, int64, error)
	UpdateStatus(ctx context.Context, orderID int64, from, to domain.OrderStatus) (bool, error)
	UpdateStatusTx(ctx context.Context, tx *gorm.DB, orderID int64, from, to domain.OrderStatus) (bool, error)
}

type cartRepo interface {
	GetOrCreateByUser(ctx context.Context, userID int64) (*domain.Cart, error)
	ClearTx(ctx context.Context, tx *gorm.DB, cartID int64) error
}

type productRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	DecrementStock(ctx context.Context, tx *gorm.DB, productID, quantity int64) (bool, error)
	RestoreStock(ctx context.Context, tx *gorm.DB, productID, quantity int64) error
}

type notifier interface {
	NotifyUser(userID int64, event string, payload any)
}

type Service struct {
	orders    orderRepo
	carts     cartRepo
	products  productRepo
	publisher *events.Publisher
	notify    notifier
}

func NewService(orders orderRepo, carts cartRepo, products productRepo, publisher *events.Publisher, notify notifier) *Service {
	return &Service{orders: orders, carts: carts, products: products, publisher: publisher, notify: notify}
}

// PlaceOrder converts the caller's cart into a pending order. Stock is
// decremented conditionally inside the transaction so two concurrent
// placements cannot oversell; prices and names are snapshotted onto the
// order lines.
func (s *Service) PlaceOrder(ctx context.Context, userID int64) (*domain.Order, error) {
	cart, err := s.carts.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	order := &domain.Order{UserID: userID, Status: domain.OrderPending}

	err = s.orders.DB().Transaction(func(tx *gorm.DB) error {
		for _, item := range cart.Items {
			product, err := s.products.GetByID(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product %d", ErrProductGone, item.ProductID)
				}
				return err
			}
			if !product.Published {
				return fmt.Errorf("%w: %s", ErrProductGone, product.Name)
			}

			if order.Currency == "" {
				order.Currency = product.Currency
			} else if order.Currency != product.Currency {
				return ErrCurrencyMismatch
			}

			ok, err := s.products.DecrementStock(ctx, tx, product.ID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", ErrOutOfStock, product.Name)
			}

			order.Items = append(order.Items, domain.OrderItem{
				ProductID:  product.ID,
				MerchantID: product.MerchantID,
				Name:       product.Name,
				PriceCents: product.PriceCents,
				Quantity:   item.Quantity,
			})
			order.TotalCents += product.PriceCents * item.Quantity
		}

		if err := s.orders.CreateTx(ctx, tx, order); err != nil {
			return err
		}
		return s.carts.ClearTx(ctx, tx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	s.afterPlacement(ctx, order)
	return order, nil
}

// afterPlacement fans the order out to the broker and to connected
// merchants. Both are best-effort; the order is already committed.
func (s *Service) afterPlacement(ctx context.Context, order *domain.Order) {
	if s.publisher.Enabled() {
		event := events.OrderPlaced{
			OrderID:    order.ID,
			UserID:     order.UserID,
			TotalCents: order.TotalCents,
			Currency:   order.Currency,
			PlacedAt:   time.Now().UTC(),
		}
		for _, item := range order.Items {
			event.Items = append(event.Items, events.OrderLine{
				ProductID:  item.ProductID,
				MerchantID: item.MerchantID,
				Name:       item.Name,
				PriceCents: item.PriceCents,
				Quantity:   item.Quantity,
			})
		}
		_ = s.publisher.PublishOrderPlaced(ctx, event)
	}

	if s.notify != nil {
		seen := make(map[int64]bool)
		for _, item := range order.Items {
			if seen[item.MerchantID] {
				continue
			}
			seen[item.MerchantID] = true
			s.notify.NotifyUser(item.MerchantID, "order.placed", map[string]any{
				"order_id":    order.ID,
				"total_cents": order.TotalCents,
				"currency":    order.Currency,
			})
		}
	}
}

// GetOrder returns the order if the caller owns it, sells an item in it,
// or is an admin.
func (s *Service) GetOrder(ctx context.Context, callerID int64, callerRole domain.Role, orderID int64) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !s.canView(order, callerID, callerRole) {
		return nil, ErrForbidden
	}
	return order, nil
}

func (s *Service) canView(order *domain.Order, callerID int64, callerRole domain.Role) bool {
	if callerRole == domain.RoleAdmin || order.UserID == callerID {
		return true
	}
	if callerRole == domain.RoleMerchant {
		for _, item := range order.Items {
			if item.MerchantID == callerID {
				return true
			}
		}
	}
	return false
}

func (s *Service) ListMyOrders(ctx context.Context, userID int64, limit, offset int) ([]domain.Order, int64, error) {
	return s.orders.GetByUser(ctx, userID, limit, offset)
}

func (s *Service) ListMerchantOrders(ctx context.Context, merchantID int64, limit, offset int) ([]domain.Order, int64, error) {
	return s.orders.GetByMerchant(ctx, merchantID, limit, offset)
}

// Cancel moves a pending order to cancelled and restores stock. Only the
// owner may cancel; paid orders go through the refund flow instead.
func (s *Service) Cancel(ctx context.Context, userID, orderID int64) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}

	// The flip and the restores commit together; a failed restore must
	// not leave a cancelled order with stock still deducted.
	err = s.orders.DB().Transaction(func(tx *gorm.DB) error {
		ok, err := s.orders.UpdateStatusTx(ctx, tx, orderID, domain.OrderPending, domain.OrderCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}

		for _, item := range order.Items {
			if err := s.products.RestoreStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = domain.OrderCancelled
	return order, nil
}

// UpdateFulfilment advances an order through the merchant-driven states
// (paid to shipped, shipped to delivered). The conditional update keeps
// concurrent transitions from skipping a state.
func (s *Service) UpdateFulfilment(ctx context.Context, merchantID int64, orderID int64, next domain.OrderStatus) (*domain.Order, error) {
	if next != domain.OrderShipped && next != domain.OrderDelivered {
		return nil, ErrInvalidTransition
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sells := false
	for _, item := range order.Items {
		if item.MerchantID == merchantID {
			sells = true
			break
		}
	}
	if !sells {
		return nil, ErrForbidden
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	ok, err := s.orders.UpdateStatus(ctx, orderID, order.Status, next)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	order.Status = next

	if s.notify != nil {
		s.notify.NotifyUser(order.UserID, "order.status", map[string]any{
			"order_id": order.ID,
			"status":   order.Status,
		})
	}

	return order, nil
}
