package domain

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
	OrderRefunded  OrderStatus = "refunded"
)

// CanTransitionTo encodes the fulfilment state machine. Cancelled and
// refunded are terminal; refunds are only reachable from paid states.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderPending:
		return next == OrderPaid || next == OrderCancelled
	case OrderPaid:
		return next == OrderShipped || next == OrderRefunded
	case OrderShipped:
		return next == OrderDelivered || next == OrderRefunded
	case OrderDelivered:
		return next == OrderRefunded
	}
	return false
}

type Order struct {
	ID     int64 `json:"id" gorm:"primaryKey"`
	UserID int64 `json:"user_id" gorm:"index;not null"`

	Status     OrderStatus `json:"status" gorm:"size:16;index;not null"`
	TotalCents int64       `json:"total_cents" gorm:"not null"`
	Currency   string      `json:"currency" gorm:"size:3;not null"`

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// OrderItem snapshots name and price at placement time so later product
// edits do not rewrite order history.
type OrderItem struct {
	ID         int64 `json:"id" gorm:"primaryKey"`
	OrderID    int64 `json:"order_id" gorm:"index;not null"`
	ProductID  int64 `json:"product_id" gorm:"index;not null"`
	MerchantID int64 `json:"merchant_id" gorm:"index;not null"`

	Name       string `json:"name" gorm:"size:255;not null"`
	PriceCents int64  `json:"price_cents" gorm:"not null"`
	Quantity   int64  `json:"quantity" gorm:"not null"`
}

func (OrderItem) TableName() string { return "order_items" }
