package domain

import "time"

// Cart is created lazily, one open cart per customer.
type Cart struct {
	ID     int64 `json:"id" gorm:"primaryKey"`
	UserID int64 `json:"user_id" gorm:"uniqueIndex;not null"`

	Items []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Cart) TableName() string { return "carts" }

// CartItem holds no price: prices are read from the product at order time.
type CartItem struct {
	ID        int64 `json:"id" gorm:"primaryKey"`
	CartID    int64 `json:"cart_id" gorm:"uniqueIndex:idx_cart_items_cart_product;not null"`
	ProductID int64 `json:"product_id" gorm:"uniqueIndex:idx_cart_items_cart_product;not null"`
	Quantity  int64 `json:"quantity" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CartItem) TableName() string { return "cart_items" }
