package order

import "errors"

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOutOfStock        = errors.New("insufficient stock")
	ErrCurrencyMismatch  = errors.New("cart mixes currencies")
	ErrProductGone       = errors.New("product no longer available")
	ErrNotFound          = errors.New("order not found")
	ErrForbidden         = errors.New("order belongs to another user")
	ErrInvalidStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("status transition not allowed")
)
