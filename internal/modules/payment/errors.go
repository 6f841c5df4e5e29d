package payment

import "errors"

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrForbidden        = errors.New("order belongs to another user")
	ErrOrderNotPayable  = errors.New("order is not awaiting payment")
	ErrAmountMismatch   = errors.New("capture amount does not match order total")
	ErrCurrencyMismatch = errors.New("capture currency does not match order")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrRefundExceeds    = errors.New("refund exceeds remaining captured amount")
	ErrInvalidAmount    = errors.New("amount must be positive")
)
