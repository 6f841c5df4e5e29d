package catalog

import "errors"

var (
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("product not found")
	ErrInvalidPrice    = errors.New("invalid price")
	ErrInvalidCurrency = errors.New("invalid currency")
)
