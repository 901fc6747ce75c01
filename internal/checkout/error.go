package checkout

import "errors"

var (
	ErrEmptyOrder      = errors.New("order has no items")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrMissingEmail    = errors.New("customer email is required")
	ErrVariantNotFound = errors.New("variant not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrAlreadyPaid     = errors.New("order is already paid")
)
