package fulfillment

import "errors"

var (
	// ErrPaymentNotFound is returned when no payment matches the notification
	// reference. Forged or stale references end up here.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrAmountMismatch is returned when the notification claims a different
	// amount than the one recorded at checkout. Treated as an integrity
	// signal, nothing is mutated.
	ErrAmountMismatch = errors.New("payment amount mismatch")
)
