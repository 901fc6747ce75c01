package fulfillment

import (
	"context"

	"benangmas-be/internal/order"
	"benangmas-be/internal/payment"
)

// PaymentDetail is everything the engine needs loaded up front: the payment
// row plus its order and the order's line items.
type PaymentDetail struct {
	Payment payment.Payment
	Order   order.Order
}

// MarkPaidParams carries the write set for a successful fulfillment.
type MarkPaidParams struct {
	Reference   string
	ProviderRef *string
	OrderID     int64
	OrderNumber string
	Items       []order.OrderItem
}

// Store is the transactional boundary the engine runs against. Implementations
// must apply MarkPaymentSucceeded as a single all-or-nothing unit, and the
// already-processed check must be part of that same unit so that two
// concurrent calls for one reference can never both win.
type Store interface {
	PaymentByReference(ctx context.Context, reference string) (*PaymentDetail, error)

	// MarkPaymentSucceeded transitions the payment to SUCCESS, the order to
	// PAID/PROCESSING, decrements stock and appends the deduction ledger rows.
	// Returns alreadyProcessed=true (and writes nothing) when the payment was
	// already SUCCESS.
	MarkPaymentSucceeded(ctx context.Context, p MarkPaidParams) (alreadyProcessed bool, err error)

	// MarkPaymentFailed transitions payment and order to FAILED unless the
	// payment already succeeded. Returns updated=false when the payment was
	// SUCCESS (sticky) and ErrPaymentNotFound when the reference is unknown.
	MarkPaymentFailed(ctx context.Context, reference string) (updated bool, err error)
}
