package order

import (
	"time"
)

// OrderStatus is the fulfillment workflow stage.
type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusCompleted  OrderStatus = "COMPLETED"
	StatusCanceled   OrderStatus = "CANCELED"
)

// PaymentStatus tracks whether money was collected for the order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

type Order struct {
	ID             int64
	OrderNumber    string
	CustomerEmail  string
	Status         OrderStatus
	PaymentStatus  PaymentStatus
	Subtotal       int64
	ShippingCost   int64
	CouponDiscount int64
	Total          int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Items          []OrderItem
}

// OrderItem is a line-item snapshot taken at purchase time. Immutable once
// written.
type OrderItem struct {
	ID         int64
	OrderID    int64
	VariantID  int64
	Name       string
	SKU        string
	Quantity   int
	UnitPrice  int64
	TotalPrice int64
}
