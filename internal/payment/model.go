package payment

import (
	"time"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Payment is one attempt to collect money for an order. Reference is the
// idempotency key assigned at checkout; it never changes. Status moves
// PENDING -> SUCCESS or PENDING -> FAILED, and SUCCESS is sticky: a late
// failure notification can never overwrite it. FAILED is not terminal, a
// retried payment may still succeed afterwards.
type Payment struct {
	ID          int64
	OrderID     int64
	Reference   string
	ProviderRef *string
	Amount      int64 // minor currency units
	Status      Status
	PaidAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ChannelCode string

const (
	ChannelIndomaret ChannelCode = "INDOMARET"
	ChannelAlfamart  ChannelCode = "ALFAMART"
	ChannelBCA       ChannelCode = "BCA_VIRTUAL_ACCOUNT"
)

type InvoiceItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

type PaymentResponse struct {
	ProviderPaymentID string      `json:"payment_request_id"`
	ReferenceID       string      `json:"reference_id"`
	Amount            int64       `json:"request_amount"`
	Status            string      `json:"status"`
	PaymentCode       string      `json:"payment_code,omitempty"`
	InvoiceURL        string      `json:"invoice_url,omitempty"`
	ChannelCode       ChannelCode `json:"channel_code,omitempty"`
	ExpirationTime    time.Time   `json:"expires_at,omitempty"`
}

type PaymentStatus struct {
	Status string
	PaidAt *time.Time
}
