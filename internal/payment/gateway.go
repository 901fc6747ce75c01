package payment

import (
	"context"
	"net/http"
)

type Gateway interface {
	CreateInvoice(
		ctx context.Context,
		reference string,
		customerEmail string,
		amount int64,
		items []InvoiceItem,
		channelCode ChannelCode,
	) (*PaymentResponse, error)
	GetPaymentStatus(ctx context.Context, reference string) (*PaymentStatus, error)
	CancelPayment(ctx context.Context, reference string) error
	VerifySignature(r *http.Request) error
}
