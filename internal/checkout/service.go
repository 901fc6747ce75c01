package checkout

import (
	"context"
	"fmt"

	"benangmas-be/internal/logger"
	"benangmas-be/internal/order"
	"benangmas-be/internal/payment"
	"benangmas-be/internal/utils"

	"go.uber.org/zap"
)

type ItemInput struct {
	VariantID int64
	Quantity  int
}

type CreateOrderInput struct {
	CustomerEmail  string
	Items          []ItemInput
	ShippingCost   int64
	CouponDiscount int64
	Channel        payment.ChannelCode
}

type CheckoutResult struct {
	Order       *order.Order
	Payment     *payment.Payment
	PaymentCode string
	InvoiceURL  string
}

type Service interface {
	// CreateOrder creates the order with its line-item snapshots and a
	// PENDING payment, then requests an invoice from the gateway. The payment
	// reference created here is the key the gateway echoes back in its
	// notifications.
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CheckoutResult, error)

	// RetryPayment issues a fresh payment attempt for an unpaid order. FAILED
	// is not terminal: the expired attempt keeps its row and a new reference
	// goes to the gateway.
	RetryPayment(ctx context.Context, orderNumber string, channel payment.ChannelCode) (*CheckoutResult, error)
}

type service struct {
	repo     Repository
	payments payment.Repository
	gateway  payment.Gateway
}

func NewService(repo Repository, payments payment.Repository, gateway payment.Gateway) Service {
	return &service{
		repo:     repo,
		payments: payments,
		gateway:  gateway,
	}
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CheckoutResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
		zap.Int("item_count", len(input.Items)),
	)

	if input.CustomerEmail == "" {
		return nil, ErrMissingEmail
	}
	if len(input.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	o := &order.Order{
		OrderNumber:    utils.GenerateOrderNumber(),
		CustomerEmail:  input.CustomerEmail,
		Status:         order.StatusPending,
		PaymentStatus:  order.PaymentPending,
		ShippingCost:   input.ShippingCost,
		CouponDiscount: input.CouponDiscount,
	}

	var invoiceItems []payment.InvoiceItem

	for i, item := range input.Items {
		if item.Quantity <= 0 {
			log.Warn("invalid quantity",
				zap.Int("index", i),
				zap.Int64("variant_id", item.VariantID),
			)
			return nil, ErrInvalidQuantity
		}

		variant, err := s.repo.GetVariant(ctx, item.VariantID)
		if err != nil {
			log.Error("failed to load variant for checkout",
				zap.Int64("variant_id", item.VariantID),
				zap.Error(err),
			)
			return nil, err
		}

		lineTotal := variant.Price * int64(item.Quantity)
		o.Subtotal += lineTotal

		o.Items = append(o.Items, order.OrderItem{
			VariantID:  variant.ID,
			Name:       variant.Name,
			SKU:        variant.SKU,
			Quantity:   item.Quantity,
			UnitPrice:  variant.Price,
			TotalPrice: lineTotal,
		})

		invoiceItems = append(invoiceItems, payment.InvoiceItem{
			Name:     variant.Name,
			Quantity: item.Quantity,
			Price:    variant.Price,
		})
	}

	o.Total = o.Subtotal + o.ShippingCost - o.CouponDiscount

	p := &payment.Payment{
		Reference: utils.GeneratePaymentReference(),
		Amount:    o.Total,
		Status:    payment.StatusPending,
	}

	log = log.With(
		zap.String("order_number", o.OrderNumber),
		zap.String("reference", p.Reference),
		zap.Int64("total", o.Total),
	)

	if err := s.repo.CreateOrderTx(ctx, o, p); err != nil {
		log.Error("failed to persist order", zap.Error(err))
		return nil, err
	}

	payResp, err := s.gateway.CreateInvoice(
		ctx, p.Reference, o.CustomerEmail, p.Amount, invoiceItems, input.Channel,
	)
	if err != nil {
		// Order and payment stay PENDING; the invoice can be re-requested.
		return nil, fmt.Errorf("failed to create payment invoice: %w", err)
	}

	log.Info("checkout created")

	return &CheckoutResult{
		Order:       o,
		Payment:     p,
		PaymentCode: payResp.PaymentCode,
		InvoiceURL:  payResp.InvoiceURL,
	}, nil
}

func (s *service) RetryPayment(
	ctx context.Context,
	orderNumber string,
	channel payment.ChannelCode,
) (*CheckoutResult, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RetryPayment"),
		zap.String("order_number", orderNumber),
	)

	o, err := s.repo.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus == order.PaymentPaid {
		return nil, ErrAlreadyPaid
	}

	p := &payment.Payment{
		OrderID:   o.ID,
		Reference: utils.GeneratePaymentReference(),
		Amount:    o.Total,
		Status:    payment.StatusPending,
	}
	if err := s.payments.CreatePayment(ctx, p); err != nil {
		log.Error("failed to create retry payment", zap.Error(err))
		return nil, err
	}

	var invoiceItems []payment.InvoiceItem
	for _, item := range o.Items {
		invoiceItems = append(invoiceItems, payment.InvoiceItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.UnitPrice,
		})
	}

	payResp, err := s.gateway.CreateInvoice(
		ctx, p.Reference, o.CustomerEmail, p.Amount, invoiceItems, channel,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment invoice: %w", err)
	}

	log.Info("payment retry created",
		zap.String("reference", p.Reference),
		zap.Int64("amount", p.Amount),
	)

	return &CheckoutResult{
		Order:       o,
		Payment:     p,
		PaymentCode: payResp.PaymentCode,
		InvoiceURL:  payResp.InvoiceURL,
	}, nil
}
