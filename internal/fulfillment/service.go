package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"benangmas-be/internal/logger"
	"benangmas-be/internal/mailer"
	"benangmas-be/internal/payment"
	"benangmas-be/internal/utils"

	"go.uber.org/zap"
)

// Result is what a successful (or idempotently replayed) fulfillment returns.
type Result struct {
	OrderID          int64
	OrderNumber      string
	AlreadyProcessed bool
}

type Service interface {
	// FulfillPayment reacts to a success notification from the gateway. Safe
	// to call any number of times for the same reference: inventory is
	// deducted and the confirmation email sent at most once.
	FulfillPayment(ctx context.Context, reference string, providerRef *string, expectedAmount *int64) (*Result, error)

	// FailPayment reacts to a failure/expiry notification. It can never
	// downgrade a payment that already succeeded.
	FailPayment(ctx context.Context, reference string) error
}

type service struct {
	store     Store
	mail      mailer.Mailer
	storeName string
}

func NewService(store Store, mail mailer.Mailer, storeName string) Service {
	return &service{
		store:     store,
		mail:      mail,
		storeName: storeName,
	}
}

func (s *service) FulfillPayment(
	ctx context.Context,
	reference string,
	providerRef *string,
	expectedAmount *int64,
) (*Result, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("method", "FulfillPayment"),
		zap.String("reference", reference),
	)

	detail, err := s.store.PaymentByReference(ctx, reference)
	if errors.Is(err, ErrPaymentNotFound) {
		log.Warn("success notification for unknown payment reference")
		return nil, err
	}
	if err != nil {
		log.Error("failed to load payment", zap.Error(err))
		return nil, err
	}

	if expectedAmount != nil && *expectedAmount != detail.Payment.Amount {
		log.Warn("notification amount does not match recorded payment",
			zap.Int64("notified_amount", *expectedAmount),
			zap.Int64("recorded_amount", detail.Payment.Amount),
		)
		return nil, ErrAmountMismatch
	}

	result := &Result{
		OrderID:     detail.Order.ID,
		OrderNumber: detail.Order.OrderNumber,
	}

	// Cheap short-circuit for obvious replays. The authoritative gate is the
	// conditional update inside MarkPaymentSucceeded, which two concurrent
	// deliveries cannot both win.
	if detail.Payment.Status == payment.StatusSuccess {
		result.AlreadyProcessed = true
		return result, nil
	}

	already, err := s.store.MarkPaymentSucceeded(ctx, MarkPaidParams{
		Reference:   reference,
		ProviderRef: providerRef,
		OrderID:     detail.Order.ID,
		OrderNumber: detail.Order.OrderNumber,
		Items:       detail.Order.Items,
	})
	if err != nil {
		log.Error("fulfillment transaction failed", zap.Error(err))
		return nil, err
	}
	if already {
		log.Info("duplicate success notification ignored")
		result.AlreadyProcessed = true
		return result, nil
	}

	log.Info("payment fulfilled",
		zap.Int64("order_id", detail.Order.ID),
		zap.String("order_number", detail.Order.OrderNumber),
		zap.Int("item_count", len(detail.Order.Items)),
	)

	// Past this point the money side is committed. The email is best-effort
	// and must never make the call look failed.
	s.sendConfirmation(ctx, detail)

	return result, nil
}

func (s *service) FailPayment(ctx context.Context, reference string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "FailPayment"),
		zap.String("reference", reference),
	)

	updated, err := s.store.MarkPaymentFailed(ctx, reference)
	if errors.Is(err, ErrPaymentNotFound) {
		log.Warn("failure notification for unknown payment reference")
		return nil
	}
	if err != nil {
		log.Error("fail-payment transaction failed", zap.Error(err))
		return err
	}

	if !updated {
		log.Info("failure notification ignored, payment already succeeded")
		return nil
	}

	log.Info("payment marked as failed")
	return nil
}

func (s *service) sendConfirmation(ctx context.Context, detail *PaymentDetail) {
	log := logger.FromCtx(ctx).With(
		zap.String("order_number", detail.Order.OrderNumber),
		zap.String("to", detail.Order.CustomerEmail),
	)

	data := mailer.ConfirmationData{
		StoreName:   s.storeName,
		OrderNumber: detail.Order.OrderNumber,
		Subtotal:    utils.FormatIDR(detail.Order.Subtotal),
		Shipping:    utils.FormatIDR(detail.Order.ShippingCost),
		Total:       utils.FormatIDR(detail.Order.Total),
	}
	if detail.Order.CouponDiscount > 0 {
		data.Discount = utils.FormatIDR(detail.Order.CouponDiscount)
	}
	for _, item := range detail.Order.Items {
		data.Lines = append(data.Lines, mailer.ConfirmationLine{
			Name:      item.Name,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			UnitPrice: utils.FormatIDR(item.UnitPrice),
			Total:     utils.FormatIDR(item.TotalPrice),
		})
	}

	body, err := mailer.RenderOrderConfirmation(data)
	if err != nil {
		log.Error("failed to render confirmation email", zap.Error(err))
		return
	}

	subject := fmt.Sprintf("Order %s confirmed", detail.Order.OrderNumber)
	if err := s.mail.Send(ctx, detail.Order.CustomerEmail, subject, body); err != nil {
		log.Error("failed to send confirmation email", zap.Error(err))
		return
	}

	log.Info("confirmation email sent")
}
