package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"benangmas-be/internal/logger"
	"benangmas-be/internal/payment"
	"benangmas-be/internal/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Svc Service
}

type createOrderRequest struct {
	CustomerEmail  string `json:"customer_email"`
	ShippingCost   int64  `json:"shipping_cost"`
	CouponDiscount int64  `json:"coupon_discount"`
	Channel        string `json:"channel"`
	Items          []struct {
		VariantID int64 `json:"variant_id"`
		Quantity  int   `json:"quantity"`
	} `json:"items"`
}

// CreateOrder is the route handler for POST /api/checkout, called by the
// storefront backend once the customer confirms their cart.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	input := CreateOrderInput{
		CustomerEmail:  req.CustomerEmail,
		ShippingCost:   req.ShippingCost,
		CouponDiscount: req.CouponDiscount,
		Channel:        payment.ChannelCode(req.Channel),
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, ItemInput{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}
	if input.Channel == "" {
		input.Channel = payment.ChannelBCA
	}

	result, err := h.Svc.CreateOrder(ctx, input)
	switch {
	case errors.Is(err, ErrMissingEmail),
		errors.Is(err, ErrEmptyOrder),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrVariantNotFound):
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		logger.FromCtx(ctx).Error("checkout failed", zap.Error(err))
		utils.WriteJSONError(w, "failed to create order", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]any{
		"order_id":     result.Order.ID,
		"order_number": result.Order.OrderNumber,
		"reference":    result.Payment.Reference,
		"total":        result.Order.Total,
		"payment_code": result.PaymentCode,
		"invoice_url":  result.InvoiceURL,
	}, http.StatusCreated)
}

// RetryPayment is the route handler for POST /api/orders/{order_number}/payments,
// used when the previous invoice expired and the customer wants to pay again.
func (h *Handler) RetryPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderNumber := r.PathValue("order_number")

	var req struct {
		Channel string `json:"channel"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	channel := payment.ChannelCode(req.Channel)
	if channel == "" {
		channel = payment.ChannelBCA
	}

	result, err := h.Svc.RetryPayment(ctx, orderNumber, channel)
	switch {
	case errors.Is(err, ErrOrderNotFound):
		utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, ErrAlreadyPaid):
		utils.WriteJSONError(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		logger.FromCtx(ctx).Error("payment retry failed", zap.Error(err))
		utils.WriteJSONError(w, "failed to retry payment", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]any{
		"order_number": result.Order.OrderNumber,
		"reference":    result.Payment.Reference,
		"total":        result.Payment.Amount,
		"payment_code": result.PaymentCode,
		"invoice_url":  result.InvoiceURL,
	}, http.StatusCreated)
}
