package ops

import (
	"errors"
	"net/http"

	"benangmas-be/internal/fulfillment"
	"benangmas-be/internal/logger"
	"benangmas-be/internal/metrics"
	"benangmas-be/internal/payment"
	"benangmas-be/internal/utils"

	"go.uber.org/zap"
)

// Handler serves the admin-only operational endpoints: manual re-fulfillment,
// payment inspection with a live gateway requery, and webhook counters.
type Handler struct {
	Fulfillment fulfillment.Service
	Payments    payment.Repository
	Gateway     payment.Gateway
	Metrics     *metrics.WebhookMetrics
}

// Refulfill replays fulfillment for a payment reference. Safe at any time
// because the engine is idempotent; used when a webhook was lost or a
// confirmation email needs investigating.
func (h *Handler) Refulfill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reference := r.PathValue("reference")

	result, err := h.Fulfillment.FulfillPayment(ctx, reference, nil, nil)
	switch {
	case errors.Is(err, fulfillment.ErrPaymentNotFound):
		utils.WriteJSONError(w, "payment not found", http.StatusNotFound)
		return
	case err != nil:
		logger.FromCtx(ctx).Error("manual refulfill failed",
			zap.String("reference", reference),
			zap.Error(err),
		)
		utils.WriteJSONError(w, "fulfillment failed", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]any{
		"order_id":          result.OrderID,
		"order_number":      result.OrderNumber,
		"already_processed": result.AlreadyProcessed,
	}, http.StatusOK)
}

// GetPayment returns the stored payment row together with the gateway's
// current view of it.
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reference := r.PathValue("reference")

	p, err := h.Payments.GetByReference(ctx, reference)
	if errors.Is(err, payment.ErrNotFound) {
		utils.WriteJSONError(w, "payment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.WriteJSONError(w, "failed to load payment", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"reference":    p.Reference,
		"order_id":     p.OrderID,
		"amount":       p.Amount,
		"status":       p.Status,
		"provider_ref": p.ProviderRef,
		"paid_at":      p.PaidAt,
	}

	if gw, err := h.Gateway.GetPaymentStatus(ctx, reference); err != nil {
		logger.FromCtx(ctx).Warn("gateway requery failed",
			zap.String("reference", reference),
			zap.Error(err),
		)
		resp["gateway_status"] = "unavailable"
	} else {
		resp["gateway_status"] = gw.Status
		resp["gateway_paid_at"] = gw.PaidAt
	}

	utils.WriteJSON(w, resp, http.StatusOK)
}

// Cancel expires the gateway invoice for a pending payment. The status change
// itself arrives through the webhook: the gateway delivers EXPIRED, which
// moves the payment to FAILED via the normal path.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reference := r.PathValue("reference")

	p, err := h.Payments.GetByReference(ctx, reference)
	if errors.Is(err, payment.ErrNotFound) {
		utils.WriteJSONError(w, "payment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.WriteJSONError(w, "failed to load payment", http.StatusInternalServerError)
		return
	}
	if p.Status == payment.StatusSuccess {
		utils.WriteJSONError(w, "payment already succeeded", http.StatusConflict)
		return
	}

	if err := h.Gateway.CancelPayment(ctx, reference); err != nil {
		logger.FromCtx(ctx).Error("gateway cancel failed",
			zap.String("reference", reference),
			zap.Error(err),
		)
		utils.WriteJSONError(w, "failed to cancel payment", http.StatusBadGateway)
		return
	}

	utils.WriteJSON(w, map[string]any{
		"reference": reference,
		"status":    "cancel_requested",
	}, http.StatusAccepted)
}

// WebhookMetrics exposes the notification counters.
func (h *Handler) WebhookMetrics(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, h.Metrics.Snapshot(), http.StatusOK)
}
