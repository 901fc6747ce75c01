package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"benangmas-be/internal/fulfillment"
	"benangmas-be/internal/logger"
	"benangmas-be/internal/metrics"
	"benangmas-be/internal/payment"

	"go.uber.org/zap"
)

const provider = "XENDIT"

// WebhookPayload represents the JSON Xendit sends on payment status changes.
type WebhookPayload struct {
	EventID          string `json:"event_id"`
	Event            string `json:"event"`
	ReferenceID      string `json:"reference_id"`
	PaymentRequestID string `json:"payment_request_id"`
	Status           string `json:"status"`
	Amount           int64  `json:"request_amount"`
	PaidAt           string `json:"paid_at,omitempty"`
}

type Handler struct {
	Fulfillment fulfillment.Service
	Payments    payment.Repository
	Gateway     payment.Gateway
	Metrics     *metrics.WebhookMetrics
}

func NewWebhookHandler(
	fulfillSvc fulfillment.Service,
	payRepo payment.Repository,
	gateway payment.Gateway,
	m *metrics.WebhookMetrics,
) *Handler {
	return &Handler{
		Fulfillment: fulfillSvc,
		Payments:    payRepo,
		Gateway:     gateway,
		Metrics:     m,
	}
}

// WebhookHandler is the route handler for POST /webhook/payment.
func (h *Handler) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx)

	h.Metrics.Received.Inc()

	if err := h.Gateway.VerifySignature(r); err != nil {
		h.Metrics.Rejected.Inc()
		log.Warn("webhook signature verification failed", zap.Error(err))
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.Metrics.Rejected.Inc()
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	if payload.ReferenceID == "" {
		h.Metrics.Rejected.Inc()
		http.Error(w, "missing reference_id", http.StatusBadRequest)
		return
	}

	eventID := payload.EventID
	if eventID == "" {
		// Some gateway event versions omit event_id; fall back to a key that
		// still dedups redeliveries of the same transition.
		eventID = fmt.Sprintf("%s:%s", payload.ReferenceID, payload.Status)
	}

	log = log.With(
		zap.String("event_id", eventID),
		zap.String("reference", payload.ReferenceID),
		zap.String("status", payload.Status),
	)

	webhookID, isDuplicate, err := h.Payments.SavePaymentWebhook(
		ctx, provider, eventID, payload.Event, payload.ReferenceID, body, true,
	)
	if err != nil {
		log.Error("failed to record webhook event", zap.Error(err))
		http.Error(w, "failed to record webhook", http.StatusInternalServerError)
		return
	}
	if isDuplicate {
		h.Metrics.Duplicates.Inc()
		log.Info("duplicate webhook event ignored")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
		return
	}

	switch payload.Status {
	case "SUCCEEDED", "PAID":
		h.handleSuccess(w, r, webhookID, payload)
	case "EXPIRED", "FAILED":
		h.handleFailure(w, r, webhookID, payload)
	default:
		// Ignore intermediate statuses (PENDING, REQUIRES_ACTION, ...)
		_ = h.Payments.MarkWebhookProcessed(ctx, webhookID)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	}
}

func (h *Handler) handleSuccess(w http.ResponseWriter, r *http.Request, webhookID int64, payload WebhookPayload) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(zap.String("reference", payload.ReferenceID))

	var providerRef *string
	if payload.PaymentRequestID != "" {
		providerRef = &payload.PaymentRequestID
	}
	var expectedAmount *int64
	if payload.Amount > 0 {
		expectedAmount = &payload.Amount
	}

	result, err := h.Fulfillment.FulfillPayment(ctx, payload.ReferenceID, providerRef, expectedAmount)

	switch {
	case errors.Is(err, fulfillment.ErrPaymentNotFound),
		errors.Is(err, fulfillment.ErrAmountMismatch):
		// Forged or inconsistent notifications must not make the gateway
		// retry; record the rejection and answer 200.
		h.Metrics.Rejected.Inc()
		_ = h.Payments.MarkWebhookFailed(ctx, webhookID, err.Error())
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ignored")
		return
	case err != nil:
		h.Metrics.Failed.Inc()
		log.Error("fulfillment failed", zap.Error(err))
		_ = h.Payments.MarkWebhookFailed(ctx, webhookID, err.Error())
		http.Error(w, "failed to process payment", http.StatusInternalServerError)
		return
	}

	h.Metrics.Fulfilled.Inc()
	if result.AlreadyProcessed {
		h.Metrics.Duplicates.Inc()
	}

	_ = h.Payments.MarkWebhookProcessed(ctx, webhookID)
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

func (h *Handler) handleFailure(w http.ResponseWriter, r *http.Request, webhookID int64, payload WebhookPayload) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(zap.String("reference", payload.ReferenceID))

	if err := h.Fulfillment.FailPayment(ctx, payload.ReferenceID); err != nil {
		h.Metrics.Failed.Inc()
		log.Error("failed to mark payment failed", zap.Error(err))
		_ = h.Payments.MarkWebhookFailed(ctx, webhookID, err.Error())
		http.Error(w, "failed to process payment", http.StatusInternalServerError)
		return
	}

	_ = h.Payments.MarkWebhookProcessed(ctx, webhookID)
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}
