package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"benangmas-be/internal/fulfillment"
	"benangmas-be/internal/metrics"
	"benangmas-be/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockFulfillment struct {
	mock.Mock
}

func (m *MockFulfillment) FulfillPayment(ctx context.Context, reference string, providerRef *string, expectedAmount *int64) (*fulfillment.Result, error) {
	args := m.Called(ctx, reference, providerRef, expectedAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Result), args.Error(1)
}

func (m *MockFulfillment) FailPayment(ctx context.Context, reference string) error {
	args := m.Called(ctx, reference)
	return args.Error(0)
}

type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) CreatePayment(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepo) GetByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepo) SavePaymentWebhook(ctx context.Context, provider, eventID, eventType, externalID string, payload json.RawMessage, signatureValid bool) (int64, bool, error) {
	args := m.Called(ctx, provider, eventID, eventType, externalID, payload, signatureValid)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockPaymentRepo) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	args := m.Called(ctx, webhookID)
	return args.Error(0)
}

func (m *MockPaymentRepo) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	args := m.Called(ctx, webhookID, reason)
	return args.Error(0)
}

// stubGateway only decides whether the signature check passes.
type stubGateway struct {
	sigErr error
}

func (g *stubGateway) CreateInvoice(ctx context.Context, reference, customerEmail string, amount int64, items []payment.InvoiceItem, channelCode payment.ChannelCode) (*payment.PaymentResponse, error) {
	return nil, errors.New("not implemented")
}
func (g *stubGateway) GetPaymentStatus(ctx context.Context, reference string) (*payment.PaymentStatus, error) {
	return nil, errors.New("not implemented")
}
func (g *stubGateway) CancelPayment(ctx context.Context, reference string) error {
	return errors.New("not implemented")
}
func (g *stubGateway) VerifySignature(r *http.Request) error {
	return g.sigErr
}

func postWebhook(t *testing.T, h *Handler, payload WebhookPayload) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/webhook/payment", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.WebhookHandler(rec, req)
	return rec
}

func TestWebhookHandler_Success(t *testing.T) {
	fulfillSvc := new(MockFulfillment)
	repo := new(MockPaymentRepo)
	h := NewWebhookHandler(fulfillSvc, repo, &stubGateway{}, &metrics.WebhookMetrics{})

	repo.On("SavePaymentWebhook", mock.Anything, "XENDIT", "evt-1", "payment.succeeded", "PAY-1", mock.Anything, true).
		Return(int64(7), false, nil)
	fulfillSvc.On("FulfillPayment", mock.Anything, "PAY-1", mock.Anything, mock.Anything).
		Return(&fulfillment.Result{OrderID: 100, OrderNumber: "BMS-1"}, nil)
	repo.On("MarkWebhookProcessed", mock.Anything, int64(7)).Return(nil)

	rec := postWebhook(t, h, WebhookPayload{
		EventID:          "evt-1",
		Event:            "payment.succeeded",
		ReferenceID:      "PAY-1",
		PaymentRequestID: "pr-123",
		Status:           "SUCCEEDED",
		Amount:           500000,
	})

	assert.Equal(t, http.StatusOK, rec.Code)

	fulfillSvc.AssertCalled(t, "FulfillPayment", mock.Anything, "PAY-1",
		mock.MatchedBy(func(p *string) bool { return p != nil && *p == "pr-123" }),
		mock.MatchedBy(func(a *int64) bool { return a != nil && *a == 500000 }),
	)
	repo.AssertCalled(t, "MarkWebhookProcessed", mock.Anything, int64(7))
}

func TestWebhookHandler_DuplicateEvent(t *testing.T) {
	fulfillSvc := new(MockFulfillment)
	repo := new(MockPaymentRepo)
	m := &metrics.WebhookMetrics{}
	h := NewWebhookHandler(fulfillSvc, repo, &stubGateway{}, m)

	repo.On("SavePaymentWebhook", mock.Anything, "XENDIT", "evt-1", mock.Anything, "PAY-1", mock.Anything, true).
		Return(int64(0), true, nil)

	rec := postWebhook(t, h, WebhookPayload{
		EventID:     "evt-1",
		ReferenceID: "PAY-1",
		Status:      "SUCCEEDED",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(1), m.Duplicates.Load())
	fulfillSvc.AssertNotCalled(t, "FulfillPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookHandler_InvalidSignature(t *testing.T) {
	fulfillSvc := new(MockFulfillment)
	repo := new(MockPaymentRepo)
	h := NewWebhookHandler(fulfillSvc, repo, &stubGateway{sigErr: errors.New("invalid webhook signature")}, &metrics.WebhookMetrics{})

	rec := postWebhook(t, h, WebhookPayload{ReferenceID: "PAY-1", Status: "SUCCEEDED"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	fulfillSvc.AssertNotCalled(t, "FulfillPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "SavePaymentWebhook", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookHandler_FailureStatus(t *testing.T) {
	fulfillSvc := new(MockFulfillment)
	repo := new(MockPaymentRepo)
	h := NewWebhookHandler(fulfillSvc, repo, &stubGateway{}, &metrics.WebhookMetrics{})

	repo.On("SavePaymentWebhook", mock.Anything, "XENDIT", "evt-2", mock.Anything, "PAY-1", mock.Anything, true).
		Return(int64(8), false, nil)
	fulfillSvc.On("FailPayment", mock.Anything, "PAY-1").Return(nil)
	repo.On("MarkWebhookProcessed", mock.Anything, int64(8)).Return(nil)

	rec := postWebhook(t, h, WebhookPayload{
		EventID:     "evt-2",
		ReferenceID: "PAY-1",
		Status:      "EXPIRED",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	fulfillSvc.AssertCalled(t, "FailPayment", mock.Anything, "PAY-1")
}

func TestWebhookHandler_UnknownPaymentAnswers200(t *testing.T) {
	fulfillSvc := new(MockFulfillment)
	repo := new(MockPaymentRepo)
	m := &metrics.WebhookMetrics{}
	h := NewWebhookHandler(fulfillSvc, repo, &stubGateway{}, m)

	repo.On("SavePaymentWebhook", mock.Anything, "XENDIT", "evt-3", mock.Anything, "PAY-forged", mock.Anything, true).
		Return(int64(9), false, nil)
	fulfillSvc.On("FulfillPayment", mock.Anything, "PAY-forged", mock.Anything, mock.Anything).
		Return(nil, fulfillment.ErrPaymentNotFound)
	repo.On("MarkWebhookFailed", mock.Anything, int64(9), "payment not found").Return(nil)

	rec := postWebhook(t, h, WebhookPayload{
		EventID:     "evt-3",
		ReferenceID: "PAY-forged",
		Status:      "SUCCEEDED",
	})

	// forged references must not trigger gateway retries
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(1), m.Rejected.Load())
	repo.AssertCalled(t, "MarkWebhookFailed", mock.Anything, int64(9), "payment not found")
}

func TestWebhookHandler_EngineErrorAnswers500(t *testing.T) {
	fulfillSvc := new(MockFulfillment)
	repo := new(MockPaymentRepo)
	h := NewWebhookHandler(fulfillSvc, repo, &stubGateway{}, &metrics.WebhookMetrics{})

	repo.On("SavePaymentWebhook", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(10), false, nil)
	fulfillSvc.On("FulfillPayment", mock.Anything, "PAY-1", mock.Anything, mock.Anything).
		Return(nil, errors.New("db down"))
	repo.On("MarkWebhookFailed", mock.Anything, int64(10), "db down").Return(nil)

	rec := postWebhook(t, h, WebhookPayload{
		EventID:     "evt-4",
		ReferenceID: "PAY-1",
		Status:      "SUCCEEDED",
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhookHandler_IgnoresIntermediateStatuses(t *testing.T) {
	fulfillSvc := new(MockFulfillment)
	repo := new(MockPaymentRepo)
	h := NewWebhookHandler(fulfillSvc, repo, &stubGateway{}, &metrics.WebhookMetrics{})

	repo.On("SavePaymentWebhook", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int64(11), false, nil)
	repo.On("MarkWebhookProcessed", mock.Anything, int64(11)).Return(nil)

	rec := postWebhook(t, h, WebhookPayload{
		EventID:     "evt-5",
		ReferenceID: "PAY-1",
		Status:      "REQUIRES_ACTION",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	fulfillSvc.AssertNotCalled(t, "FulfillPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	fulfillSvc.AssertNotCalled(t, "FailPayment", mock.Anything, mock.Anything)
}

func TestWebhookHandler_MissingReference(t *testing.T) {
	fulfillSvc := new(MockFulfillment)
	repo := new(MockPaymentRepo)
	h := NewWebhookHandler(fulfillSvc, repo, &stubGateway{}, &metrics.WebhookMetrics{})

	rec := postWebhook(t, h, WebhookPayload{EventID: "evt-6", Status: "SUCCEEDED"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandler_EventIDFallback(t *testing.T) {
	fulfillSvc := new(MockFulfillment)
	repo := new(MockPaymentRepo)
	h := NewWebhookHandler(fulfillSvc, repo, &stubGateway{}, &metrics.WebhookMetrics{})

	// without event_id the dedup key still distinguishes transitions
	repo.On("SavePaymentWebhook", mock.Anything, "XENDIT", "PAY-1:SUCCEEDED", mock.Anything, "PAY-1", mock.Anything, true).
		Return(int64(12), false, nil)
	fulfillSvc.On("FulfillPayment", mock.Anything, "PAY-1", mock.Anything, mock.Anything).
		Return(&fulfillment.Result{OrderID: 100, OrderNumber: "BMS-1"}, nil)
	repo.On("MarkWebhookProcessed", mock.Anything, int64(12)).Return(nil)

	rec := postWebhook(t, h, WebhookPayload{
		ReferenceID: "PAY-1",
		Status:      "SUCCEEDED",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}
