package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXenditGateway_CreateInvoice(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/v3/payment_requests", r.URL.Path)

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "PAY-1", body["reference_id"])
			assert.Equal(t, float64(500000), body["request_amount"])

			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{
				"payment_request_id": "pr-123",
				"reference_id":       "PAY-1",
				"request_amount":     500000,
				"status":             "PENDING",
				"channel_code":       "BCA_VIRTUAL_ACCOUNT",
				"actions": []map[string]string{
					{"descriptor": "VIRTUAL_ACCOUNT_NUMBER", "value": "1234567890"},
					{"descriptor": "WEB_URL", "value": "https://pay.example/inv"},
				},
			})
		}))
		defer srv.Close()

		gw := NewXenditGateway("key", "", WithBaseURL(srv.URL))

		resp, err := gw.CreateInvoice(
			context.Background(), "PAY-1", "dewi@example.com", 500000,
			[]InvoiceItem{{Name: "Kebaya Encim", Quantity: 2, Price: 150000}},
			ChannelBCA,
		)
		require.NoError(t, err)

		assert.Equal(t, "pr-123", resp.ProviderPaymentID)
		assert.Equal(t, int64(500000), resp.Amount)
		assert.Equal(t, "1234567890", resp.PaymentCode)
		assert.Equal(t, "https://pay.example/inv", resp.InvoiceURL)
		assert.Equal(t, ChannelBCA, resp.ChannelCode)
	})

	t.Run("GatewayError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error_code":"INVALID_API_KEY"}`, http.StatusUnauthorized)
		}))
		defer srv.Close()

		gw := NewXenditGateway("bad-key", "", WithBaseURL(srv.URL))

		_, err := gw.CreateInvoice(context.Background(), "PAY-1", "dewi@example.com", 500000, nil, ChannelBCA)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "xendit error")
	})
}

func TestXenditGateway_GetPaymentStatus(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "PAY-1", r.URL.Query().Get("external_id"))
			json.NewEncoder(w).Encode([]map[string]any{
				{"status": "PAID"},
			})
		}))
		defer srv.Close()

		gw := NewXenditGateway("key", "", WithBaseURL(srv.URL))

		status, err := gw.GetPaymentStatus(context.Background(), "PAY-1")
		require.NoError(t, err)
		assert.Equal(t, "PAID", status.Status)
	})

	t.Run("NotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode([]map[string]any{})
		}))
		defer srv.Close()

		gw := NewXenditGateway("key", "", WithBaseURL(srv.URL))

		_, err := gw.GetPaymentStatus(context.Background(), "PAY-unknown")
		assert.Error(t, err)
	})
}

func TestXenditGateway_VerifySignature(t *testing.T) {
	t.Run("EmptyTokenSkips", func(t *testing.T) {
		gw := NewXenditGateway("key", "")
		r := httptest.NewRequest("POST", "/webhook/payment", nil)
		assert.NoError(t, gw.VerifySignature(r))
	})

	t.Run("ValidToken", func(t *testing.T) {
		gw := NewXenditGateway("key", "cb-token")
		r := httptest.NewRequest("POST", "/webhook/payment", nil)
		r.Header.Set("x-callback-token", "cb-token")
		assert.NoError(t, gw.VerifySignature(r))
	})

	t.Run("InvalidToken", func(t *testing.T) {
		gw := NewXenditGateway("key", "cb-token")
		r := httptest.NewRequest("POST", "/webhook/payment", nil)
		r.Header.Set("x-callback-token", "wrong")
		assert.Error(t, gw.VerifySignature(r))
	})
}
