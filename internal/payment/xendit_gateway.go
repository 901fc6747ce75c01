package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"benangmas-be/internal/logger"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.xendit.co"
	apiVersion     = "2024-11-11"
)

type xenditGateway struct {
	apiKey        string
	baseURL       string
	httpClient    *http.Client
	callbackToken string
	successURL    string
	failureURL    string
}

type XenditOption func(*xenditGateway)

// WithBaseURL overrides the Xendit endpoint, used by tests.
func WithBaseURL(url string) XenditOption {
	return func(x *xenditGateway) { x.baseURL = url }
}

func WithReturnURLs(successURL, failureURL string) XenditOption {
	return func(x *xenditGateway) {
		x.successURL = successURL
		x.failureURL = failureURL
	}
}

func NewXenditGateway(apiKey, callbackToken string, opts ...XenditOption) Gateway {
	if apiKey == "" {
		logger.L().Warn("Xendit API key is empty")
	}

	g := &xenditGateway{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		callbackToken: callbackToken,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type xenditAction struct {
	Descriptor string `json:"descriptor"`
	Value      string `json:"value"`
}

type xenditPaymentResponse struct {
	PaymentRequestID string         `json:"payment_request_id"`
	ReferenceID      string         `json:"reference_id"`
	RequestAmount    int64          `json:"request_amount"`
	Status           string         `json:"status"`
	ChannelCode      string         `json:"channel_code"`
	Actions          []xenditAction `json:"actions"`
	ChannelProps     struct {
		ExpiresAt *time.Time `json:"expires_at"`
	} `json:"channel_properties"`
}

func (x *xenditGateway) CreateInvoice(
	ctx context.Context,
	reference string,
	customerEmail string,
	amount int64,
	items []InvoiceItem,
	channelCode ChannelCode,
) (*PaymentResponse, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("reference", reference),
		zap.Int64("amount", amount),
		zap.String("channel", string(channelCode)),
	)

	expiry := time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339)

	body := map[string]interface{}{
		"reference_id":   reference,
		"type":           "PAY",
		"country":        "ID",
		"currency":       "IDR",
		"request_amount": amount,
		"customer": map[string]interface{}{
			"type":         "INDIVIDUAL",
			"reference_id": reference,
			"email":        customerEmail,
		},
		"metadata": map[string]interface{}{
			"items": items,
		},
		"channel_code": string(channelCode),
		"channel_properties": map[string]interface{}{
			"success_return_url": x.successURL,
			"failure_return_url": x.failureURL,
			"expires_at":         expiry,
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Error("Failed to marshal payment request", zap.Error(err))
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", x.baseURL+"/v3/payment_requests", bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return nil, err
	}

	req.SetBasicAuth(x.apiKey, "")
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("api-version", apiVersion)

	log.Info("Sending payment request to Xendit")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		log.Error("Xendit request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read xendit response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Error("Xendit returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("xendit error: %s", string(bodyBytes))
	}

	var res xenditPaymentResponse
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		log.Error("Failed decoding Xendit response", zap.Error(err))
		return nil, err
	}

	log.Info("Xendit payment created",
		zap.String("payment_id", res.PaymentRequestID),
		zap.String("status", res.Status),
	)

	var paymentCode string
	var invoiceURL string

	for _, action := range res.Actions {
		switch action.Descriptor {
		case "VIRTUAL_ACCOUNT_NUMBER", "PAYMENT_CODE", "QR_STRING":
			if paymentCode == "" {
				paymentCode = action.Value
			}
		case "WEB_URL", "DEEPLINK_URL":
			if invoiceURL == "" {
				invoiceURL = action.Value
			}
		}
	}

	expirationTime := time.Now().Add(24 * time.Hour)
	if res.ChannelProps.ExpiresAt != nil {
		expirationTime = *res.ChannelProps.ExpiresAt
	}

	return &PaymentResponse{
		ProviderPaymentID: res.PaymentRequestID,
		ReferenceID:       res.ReferenceID,
		Amount:            res.RequestAmount,
		Status:            res.Status,
		PaymentCode:       paymentCode,
		InvoiceURL:        invoiceURL,
		ChannelCode:       ChannelCode(res.ChannelCode),
		ExpirationTime:    expirationTime,
	}, nil
}

func (x *xenditGateway) GetPaymentStatus(ctx context.Context, reference string) (*PaymentStatus, error) {
	log := logger.FromCtx(ctx).With(zap.String("reference", reference))

	url := fmt.Sprintf("%s/v2/invoices?external_id=%s", x.baseURL, reference)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(x.apiKey, "")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		log.Error("Request to Xendit failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read xendit response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error("Xendit returned error",
			zap.Int("http_status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("xendit error: %s", string(bodyBytes))
	}

	var invoices []struct {
		Status string     `json:"status"`
		PaidAt *time.Time `json:"paid_at"`
	}
	if err := json.Unmarshal(bodyBytes, &invoices); err != nil {
		return nil, err
	}

	if len(invoices) == 0 {
		log.Warn("Invoice not found")
		return nil, errors.New("invoice not found")
	}

	return &PaymentStatus{
		Status: invoices[0].Status,
		PaidAt: invoices[0].PaidAt,
	}, nil
}

func (x *xenditGateway) CancelPayment(ctx context.Context, reference string) error {
	log := logger.FromCtx(ctx).With(zap.String("reference", reference))

	url := fmt.Sprintf("%s/invoices/%s/expire!", x.baseURL, reference)

	req, err := http.NewRequestWithContext(ctx, "POST", url, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(x.apiKey, "")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		log.Error("Xendit request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read xendit response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error("Failed to cancel payment",
			zap.Int("http_status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return fmt.Errorf("xendit cancel error: %s", string(bodyBytes))
	}

	log.Info("Payment cancelled successfully")
	return nil
}

func (x *xenditGateway) VerifySignature(r *http.Request) error {
	sig := r.Header.Get("x-callback-token")
	expected := x.callbackToken

	if expected == "" {
		return nil // skip in dev
	}

	if sig != expected {
		return errors.New("invalid webhook signature")
	}
	return nil
}
