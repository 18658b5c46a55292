package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rohanmehta-dev/vaanijya-backend/pkg/config"
	apperrors "github.com/rohanmehta-dev/vaanijya-backend/pkg/errors"
)

// Client is a thin wrapper over the Razorpay Orders REST API. Only the calls
// the checkout flow needs are implemented.
type Client struct {
	keyID         string
	keySecret     string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client
}

// New builds a client from configuration.
func New(cfg config.RazorpayConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		keyID:         cfg.KeyID,
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.EffectiveWebhookSecret(),
		baseURL:       cfg.BaseURL,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// CreateOrderRequest is the payment-intent input. Amount is integer paise.
type CreateOrderRequest struct {
	AmountPaise int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Receipt     string            `json:"receipt"`
	Notes       map[string]string `json:"notes,omitempty"`
}

// Order is the gateway's view of a payment intent.
type Order struct {
	ID          string            `json:"id"`
	AmountPaise int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Receipt     string            `json:"receipt"`
	Status      string            `json:"status"`
	Notes       map[string]string `json:"notes"`
}

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder registers a payment intent at the gateway.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "payment gateway unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "reading gateway response")
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		_ = json.Unmarshal(raw, &apiErr)
		msg := apiErr.Error.Description
		if msg == "" {
			msg = fmt.Sprintf("gateway returned status %d", resp.StatusCode)
		}
		return nil, apperrors.New(apperrors.CodeDependency, msg)
	}

	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "decoding gateway response")
	}
	return &order, nil
}

// VerifyPaymentSignature checks the checkout callback signature: an
// HMAC-SHA256 of "<orderID>|<paymentID>" keyed with the API secret.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return verifyHMAC(c.keySecret, []byte(orderID+"|"+paymentID), signature)
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the
// raw webhook body.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	return verifyHMAC(c.webhookSecret, body, signature)
}

func verifyHMAC(secret string, message []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
