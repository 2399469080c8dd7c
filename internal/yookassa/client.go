package yookassa

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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://api.yookassa.ru/v3"

var logger zerolog.Logger = log.With().Str("component", "yookassa").Logger()

// Error is returned for any non-2xx gateway response. The provider
// payload is kept so operators can see exactly what the gateway said.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("yookassa: status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the YooKassa HTTP API. Every write carries a fresh
// Idempotence-Key, so a caller-side retry never double-charges or
// double-pays.
type Client struct {
	shopID     string
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func NewClient(shopID, secretKey string, opts ...Option) *Client {
	c := &Client{
		shopID:     shopID,
		secretKey:  secretKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type Confirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

// Payment is the gateway's payment object, reduced to the fields the
// marketplace reads.
type Payment struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Paid         bool              `json:"paid"`
	Amount       Amount            `json:"amount"`
	Confirmation *Confirmation     `json:"confirmation,omitempty"`
	CreatedAt    string            `json:"created_at"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Payout is the gateway's payout object.
type Payout struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount Amount `json:"amount"`
}

type CreatePaymentParams struct {
	Amount      Amount
	Description string
	ReturnURL   string
	Capture     bool
	Metadata    map[string]string
}

func (c *Client) CreatePayment(ctx context.Context, params CreatePaymentParams) (Payment, error) {
	body := map[string]any{
		"amount":      params.Amount,
		"capture":     params.Capture,
		"description": params.Description,
		"metadata":    params.Metadata,
		"confirmation": Confirmation{
			Type:      "redirect",
			ReturnURL: params.ReturnURL,
		},
	}

	var payment Payment
	if err := c.post(ctx, "/payments", body, &payment); err != nil {
		return Payment{}, err
	}
	return payment, nil
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (Payment, error) {
	var payment Payment
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &payment, false); err != nil {
		return Payment{}, err
	}
	return payment, nil
}

func (c *Client) CapturePayment(ctx context.Context, paymentID string, amount *Amount) (Payment, error) {
	body := map[string]any{}
	if amount != nil {
		body["amount"] = *amount
	}
	var payment Payment
	if err := c.post(ctx, "/payments/"+paymentID+"/capture", body, &payment); err != nil {
		return Payment{}, err
	}
	return payment, nil
}

func (c *Client) CancelPayment(ctx context.Context, paymentID string) (Payment, error) {
	var payment Payment
	if err := c.post(ctx, "/payments/"+paymentID+"/cancel", map[string]any{}, &payment); err != nil {
		return Payment{}, err
	}
	return payment, nil
}

// CreatePayout transfers funds to a seller's bank card. The amount is a
// decimal string in whole currency units, e.g. "540".
func (c *Client) CreatePayout(ctx context.Context, amount, cardNumber, description string) (Payout, error) {
	body := map[string]any{
		"amount": Amount{Value: amount, Currency: "RUB"},
		"payout_destination_data": map[string]any{
			"type": "bank_card",
			"card": map[string]string{"number": cardNumber},
		},
		"description": description,
		"metadata":    map[string]string{},
	}

	var payout Payout
	if err := c.post(ctx, "/payouts", body, &payout); err != nil {
		return Payout{}, err
	}
	return payout, nil
}

// ValidateWebhookSignature checks the HMAC-SHA256 hex signature the
// gateway sends over the raw notification body.
func (c *Client) ValidateWebhookSignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out, true)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any, idempotent bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.shopID, c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	if idempotent {
		req.Header.Set("Idempotence-Key", uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error().Int("status", resp.StatusCode).Str("path", path).Str("body", string(data)).Msg("gateway request failed")
		return &Error{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return err
		}
	}
	return nil
}
