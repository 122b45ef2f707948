package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront/internal/util"

	"go.uber.org/zap"
)

// Client wraps the payment provider's hosted-checkout API
type Client struct {
	apiKey     string
	baseURL    string
	successURL string
	cancelURL  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new payment gateway client
func NewClient(apiKey, baseURL, successURL, cancelURL string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		successURL: successURL,
		cancelURL:  cancelURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     util.GetLogger(),
	}
}

// LineItem is a checkout line item. UnitAmount is in cents.
type LineItem struct {
	Name       string `json:"name"`
	UnitAmount int64  `json:"unit_amount"`
	Quantity   int    `json:"quantity"`
	Currency   string `json:"currency"`
}

// SessionParams describes a checkout session to create
type SessionParams struct {
	LineItems           []LineItem
	Metadata            map[string]string
	AllowPromotionCodes bool
}

// TotalDetails carries the gateway's authoritative discount totals
type TotalDetails struct {
	AmountDiscount int64 `json:"amount_discount"`
}

// CustomerDetails carries what the payer entered on the hosted page
type CustomerDetails struct {
	Email string `json:"email"`
}

// CheckoutSession is the provider's session resource. The only durable link
// back to an order is the order id carried in Metadata.
type CheckoutSession struct {
	ID                 string            `json:"id"`
	URL                string            `json:"url"`
	PaymentStatus      string            `json:"payment_status"`
	PaymentMethodTypes []string          `json:"payment_method_types"`
	AmountTotal        int64             `json:"amount_total"`
	TotalDetails       TotalDetails      `json:"total_details"`
	CustomerDetails    CustomerDetails   `json:"customer_details"`
	Metadata           map[string]string `json:"metadata"`
}

// PaymentMethod returns the first payment method type, or "unknown"
func (s *CheckoutSession) PaymentMethod() string {
	if len(s.PaymentMethodTypes) > 0 {
		return s.PaymentMethodTypes[0]
	}
	return "unknown"
}

// CreateCheckoutSession requests a hosted checkout session from the provider
func (c *Client) CreateCheckoutSession(ctx context.Context, params SessionParams) (*CheckoutSession, error) {
	start := time.Now()
	defer func() {
		util.GatewayRequestLatency.Observe(time.Since(start).Seconds())
	}()

	payload := map[string]interface{}{
		"mode":                  "payment",
		"line_items":            params.LineItems,
		"success_url":           c.successURL,
		"cancel_url":            c.cancelURL,
		"metadata":              params.Metadata,
		"allow_promotion_codes": params.AllowPromotionCodes,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("Gateway rejected session request",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", detail))
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}

	return &session, nil
}
