package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader is the header the provider signs webhook deliveries with
const SignatureHeader = "X-Checkout-Signature"

// EventCheckoutCompleted is the only event kind that mutates state
const EventCheckoutCompleted = "checkout.session.completed"

// DefaultTolerance bounds how old a signed timestamp may be
const DefaultTolerance = 5 * time.Minute

var ErrInvalidSignature = errors.New("invalid webhook signature")

// Event is a webhook delivery from the payment provider
type Event struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
}

// VerifyWebhook checks the signature header against the raw payload and, on
// success, parses the event. Verification runs over the exact bytes
// received, so callers must not re-serialize the body first.
func VerifyWebhook(payload []byte, header, secret string) (*Event, error) {
	return verifyWebhookAt(payload, header, secret, DefaultTolerance, time.Now())
}

// verifyWebhookAt is VerifyWebhook with an injectable clock and tolerance
func verifyWebhookAt(payload []byte, header, secret string, tolerance time.Duration, now time.Time) (*Event, error) {
	ts, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return nil, err
	}

	// Bound skew in both directions: a replayed old header and a header
	// forged with a far-future timestamp are equally invalid.
	if skew := now.Sub(time.Unix(ts, 0)); skew > tolerance || skew < -tolerance {
		return nil, fmt.Errorf("timestamp outside tolerance: %w", ErrInvalidSignature)
	}

	expected := ComputeSignature(ts, payload, secret)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			matched = true
		}
	}
	if !matched {
		return nil, ErrInvalidSignature
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook event: %w", err)
	}

	return &event, nil
}

// ComputeSignature returns the hex HMAC-SHA256 of "<timestamp>.<payload>"
func ComputeSignature(timestamp int64, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignPayload builds a complete signature header for a payload. Used by the
// provider simulator in tests.
func SignPayload(timestamp int64, payload []byte, secret string) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp, ComputeSignature(timestamp, payload, secret))
}

// parseSignatureHeader splits "t=<unix>,v1=<hex>[,v1=<hex>...]"
func parseSignatureHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, fmt.Errorf("missing signature header: %w", ErrInvalidSignature)
	}

	var ts int64 = -1
	var signatures []string

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return 0, nil, fmt.Errorf("malformed signature header: %w", ErrInvalidSignature)
		}
		switch kv[0] {
		case "t":
			parsed, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("malformed timestamp: %w", ErrInvalidSignature)
			}
			ts = parsed
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if ts < 0 || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("incomplete signature header: %w", ErrInvalidSignature)
	}

	return ts, signatures, nil
}
