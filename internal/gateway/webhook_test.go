package gateway

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func testPayload(orderID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"created": 1700000000,
		"data": {
			"object": {
				"id": "cs_1",
				"payment_status": "paid",
				"amount_total": 4200,
				"metadata": {"order_id": %q}
			}
		}
	}`, orderID))
}

func TestVerifyWebhookValidSignature(t *testing.T) {
	payload := testPayload("order-1")
	now := time.Now()
	header := SignPayload(now.Unix(), payload, testSecret)

	event, err := verifyWebhookAt(payload, header, testSecret, DefaultTolerance, now)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, EventCheckoutCompleted, event.Type)
	assert.Equal(t, "order-1", event.Data.Object.Metadata["order_id"])
	assert.Equal(t, int64(4200), event.Data.Object.AmountTotal)
}

func TestVerifyWebhookTamperedPayload(t *testing.T) {
	payload := testPayload("order-1")
	now := time.Now()
	header := SignPayload(now.Unix(), payload, testSecret)

	tampered := testPayload("order-2")
	_, err := verifyWebhookAt(tampered, header, testSecret, DefaultTolerance, now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyWebhookWrongSecret(t *testing.T) {
	payload := testPayload("order-1")
	now := time.Now()
	header := SignPayload(now.Unix(), payload, "whsec_other")

	_, err := verifyWebhookAt(payload, header, testSecret, DefaultTolerance, now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyWebhookStaleTimestamp(t *testing.T) {
	payload := testPayload("order-1")
	now := time.Now()
	signedAt := now.Add(-10 * time.Minute)
	header := SignPayload(signedAt.Unix(), payload, testSecret)

	_, err := verifyWebhookAt(payload, header, testSecret, DefaultTolerance, now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyWebhookFutureTimestamp(t *testing.T) {
	payload := testPayload("order-1")
	now := time.Now()
	signedAt := now.Add(10 * time.Minute)
	header := SignPayload(signedAt.Unix(), payload, testSecret)

	_, err := verifyWebhookAt(payload, header, testSecret, DefaultTolerance, now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyWebhookMultipleSignatures(t *testing.T) {
	// Secret rotation: provider sends one signature per active secret
	payload := testPayload("order-1")
	now := time.Now()
	header := fmt.Sprintf("t=%d,v1=%s,v1=%s",
		now.Unix(),
		ComputeSignature(now.Unix(), payload, "whsec_old"),
		ComputeSignature(now.Unix(), payload, testSecret),
	)

	event, err := verifyWebhookAt(payload, header, testSecret, DefaultTolerance, now)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
}

func TestVerifyWebhookMalformedHeader(t *testing.T) {
	payload := testPayload("order-1")
	now := time.Now()

	cases := []string{
		"",
		"t=abc,v1=deadbeef",
		"v1=deadbeef",
		fmt.Sprintf("t=%d", now.Unix()),
		"garbage",
	}

	for _, header := range cases {
		_, err := verifyWebhookAt(payload, header, testSecret, DefaultTolerance, now)
		assert.ErrorIs(t, err, ErrInvalidSignature, "header %q", header)
	}
}
