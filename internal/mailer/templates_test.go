package mailer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$0.00", formatAmount(0))
	assert.Equal(t, "$0.05", formatAmount(5))
	assert.Equal(t, "$12.50", formatAmount(1250))
	assert.Equal(t, "$1000.00", formatAmount(100000))
}

func TestVerificationBodyContainsLink(t *testing.T) {
	body := buildVerificationBody("Alice", "https://shop.example.com/verify?token=abc")
	assert.Contains(t, body, "Alice")
	assert.Contains(t, body, "https://shop.example.com/verify?token=abc")
}

func TestPaymentConfirmationBody(t *testing.T) {
	paidAt := time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC)
	body := buildPaymentConfirmationBody("order-1", 1800, "card", paidAt, "https://shop.example.com")

	assert.Contains(t, body, "order-1")
	assert.Contains(t, body, "$18.00")
	assert.Contains(t, body, "Card")
	assert.Contains(t, body, "March 5, 2024")
}
