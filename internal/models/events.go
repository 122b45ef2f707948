package models

import "time"

// Event types
const (
	EventTypeOrderCreated = "order.created"
	EventTypeOrderPaid    = "order.paid"

	EventTypeVerificationEmail        = "notification.verification_email"
	EventTypePasswordResetEmail       = "notification.password_reset"
	EventTypePaymentConfirmationEmail = "notification.payment_confirmation"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published when a pending order is persisted
type OrderCreatedEvent struct {
	BaseEvent
	OrderID    string          `json:"order_id"`
	UserID     string          `json:"user_id"`
	TotalPrice int64           `json:"total_price"`
	Items      []OrderItemData `json:"items"`
}

// OrderPaidEvent published when a webhook confirms payment
type OrderPaidEvent struct {
	BaseEvent
	OrderID        string    `json:"order_id"`
	Amount         int64     `json:"amount"`
	DiscountAmount int64     `json:"discount_amount"`
	PaymentMethod  string    `json:"payment_method"`
	PayerEmail     string    `json:"payer_email"`
	PaidAt         time.Time `json:"paid_at"`
}

// VerificationEmailEvent asks the mailer worker to send a verification link
type VerificationEmailEvent struct {
	BaseEvent
	Email string `json:"email"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

// PasswordResetEmailEvent asks the mailer worker to send a reset link
type PasswordResetEmailEvent struct {
	BaseEvent
	Email string `json:"email"`
	Token string `json:"token"`
}

// PaymentConfirmationEmailEvent asks the mailer worker to confirm a payment.
// The payer email comes from the gateway session, not the stored order.
type PaymentConfirmationEmailEvent struct {
	BaseEvent
	Email         string    `json:"email"`
	OrderID       string    `json:"order_id"`
	Amount        int64     `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	PaidAt        time.Time `json:"paid_at"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	UnitPrice int64  `json:"unit_price"`
}
