package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher publishes domain events to the order stream and
// notification requests to the mailer topic.
type EventPublisher struct {
	orders        *Producer
	notifications *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(orders, notifications *Producer) *EventPublisher {
	return &EventPublisher{orders: orders, notifications: notifications}
}

// PublishOrderCreated publishes an order.created event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return ep.orders.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderPaid publishes an order.paid event
func (ep *EventPublisher) PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	return ep.orders.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishVerificationEmail enqueues a verification email
func (ep *EventPublisher) PublishVerificationEmail(ctx context.Context, event *models.VerificationEmailEvent) error {
	return ep.notifications.PublishEvent(ctx, event.Email, event)
}

// PublishPasswordResetEmail enqueues a password-reset email
func (ep *EventPublisher) PublishPasswordResetEmail(ctx context.Context, event *models.PasswordResetEmailEvent) error {
	return ep.notifications.PublishEvent(ctx, event.Email, event)
}

// PublishPaymentConfirmationEmail enqueues a payment-confirmation email
func (ep *EventPublisher) PublishPaymentConfirmationEmail(ctx context.Context, event *models.PaymentConfirmationEmailEvent) error {
	return ep.notifications.PublishEvent(ctx, event.Email, event)
}

func orderKey(orderID string) string {
	return fmt.Sprintf("order-%s", orderID)
}

// NotificationHandler routes notification events to registered callbacks
type NotificationHandler struct {
	onVerification        func(context.Context, *models.VerificationEmailEvent) error
	onPasswordReset       func(context.Context, *models.PasswordResetEmailEvent) error
	onPaymentConfirmation func(context.Context, *models.PaymentConfirmationEmailEvent) error
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler() *NotificationHandler {
	return &NotificationHandler{}
}

// OnVerification registers a handler for verification email requests
func (nh *NotificationHandler) OnVerification(handler func(context.Context, *models.VerificationEmailEvent) error) {
	nh.onVerification = handler
}

// OnPasswordReset registers a handler for password-reset email requests
func (nh *NotificationHandler) OnPasswordReset(handler func(context.Context, *models.PasswordResetEmailEvent) error) {
	nh.onPasswordReset = handler
}

// OnPaymentConfirmation registers a handler for payment-confirmation email requests
func (nh *NotificationHandler) OnPaymentConfirmation(handler func(context.Context, *models.PaymentConfirmationEmailEvent) error) {
	nh.onPaymentConfirmation = handler
}

// HandleMessage routes messages to the appropriate handler by event type
func (nh *NotificationHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	logger := util.GetLogger()
	logger.Debug("Handling notification event",
		zap.String("type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeVerificationEmail:
		if nh.onVerification != nil {
			var event models.VerificationEmailEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal verification event: %w", err)
			}
			return nh.onVerification(ctx, &event)
		}

	case models.EventTypePasswordResetEmail:
		if nh.onPasswordReset != nil {
			var event models.PasswordResetEmailEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal reset event: %w", err)
			}
			return nh.onPasswordReset(ctx, &event)
		}

	case models.EventTypePaymentConfirmationEmail:
		if nh.onPaymentConfirmation != nil {
			var event models.PaymentConfirmationEmailEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal confirmation event: %w", err)
			}
			return nh.onPaymentConfirmation(ctx, &event)
		}

	default:
		logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
