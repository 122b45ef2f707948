package worker

import (
	"context"

	"storefront/internal/broker"
	"storefront/internal/mailer"
	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// NotificationWorker consumes notification events and delivers the
// corresponding emails. Delivery failures are logged and the message is
// committed anyway: email is fire-and-forget and a broken SMTP relay must
// not wedge the topic.
type NotificationWorker struct {
	consumer *broker.Consumer
	handler  *broker.NotificationHandler
	logger   *zap.Logger
}

// NewNotificationWorker creates a worker wired to the given mailer
func NewNotificationWorker(consumer *broker.Consumer, m *mailer.Mailer) *NotificationWorker {
	logger := util.GetLogger()
	handler := broker.NewNotificationHandler()

	handler.OnVerification(func(ctx context.Context, event *models.VerificationEmailEvent) error {
		if err := m.SendVerification(event.Email, event.Name, event.Token); err != nil {
			util.EmailsSentTotal.WithLabelValues("verification", "error").Inc()
			logger.Error("Failed to send verification email", zap.Error(err))
			return nil
		}
		util.EmailsSentTotal.WithLabelValues("verification", "ok").Inc()
		return nil
	})

	handler.OnPasswordReset(func(ctx context.Context, event *models.PasswordResetEmailEvent) error {
		if err := m.SendPasswordReset(event.Email, event.Token); err != nil {
			util.EmailsSentTotal.WithLabelValues("password_reset", "error").Inc()
			logger.Error("Failed to send password reset email", zap.Error(err))
			return nil
		}
		util.EmailsSentTotal.WithLabelValues("password_reset", "ok").Inc()
		return nil
	})

	handler.OnPaymentConfirmation(func(ctx context.Context, event *models.PaymentConfirmationEmailEvent) error {
		err := m.SendPaymentConfirmation(event.Email, event.OrderID, event.Amount, event.PaymentMethod, event.PaidAt)
		if err != nil {
			util.EmailsSentTotal.WithLabelValues("payment_confirmation", "error").Inc()
			logger.Error("Failed to send payment confirmation email",
				zap.String("order_id", event.OrderID),
				zap.Error(err))
			return nil
		}
		util.EmailsSentTotal.WithLabelValues("payment_confirmation", "ok").Inc()
		return nil
	})

	return &NotificationWorker{
		consumer: consumer,
		handler:  handler,
		logger:   logger,
	}
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.handler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}
