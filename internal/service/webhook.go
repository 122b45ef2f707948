package service

import (
	"context"
	"errors"
	"time"

	"storefront/internal/gateway"
	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// eventSeenTTL bounds how long webhook event ids are remembered
const eventSeenTTL = 24 * time.Hour

// HandleWebhook verifies and reconciles a webhook delivery from the payment
// provider. It returns an error only when the signature check fails; every
// later step is best-effort and logged, so the provider gets an
// acknowledgement and does not retry an event we already classified.
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	ctx, span := util.StartSpan(ctx, "CheckoutService.HandleWebhook")
	defer span.End()

	event, err := gateway.VerifyWebhook(payload, signatureHeader, s.webhookSecret)
	if err != nil {
		util.WebhookSignatureFailures.Inc()
		s.logger.Warn("Webhook signature verification failed", zap.Error(err))
		return err
	}

	if event.Type != gateway.EventCheckoutCompleted {
		util.WebhookEventsTotal.WithLabelValues(event.Type, "ignored").Inc()
		s.logger.Debug("Ignoring webhook event", zap.String("type", event.Type))
		return nil
	}

	session := event.Data.Object
	orderID := session.Metadata["order_id"]
	if orderID == "" {
		util.WebhookEventsTotal.WithLabelValues(event.Type, "no_order_id").Inc()
		s.logger.Warn("Checkout completed without order metadata",
			zap.String("session_id", session.ID))
		return nil
	}

	if session.PaymentStatus != "paid" {
		util.WebhookEventsTotal.WithLabelValues(event.Type, "unpaid").Inc()
		s.logger.Info("Checkout completed but not paid, skipping",
			zap.String("order_id", orderID),
			zap.String("payment_status", session.PaymentStatus))
		return nil
	}

	// Best-effort replay guard. The conditional order update below is the
	// authoritative idempotency check, so a cache failure just means we
	// fall through to it.
	if seen, err := s.cache.MarkEventSeen(ctx, event.ID, eventSeenTTL); err != nil {
		s.logger.Warn("Event replay guard unavailable", zap.Error(err))
	} else if !seen {
		util.WebhookEventsTotal.WithLabelValues(event.Type, "replay").Inc()
		s.logger.Info("Webhook event already seen, skipping",
			zap.String("event_id", event.ID),
			zap.String("order_id", orderID))
		return nil
	}

	s.reconcileOrder(ctx, orderID, &session)
	return nil
}

// reconcileOrder applies the paid transition and its side effects. The
// transition itself is the first and only authoritative mutation; stock
// updates and the confirmation email must not undo or block it.
func (s *CheckoutService) reconcileOrder(ctx context.Context, orderID string, session *gateway.CheckoutSession) {
	// The gateway validated any promotion code, so its totals win.
	updated, err := s.store.MarkOrderPaidWithAmounts(ctx, orderID,
		session.AmountTotal, session.TotalDetails.AmountDiscount)
	if err != nil {
		util.WebhookEventsTotal.WithLabelValues(gateway.EventCheckoutCompleted, "store_error").Inc()
		s.logger.Error("Failed to mark order paid",
			zap.String("order_id", orderID),
			zap.Error(err))
		return
	}

	if !updated {
		if _, err := s.store.GetOrderByID(ctx, orderID); errors.Is(err, store.ErrNotFound) {
			util.WebhookEventsTotal.WithLabelValues(gateway.EventCheckoutCompleted, "order_missing").Inc()
			s.logger.Warn("Webhook for unknown order, skipping",
				zap.String("order_id", orderID))
		} else {
			util.WebhookEventsTotal.WithLabelValues(gateway.EventCheckoutCompleted, "already_paid").Inc()
			s.logger.Info("Order already paid, skipping",
				zap.String("order_id", orderID))
		}
		return
	}

	util.OrdersPaidTotal.Inc()
	util.WebhookEventsTotal.WithLabelValues(gateway.EventCheckoutCompleted, "confirmed").Inc()
	s.logger.Info("Order confirmed paid",
		zap.String("order_id", orderID),
		zap.Int64("amount", session.AmountTotal),
		zap.Int64("discount", session.TotalDetails.AmountDiscount))

	// Per line item, independently: one failing product must not block the
	// others.
	items, err := s.store.GetOrderItems(ctx, orderID)
	if err != nil {
		s.logger.Error("Failed to load order items for stock update",
			zap.String("order_id", orderID),
			zap.Error(err))
		items = nil
	}

	for _, item := range items {
		if err := s.store.ApplyProductSale(ctx, item.ProductID, item.Qty); err != nil {
			util.StockUpdateFailures.Inc()
			s.logger.Error("Failed to apply product sale",
				zap.String("order_id", orderID),
				zap.String("product_id", item.ProductID),
				zap.Error(err))
			continue
		}

		if _, err := s.cache.DecrementStock(ctx, item.ProductID, item.Qty); err != nil {
			s.logger.Warn("Failed to update stock cache",
				zap.String("product_id", item.ProductID),
				zap.Error(err))
		}
	}

	paidAt := time.Now()
	paidEvent := &models.OrderPaidEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeOrderPaid,
			Timestamp: paidAt,
		},
		OrderID:        orderID,
		Amount:         session.AmountTotal,
		DiscountAmount: session.TotalDetails.AmountDiscount,
		PaymentMethod:  session.PaymentMethod(),
		PayerEmail:     session.CustomerDetails.Email,
		PaidAt:         paidAt,
	}
	if err := s.publisher.PublishOrderPaid(ctx, paidEvent); err != nil {
		s.logger.Error("Failed to publish order.paid event", zap.Error(err))
	}

	// The payer's email comes from the gateway session, not the stored
	// order. Delivery is fire-and-forget.
	if session.CustomerDetails.Email == "" {
		s.logger.Warn("Session has no payer email, skipping confirmation",
			zap.String("order_id", orderID))
		return
	}

	mailEvent := &models.PaymentConfirmationEmailEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypePaymentConfirmationEmail,
			Timestamp: paidAt,
		},
		Email:         session.CustomerDetails.Email,
		OrderID:       orderID,
		Amount:        session.AmountTotal,
		PaymentMethod: session.PaymentMethod(),
		PaidAt:        paidAt,
	}
	if err := s.publisher.PublishPaymentConfirmationEmail(ctx, mailEvent); err != nil {
		s.logger.Error("Failed to enqueue payment confirmation email",
			zap.String("order_id", orderID),
			zap.Error(err))
	}
}
