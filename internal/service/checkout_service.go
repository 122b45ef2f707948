package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/gateway"
	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrEmptyCart is returned when a checkout is requested with no items
	ErrEmptyCart = errors.New("cart is empty")
	// ErrForbidden is returned when an actor may not touch a resource
	ErrForbidden = errors.New("forbidden")
)

// CheckoutStore is the persistence surface the orchestrator needs
type CheckoutStore interface {
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
	MarkOrderPaidWithAmounts(ctx context.Context, orderID string, totalPrice, discountAmount int64) (bool, error)
	ApplyProductSale(ctx context.Context, productID string, qty int) error
}

// CheckoutGateway is the payment provider surface the orchestrator needs
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, params gateway.SessionParams) (*gateway.CheckoutSession, error)
}

// StockCache is the best-effort cache layer kept in step with the store
type StockCache interface {
	InitStock(ctx context.Context, productID string, qty int) error
	DecrementStock(ctx context.Context, productID string, qty int) (int, error)
	MarkEventSeen(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
}

// CheckoutPublisher publishes order events and notification requests
type CheckoutPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error
	PublishPaymentConfirmationEmail(ctx context.Context, event *models.PaymentConfirmationEmailEvent) error
}

// CheckoutService orchestrates the order/payment flow: it creates pending
// orders, requests hosted checkout sessions, and reconciles state when the
// provider confirms payment via webhook.
type CheckoutService struct {
	store         CheckoutStore
	gateway       CheckoutGateway
	cache         StockCache
	publisher     CheckoutPublisher
	webhookSecret string
	logger        *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	store CheckoutStore,
	gw CheckoutGateway,
	cache StockCache,
	publisher CheckoutPublisher,
	webhookSecret string,
) *CheckoutService {
	return &CheckoutService{
		store:         store,
		gateway:       gw,
		cache:         cache,
		publisher:     publisher,
		webhookSecret: webhookSecret,
		logger:        util.GetLogger(),
	}
}

// CheckoutItemRequest references a product and a quantity to buy
type CheckoutItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Qty       int    `json:"qty" binding:"required,min=1"`
}

// CheckoutRequest is a request to start a hosted checkout
type CheckoutRequest struct {
	Items           []CheckoutItemRequest `json:"items"`
	ShippingAddress models.Address        `json:"shipping_address"`
	TotalPrice      int64                 `json:"total_price"`
	DiscountAmount  int64                 `json:"discount_amount"`
}

// CheckoutResponse carries the session handle the client redirects to
type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
	OrderID   string `json:"order_id"`
}

// CreateCheckoutSession persists a pending order with a frozen line-item
// snapshot and requests a hosted checkout session carrying the order id as
// metadata. A gateway failure leaves the pending order behind; it never
// transitions to paid and is harmless.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, userID string, req *CheckoutRequest) (*CheckoutResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.CreateCheckoutSession")
	defer span.End()

	if len(req.Items) == 0 {
		util.CheckoutFailuresTotal.WithLabelValues("empty_cart").Inc()
		return nil, ErrEmptyCart
	}

	if req.TotalPrice < 0 || req.DiscountAmount < 0 || req.DiscountAmount > req.TotalPrice {
		util.CheckoutFailuresTotal.WithLabelValues("invalid_amounts").Inc()
		return nil, fmt.Errorf("invalid order amounts")
	}

	// Snapshot catalog state now. Later product edits must not change what
	// this order records.
	items := make([]models.OrderItem, 0, len(req.Items))
	lineItems := make([]gateway.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		product, err := s.store.GetProductByID(ctx, item.ProductID)
		if err != nil {
			util.CheckoutFailuresTotal.WithLabelValues("unknown_product").Inc()
			return nil, fmt.Errorf("failed to resolve cart item: %w", err)
		}

		image := ""
		if len(product.Images) > 0 {
			image = product.Images[0]
		}

		items = append(items, models.OrderItem{
			ID:        uuid.NewString(),
			ProductID: product.ID,
			Name:      product.Name,
			Image:     image,
			Qty:       item.Qty,
			UnitPrice: product.Price,
		})
		lineItems = append(lineItems, gateway.LineItem{
			Name:       product.Name,
			UnitAmount: product.Price,
			Quantity:   item.Qty,
			Currency:   "usd",
		})
	}

	order := &models.Order{
		ID:             uuid.NewString(),
		UserID:         userID,
		Address:        req.ShippingAddress,
		TotalPrice:     req.TotalPrice,
		DiscountAmount: req.DiscountAmount,
		IsPaid:         false,
		Status:         models.OrderStatusPending,
	}

	if err := s.store.CreateOrder(ctx, order, items); err != nil {
		util.CheckoutFailuresTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("Pending order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Int("items", len(items)))

	session, err := s.gateway.CreateCheckoutSession(ctx, gateway.SessionParams{
		LineItems:           lineItems,
		Metadata:            map[string]string{"order_id": order.ID},
		AllowPromotionCodes: true,
	})
	if err != nil {
		util.CheckoutFailuresTotal.WithLabelValues("gateway_error").Inc()
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	util.CheckoutSessionsTotal.Inc()

	itemData := make([]models.OrderItemData, 0, len(items))
	for _, it := range items {
		itemData = append(itemData, models.OrderItemData{
			ProductID: it.ProductID,
			Name:      it.Name,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice,
		})
	}
	event := &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeOrderCreated,
			Timestamp: time.Now(),
		},
		OrderID:    order.ID,
		UserID:     userID,
		TotalPrice: order.TotalPrice,
		Items:      itemData,
	}
	if err := s.publisher.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish order.created event", zap.Error(err))
	}

	return &CheckoutResponse{
		SessionID: session.ID,
		URL:       session.URL,
		OrderID:   order.ID,
	}, nil
}

// SyncStockCache seeds the Redis stock cache from the catalog
func (s *CheckoutService) SyncStockCache(ctx context.Context) error {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	for _, product := range products {
		if err := s.cache.InitStock(ctx, product.ID, product.Qty); err != nil {
			s.logger.Error("Failed to seed stock cache",
				zap.String("product_id", product.ID),
				zap.Error(err))
		}
	}

	s.logger.Info("Stock cache synced", zap.Int("count", len(products)))
	return nil
}
