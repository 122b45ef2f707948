package service

import (
	"context"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// OrderStore is the persistence surface the order service needs
type OrderStore interface {
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	MarkOrderPaid(ctx context.Context, orderID string) (bool, error)
	DeleteOrder(ctx context.Context, id string) error
}

// OrderService handles order queries and admin operations. Paid
// transitions driven by the payment provider live in CheckoutService.
type OrderService struct {
	store  OrderStore
	logger *zap.Logger
}

func NewOrderService(st OrderStore) *OrderService {
	return &OrderService{
		store:  st,
		logger: util.GetLogger(),
	}
}

// OrderDetail is an order with its line items
type OrderDetail struct {
	models.Order
	Items []models.OrderItem `json:"items"`
}

// GetOrder loads one order with its items. Regular users may only see
// their own orders; admins may see any.
func (s *OrderService) GetOrder(ctx context.Context, actor *models.User, id string) (*OrderDetail, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin && order.UserID != actor.ID {
		return nil, ErrForbidden
	}

	items, err := s.store.GetOrderItems(ctx, id)
	if err != nil {
		return nil, err
	}

	return &OrderDetail{Order: *order, Items: items}, nil
}

// ListUserOrders returns the caller's orders, newest first
func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListUserOrders")
	defer span.End()
	return s.store.ListOrdersByUser(ctx, userID)
}

// ListOrders returns every order, newest first. Admin only.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()
	return s.store.ListOrders(ctx)
}

// MarkPaidManually flips a pending order to paid at its stored amounts,
// for payments settled outside the gateway. The conditional update makes
// the call idempotent: a second call reports false.
func (s *OrderService) MarkPaidManually(ctx context.Context, orderID string) (bool, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.MarkPaidManually")
	defer span.End()

	updated, err := s.store.MarkOrderPaid(ctx, orderID)
	if err != nil {
		return false, err
	}

	if updated {
		util.OrdersPaidTotal.Inc()
		s.logger.Info("Order marked paid manually", zap.String("order_id", orderID))
	}

	return updated, nil
}

// DeleteOrder removes an order and its items. Admin only.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	ctx, span := util.StartSpan(ctx, "OrderService.DeleteOrder")
	defer span.End()

	if _, err := s.store.GetOrderByID(ctx, id); err != nil {
		return err
	}

	return s.store.DeleteOrder(ctx, id)
}
