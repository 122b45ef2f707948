package service

import (
	"context"
	"testing"

	"storefront/internal/models"
	"storefront/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderStore struct {
	orders map[string]*models.Order
	items  map[string][]models.OrderItem
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders: make(map[string]*models.Order),
		items:  make(map[string][]models.OrderItem),
	}
}

func (f *fakeOrderStore) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderStore) GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	return f.items[orderID], nil
}

func (f *fakeOrderStore) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var out []models.Order
	for _, order := range f.orders {
		if order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	for _, order := range f.orders {
		out = append(out, *order)
	}
	return out, nil
}

func (f *fakeOrderStore) MarkOrderPaid(ctx context.Context, orderID string) (bool, error) {
	order, ok := f.orders[orderID]
	if !ok || order.Status != models.OrderStatusPending {
		return false, nil
	}
	order.Status = models.OrderStatusPaid
	order.IsPaid = true
	return true, nil
}

func (f *fakeOrderStore) DeleteOrder(ctx context.Context, id string) error {
	delete(f.orders, id)
	delete(f.items, id)
	return nil
}

func TestGetOrderOwnership(t *testing.T) {
	st := newFakeOrderStore()
	st.orders["o1"] = &models.Order{ID: "o1", UserID: "user-1", Status: models.OrderStatusPending}
	st.items["o1"] = []models.OrderItem{{ID: "i1", OrderID: "o1", Qty: 2}}
	svc := NewOrderService(st)

	owner := &models.User{ID: "user-1"}
	stranger := &models.User{ID: "user-2"}
	moderator := &models.User{ID: "admin-1", IsAdmin: true}

	detail, err := svc.GetOrder(context.Background(), owner, "o1")
	require.NoError(t, err)
	assert.Len(t, detail.Items, 1)

	_, err = svc.GetOrder(context.Background(), stranger, "o1")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetOrder(context.Background(), moderator, "o1")
	assert.NoError(t, err)

	_, err = svc.GetOrder(context.Background(), owner, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMarkPaidManuallyIsIdempotent(t *testing.T) {
	st := newFakeOrderStore()
	st.orders["o1"] = &models.Order{ID: "o1", UserID: "user-1", Status: models.OrderStatusPending}
	svc := NewOrderService(st)

	updated, err := svc.MarkPaidManually(context.Background(), "o1")
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, models.OrderStatusPaid, st.orders["o1"].Status)

	updated, err = svc.MarkPaidManually(context.Background(), "o1")
	require.NoError(t, err)
	assert.False(t, updated)

	updated, err = svc.MarkPaidManually(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestDeleteOrder(t *testing.T) {
	st := newFakeOrderStore()
	st.orders["o1"] = &models.Order{ID: "o1", UserID: "user-1", Status: models.OrderStatusPending}
	svc := NewOrderService(st)

	assert.ErrorIs(t, svc.DeleteOrder(context.Background(), "missing"), store.ErrNotFound)
	assert.NoError(t, svc.DeleteOrder(context.Background(), "o1"))
	assert.NotContains(t, st.orders, "o1")
}
