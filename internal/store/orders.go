package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/models"
)

// CreateOrder inserts an order and its line-item snapshot in one transaction
func (s *Store) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (id, user_id, ship_street, ship_apartment, ship_city,
			ship_state, ship_country, ship_postal_code, total_price, discount_amount, is_paid, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	addr := order.Address
	if err := tx.GetContext(ctx, order, query,
		order.ID, order.UserID,
		addr.Street, addr.Apartment, addr.City, addr.State, addr.Country, addr.PostalCode,
		order.TotalPrice, order.DiscountAmount, order.IsPaid, order.Status); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, image, qty, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			items[i].ID, items[i].OrderID, items[i].ProductID,
			items[i].Name, items[i].Image, items[i].Qty, items[i].UnitPrice)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderItems retrieves the line-item snapshot of an order
func (s *Store) GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1", orderID)
	return items, err
}

// ListOrdersByUser retrieves a user's orders, newest first
func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// ListOrders retrieves all orders, newest first
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, "SELECT * FROM orders ORDER BY created_at DESC")
	return orders, err
}

// MarkOrderPaid performs the one-way pending->paid transition as a
// conditional update. Returns false when the order is missing or already
// paid, which lets concurrent webhook deliveries race safely: exactly one
// wins the transition.
func (s *Store) MarkOrderPaid(ctx context.Context, orderID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET is_paid = TRUE, status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`,
		models.OrderStatusPaid, orderID, models.OrderStatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkOrderPaidWithAmounts is MarkOrderPaid plus the gateway's authoritative
// totals: promotion codes are validated gateway-side, so the session's
// discounted amounts overwrite the ones captured at checkout.
func (s *Store) MarkOrderPaidWithAmounts(ctx context.Context, orderID string, totalPrice, discountAmount int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET is_paid = TRUE, status = $1, total_price = $2,
			discount_amount = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5`,
		models.OrderStatusPaid, totalPrice, discountAmount, orderID, models.OrderStatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteOrder removes an order and its items
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return nil
}
