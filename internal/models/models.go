package models

import (
	"time"

	"github.com/lib/pq"
)

// User represents a customer or staff account
type User struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	Password   string    `db:"password" json:"-"`
	IsAdmin    bool      `db:"is_admin" json:"is_admin"`
	IsSeller   bool      `db:"is_seller" json:"is_seller"`
	IsVerified bool      `db:"is_verified" json:"is_verified"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Product represents a catalog entry. InStock is derived from Qty and
// recomputed inside every statement that mutates Qty.
type Product struct {
	ID          string         `db:"id" json:"id"`
	OwnerID     string         `db:"owner_id" json:"owner_id"`
	Name        string         `db:"name" json:"name"`
	Brand       string         `db:"brand" json:"brand"`
	Category    string         `db:"category" json:"category"`
	Description string         `db:"description" json:"description"`
	Images      pq.StringArray `db:"images" json:"images"`
	Price       int64          `db:"price" json:"price"`
	Qty         int            `db:"qty" json:"qty"`
	InStock     bool           `db:"in_stock" json:"in_stock"`
	TotalSales  int64          `db:"total_sales" json:"total_sales"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Review represents a product review; one per (product, user) pair.
type Review struct {
	ID        string    `db:"id" json:"id"`
	ProductID string    `db:"product_id" json:"product_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Address is the shipping address embedded in an order.
type Address struct {
	Street     string `db:"ship_street" json:"street"`
	Apartment  string `db:"ship_apartment" json:"apartment,omitempty"`
	City       string `db:"ship_city" json:"city"`
	State      string `db:"ship_state" json:"state,omitempty"`
	Country    string `db:"ship_country" json:"country"`
	PostalCode string `db:"ship_postal_code" json:"postal_code"`
}

// UserAddress is a saved entry in a user's address book. Orders copy the
// chosen address into their own ship_* columns, so editing a saved address
// never rewrites order history.
type UserAddress struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Street     string    `db:"street" json:"street"`
	Apartment  string    `db:"apartment" json:"apartment,omitempty"`
	City       string    `db:"city" json:"city"`
	State      string    `db:"state" json:"state,omitempty"`
	Country    string    `db:"country" json:"country"`
	PostalCode string    `db:"postal_code" json:"postal_code"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Order represents a customer order. Amounts are integer cents. Address is
// embedded so its ship_* columns scan directly off the orders table.
type Order struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"user_id"`
	Address
	TotalPrice     int64     `db:"total_price" json:"total_price"`
	DiscountAmount int64     `db:"discount_amount" json:"discount_amount"`
	IsPaid         bool      `db:"is_paid" json:"is_paid"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem is a line item snapshot taken at order creation. Name, image
// and unit price are frozen copies, not live product references.
type OrderItem struct {
	ID        string `db:"id" json:"id"`
	OrderID   string `db:"order_id" json:"order_id"`
	ProductID string `db:"product_id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	Image     string `db:"image" json:"image"`
	Qty       int    `db:"qty" json:"qty"`
	UnitPrice int64  `db:"unit_price" json:"unit_price"`
}

// Order statuses. The only valid transition is pending -> paid.
const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
)
