package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"storefront/internal/models"
)

// CreateProduct inserts a new product. InStock is derived from Qty.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (id, owner_id, name, brand, category, description, images, price, qty, in_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9 > 0)
		RETURNING in_stock, total_sales, created_at, updated_at`

	return s.db.GetContext(ctx, p, query,
		p.ID, p.OwnerID, p.Name, p.Brand, p.Category, p.Description,
		p.Images, p.Price, p.Qty)
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := s.db.GetContext(ctx, &p, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts retrieves the whole catalog
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, "SELECT * FROM products ORDER BY created_at")
	return products, err
}

// ListLatestProducts retrieves the newest products
func (s *Store) ListLatestProducts(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products ORDER BY created_at DESC LIMIT $1", limit)
	return products, err
}

// ListTopSellingProducts retrieves products by descending total sales
func (s *Store) ListTopSellingProducts(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products ORDER BY total_sales DESC LIMIT $1", limit)
	return products, err
}

// ProductSearch describes a catalog search
type ProductSearch struct {
	Query     string
	Category  string
	Brand     string
	SortOrder string // low, high, rating, latest
	MinPrice  int64
	MaxPrice  int64 // 0 means unbounded
	Page      int
	PageSize  int
}

// ProductSearchResult is a page of matching products plus facet data
type ProductSearchResult struct {
	Products   []models.Product `json:"products"`
	Count      int              `json:"count"`
	Page       int              `json:"page"`
	Pages      int              `json:"pages"`
	Categories []string         `json:"categories"`
	Brands     []string         `json:"brands"`
}

// SearchProducts runs a filtered, sorted, paginated catalog query
func (s *Store) SearchProducts(ctx context.Context, search ProductSearch) (*ProductSearchResult, error) {
	where := []string{"($1 = '' OR p.name ILIKE '%' || $1 || '%')",
		"($2 = '' OR p.category = $2)",
		"($3 = '' OR p.brand = $3)",
		"p.price >= $4",
		"($5 = 0 OR p.price <= $5)"}
	args := []interface{}{search.Query, search.Category, search.Brand, search.MinPrice, search.MaxPrice}
	cond := strings.Join(where, " AND ")

	var orderBy string
	switch search.SortOrder {
	case "low":
		orderBy = "p.price ASC"
	case "high":
		orderBy = "p.price DESC"
	case "rating":
		orderBy = "COALESCE(rv.avg_rating, 0) DESC"
	case "latest":
		orderBy = "p.created_at DESC"
	default:
		orderBy = "p.created_at ASC"
	}

	query := fmt.Sprintf(`
		SELECT p.* FROM products p
		LEFT JOIN (
			SELECT product_id, AVG(rating) AS avg_rating FROM reviews GROUP BY product_id
		) rv ON rv.product_id = p.id
		WHERE %s
		ORDER BY %s
		LIMIT $6 OFFSET $7`, cond, orderBy)

	var products []models.Product
	err := s.db.SelectContext(ctx, &products, query,
		append(args, search.PageSize, search.PageSize*(search.Page-1))...)
	if err != nil {
		return nil, err
	}

	var count int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products p WHERE %s", cond)
	if err := s.db.GetContext(ctx, &count, countQuery, args...); err != nil {
		return nil, err
	}

	var categories, brands []string
	if err := s.db.SelectContext(ctx, &categories,
		"SELECT DISTINCT category FROM products ORDER BY category"); err != nil {
		return nil, err
	}
	if err := s.db.SelectContext(ctx, &brands,
		"SELECT DISTINCT brand FROM products ORDER BY brand"); err != nil {
		return nil, err
	}

	pages := (count + search.PageSize - 1) / search.PageSize

	return &ProductSearchResult{
		Products:   products,
		Count:      count,
		Page:       search.Page,
		Pages:      pages,
		Categories: categories,
		Brands:     brands,
	}, nil
}

// UpdateProduct replaces mutable product fields. InStock is recomputed from
// the new quantity in the same statement.
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1, brand = $2, category = $3, description = $4,
		    images = $5, price = $6, qty = $7, in_stock = $7 > 0, updated_at = NOW()
		WHERE id = $8`,
		p.Name, p.Brand, p.Category, p.Description, p.Images, p.Price, p.Qty, p.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("product %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

// DeleteProduct removes a product and its reviews
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// ApplyProductSale records a confirmed sale: quantity decremented as a
// relative adjustment floored at zero, total sales incremented by the
// purchased quantity, in-stock flag recomputed. One atomic statement so
// concurrent confirmations cannot lose updates.
func (s *Store) ApplyProductSale(ctx context.Context, productID string, qty int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET qty = GREATEST(qty - $1, 0),
		    total_sales = total_sales + $1,
		    in_stock = GREATEST(qty - $1, 0) > 0,
		    updated_at = NOW()
		WHERE id = $2`,
		qty, productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	return nil
}

// CreateReview inserts a review. The (product_id, user_id) unique constraint
// enforces one review per user per product.
func (s *Store) CreateReview(ctx context.Context, r *models.Review) error {
	query := `
		INSERT INTO reviews (id, product_id, user_id, name, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := s.db.GetContext(ctx, r, query,
		r.ID, r.ProductID, r.UserID, r.Name, r.Rating, r.Comment)
	if isUniqueViolation(err) {
		return fmt.Errorf("review by user %s on product %s: %w", r.UserID, r.ProductID, ErrDuplicate)
	}
	return err
}

// GetReviewByID retrieves a single review
func (s *Store) GetReviewByID(ctx context.Context, id string) (*models.Review, error) {
	var r models.Review
	err := s.db.GetContext(ctx, &r, "SELECT * FROM reviews WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("review %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReviews retrieves all reviews for a product, newest first
func (s *Store) ListReviews(ctx context.Context, productID string) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.SelectContext(ctx, &reviews,
		"SELECT * FROM reviews WHERE product_id = $1 ORDER BY created_at DESC", productID)
	return reviews, err
}

// UpdateReview replaces the rating and comment of an existing review
func (s *Store) UpdateReview(ctx context.Context, id string, rating int, comment string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE reviews SET rating = $1, comment = $2, updated_at = NOW() WHERE id = $3",
		rating, comment, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("review %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteReview removes a review
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("review %s: %w", id, ErrNotFound)
	}
	return nil
}
