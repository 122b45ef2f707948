package service

import (
	"context"
	"errors"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrDuplicateReview = errors.New("product already reviewed by this user")

// CatalogStore is the persistence surface the product service needs
type CatalogStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	ListLatestProducts(ctx context.Context, limit int) ([]models.Product, error)
	ListTopSellingProducts(ctx context.Context, limit int) ([]models.Product, error)
	SearchProducts(ctx context.Context, search store.ProductSearch) (*store.ProductSearchResult, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	CreateReview(ctx context.Context, r *models.Review) error
	GetReviewByID(ctx context.Context, id string) (*models.Review, error)
	ListReviews(ctx context.Context, productID string) ([]models.Review, error)
	UpdateReview(ctx context.Context, id string, rating int, comment string) error
	DeleteReview(ctx context.Context, id string) error
}

// CatalogCache keeps the hot stock counters in sync with the catalog
type CatalogCache interface {
	InitStock(ctx context.Context, productID string, qty int) error
}

type ProductService struct {
	store  CatalogStore
	cache  CatalogCache
	logger *zap.Logger
}

func NewProductService(st CatalogStore, cache CatalogCache) *ProductService {
	return &ProductService{
		store:  st,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// ProductInput carries the writable product fields
type ProductInput struct {
	Name        string   `json:"name" binding:"required"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Price       int64    `json:"price" binding:"required,gt=0"`
	Qty         int      `json:"qty" binding:"gte=0"`
}

// CreateProduct inserts a new catalog entry owned by the given seller
func (s *ProductService) CreateProduct(ctx context.Context, ownerID string, in ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.CreateProduct")
	defer span.End()

	p := &models.Product{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        in.Name,
		Brand:       in.Brand,
		Category:    in.Category,
		Description: in.Description,
		Images:      in.Images,
		Price:       in.Price,
		Qty:         in.Qty,
	}

	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	if err := s.cache.InitStock(ctx, p.ID, p.Qty); err != nil {
		s.logger.Warn("Failed to seed stock cache",
			zap.String("product_id", p.ID),
			zap.Error(err))
	}

	return p, nil
}

// GetProduct loads one product by id
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.store.GetProductByID(ctx, id)
}

// SearchProducts runs a filtered catalog search. Pagination comes straight
// off the query string, so it is clamped here before the store divides by
// the page size.
func (s *ProductService) SearchProducts(ctx context.Context, search store.ProductSearch) (*store.ProductSearchResult, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.SearchProducts")
	defer span.End()

	if search.Page < 1 {
		search.Page = 1
	}
	if search.PageSize < 1 || search.PageSize > 100 {
		search.PageSize = 12
	}
	if search.MinPrice < 0 {
		search.MinPrice = 0
	}
	if search.MaxPrice < 0 {
		search.MaxPrice = 0
	}

	return s.store.SearchProducts(ctx, search)
}

// LatestProducts returns the newest catalog entries
func (s *ProductService) LatestProducts(ctx context.Context, limit int) ([]models.Product, error) {
	if limit < 1 || limit > 50 {
		limit = 8
	}
	return s.store.ListLatestProducts(ctx, limit)
}

// TopSellingProducts returns the catalog ranked by units sold
func (s *ProductService) TopSellingProducts(ctx context.Context, limit int) ([]models.Product, error) {
	if limit < 1 || limit > 50 {
		limit = 8
	}
	return s.store.ListTopSellingProducts(ctx, limit)
}

// UpdateProduct applies edits to a product. Sellers may only edit their
// own products; admins may edit any.
func (s *ProductService) UpdateProduct(ctx context.Context, actor *models.User, id string, in ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.UpdateProduct")
	defer span.End()

	p, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin && p.OwnerID != actor.ID {
		return nil, ErrForbidden
	}

	p.Name = in.Name
	p.Brand = in.Brand
	p.Category = in.Category
	p.Description = in.Description
	p.Images = in.Images
	p.Price = in.Price
	p.Qty = in.Qty
	p.InStock = in.Qty > 0

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}

	if err := s.cache.InitStock(ctx, p.ID, p.Qty); err != nil {
		s.logger.Warn("Failed to refresh stock cache",
			zap.String("product_id", p.ID),
			zap.Error(err))
	}

	return p, nil
}

// DeleteProduct removes a product. Same ownership rule as UpdateProduct.
func (s *ProductService) DeleteProduct(ctx context.Context, actor *models.User, id string) error {
	ctx, span := util.StartSpan(ctx, "ProductService.DeleteProduct")
	defer span.End()

	p, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return err
	}

	if !actor.IsAdmin && p.OwnerID != actor.ID {
		return ErrForbidden
	}

	return s.store.DeleteProduct(ctx, id)
}

// ReviewInput carries the writable review fields
type ReviewInput struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"required"`
}

// CreateReview adds a review. Each user may review a product once.
func (s *ProductService) CreateReview(ctx context.Context, productID string, user *models.User, in ReviewInput) (*models.Review, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.CreateReview")
	defer span.End()

	if _, err := s.store.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}

	r := &models.Review{
		ID:        uuid.NewString(),
		ProductID: productID,
		UserID:    user.ID,
		Name:      user.Name,
		Rating:    in.Rating,
		Comment:   in.Comment,
	}

	if err := s.store.CreateReview(ctx, r); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateReview
		}
		return nil, err
	}

	util.ReviewsCreatedTotal.Inc()
	return r, nil
}

// ListReviews returns all reviews of one product
func (s *ProductService) ListReviews(ctx context.Context, productID string) ([]models.Review, error) {
	return s.store.ListReviews(ctx, productID)
}

// UpdateReview edits a review. Only its author may do so.
func (s *ProductService) UpdateReview(ctx context.Context, actor *models.User, reviewID string, in ReviewInput) error {
	ctx, span := util.StartSpan(ctx, "ProductService.UpdateReview")
	defer span.End()

	r, err := s.store.GetReviewByID(ctx, reviewID)
	if err != nil {
		return err
	}

	if r.UserID != actor.ID {
		return ErrForbidden
	}

	return s.store.UpdateReview(ctx, reviewID, in.Rating, in.Comment)
}

// DeleteReview removes a review. The author or an admin may do so.
func (s *ProductService) DeleteReview(ctx context.Context, actor *models.User, reviewID string) error {
	ctx, span := util.StartSpan(ctx, "ProductService.DeleteReview")
	defer span.End()

	r, err := s.store.GetReviewByID(ctx, reviewID)
	if err != nil {
		return err
	}

	if r.UserID != actor.ID && !actor.IsAdmin {
		return ErrForbidden
	}

	return s.store.DeleteReview(ctx, reviewID)
}
