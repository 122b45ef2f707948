package service

import (
	"context"
	"testing"

	"storefront/internal/models"
	"storefront/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalogStore struct {
	products map[string]*models.Product
	reviews  map[string]*models.Review

	lastSearch store.ProductSearch
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		products: make(map[string]*models.Product),
		reviews:  make(map[string]*models.Review),
	}
}

func (f *fakeCatalogStore) CreateProduct(ctx context.Context, p *models.Product) error {
	copied := *p
	f.products[p.ID] = &copied
	return nil
}

func (f *fakeCatalogStore) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeCatalogStore) ListLatestProducts(ctx context.Context, limit int) ([]models.Product, error) {
	return nil, nil
}

func (f *fakeCatalogStore) ListTopSellingProducts(ctx context.Context, limit int) ([]models.Product, error) {
	return nil, nil
}

func (f *fakeCatalogStore) SearchProducts(ctx context.Context, search store.ProductSearch) (*store.ProductSearchResult, error) {
	f.lastSearch = search
	count := len(f.products)
	// Same page arithmetic as the real store
	return &store.ProductSearchResult{
		Count: count,
		Page:  search.Page,
		Pages: (count + search.PageSize - 1) / search.PageSize,
	}, nil
}

func (f *fakeCatalogStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	if _, ok := f.products[p.ID]; !ok {
		return store.ErrNotFound
	}
	copied := *p
	f.products[p.ID] = &copied
	return nil
}

func (f *fakeCatalogStore) DeleteProduct(ctx context.Context, id string) error {
	delete(f.products, id)
	return nil
}

func (f *fakeCatalogStore) CreateReview(ctx context.Context, r *models.Review) error {
	for _, existing := range f.reviews {
		if existing.ProductID == r.ProductID && existing.UserID == r.UserID {
			return store.ErrDuplicate
		}
	}
	copied := *r
	f.reviews[r.ID] = &copied
	return nil
}

func (f *fakeCatalogStore) GetReviewByID(ctx context.Context, id string) (*models.Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeCatalogStore) ListReviews(ctx context.Context, productID string) ([]models.Review, error) {
	var out []models.Review
	for _, r := range f.reviews {
		if r.ProductID == productID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeCatalogStore) UpdateReview(ctx context.Context, id string, rating int, comment string) error {
	r, ok := f.reviews[id]
	if !ok {
		return store.ErrNotFound
	}
	r.Rating = rating
	r.Comment = comment
	return nil
}

func (f *fakeCatalogStore) DeleteReview(ctx context.Context, id string) error {
	delete(f.reviews, id)
	return nil
}

func newTestProductService() (*ProductService, *fakeCatalogStore, *fakeCache) {
	st := newFakeCatalogStore()
	cache := newFakeCache()
	return NewProductService(st, cache), st, cache
}

var (
	seller      = &models.User{ID: "seller-1", Name: "Sam", IsSeller: true}
	otherSeller = &models.User{ID: "seller-2", Name: "Olga", IsSeller: true}
	admin       = &models.User{ID: "admin-1", Name: "Ada", IsAdmin: true}
	shopper     = &models.User{ID: "user-1", Name: "Uma"}
)

func TestCreateProductSeedsStockCache(t *testing.T) {
	svc, st, cache := newTestProductService()

	p, err := svc.CreateProduct(context.Background(), seller.ID, ProductInput{
		Name:  "Widget",
		Price: 1500,
		Qty:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, seller.ID, p.OwnerID)
	assert.NotNil(t, st.products[p.ID])
	assert.Equal(t, 10, cache.stock[p.ID])
}

func TestUpdateProductOwnership(t *testing.T) {
	svc, _, _ := newTestProductService()

	p, err := svc.CreateProduct(context.Background(), seller.ID, ProductInput{
		Name:  "Widget",
		Price: 1500,
		Qty:   10,
	})
	require.NoError(t, err)

	in := ProductInput{Name: "Widget v2", Price: 2000, Qty: 5}

	_, err = svc.UpdateProduct(context.Background(), otherSeller, p.ID, in)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.UpdateProduct(context.Background(), seller, p.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", updated.Name)

	// Admins may edit anyone's product
	_, err = svc.UpdateProduct(context.Background(), admin, p.ID, in)
	assert.NoError(t, err)
}

func TestDeleteProductOwnership(t *testing.T) {
	svc, st, _ := newTestProductService()

	p, err := svc.CreateProduct(context.Background(), seller.ID, ProductInput{
		Name:  "Widget",
		Price: 1500,
		Qty:   10,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteProduct(context.Background(), otherSeller, p.ID), ErrForbidden)
	assert.NoError(t, svc.DeleteProduct(context.Background(), seller, p.ID))
	assert.NotContains(t, st.products, p.ID)
}

func TestSearchProductsClampsPagination(t *testing.T) {
	svc, st, _ := newTestProductService()
	_, err := svc.CreateProduct(context.Background(), seller.ID, ProductInput{
		Name:  "Widget",
		Price: 1500,
		Qty:   10,
	})
	require.NoError(t, err)

	// Garbage query strings parse to zeros; they must not reach the store,
	// where a zero page size divides the row count.
	result, err := svc.SearchProducts(context.Background(), store.ProductSearch{
		Page:     0,
		PageSize: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, st.lastSearch.Page)
	assert.Equal(t, 12, st.lastSearch.PageSize)
	assert.Equal(t, 1, result.Pages)

	// Negative values and absurd page sizes get the same treatment
	_, err = svc.SearchProducts(context.Background(), store.ProductSearch{
		Page:     -3,
		PageSize: 100000,
		MinPrice: -50,
		MaxPrice: -1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, st.lastSearch.Page)
	assert.Equal(t, 12, st.lastSearch.PageSize)
	assert.Equal(t, int64(0), st.lastSearch.MinPrice)
	assert.Equal(t, int64(0), st.lastSearch.MaxPrice)

	// In-range values pass through untouched
	_, err = svc.SearchProducts(context.Background(), store.ProductSearch{
		Page:     3,
		PageSize: 24,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, st.lastSearch.Page)
	assert.Equal(t, 24, st.lastSearch.PageSize)
}

func TestCreateReviewOncePerUser(t *testing.T) {
	svc, _, _ := newTestProductService()

	p, err := svc.CreateProduct(context.Background(), seller.ID, ProductInput{
		Name:  "Widget",
		Price: 1500,
		Qty:   10,
	})
	require.NoError(t, err)

	in := ReviewInput{Rating: 5, Comment: "Great widget"}

	review, err := svc.CreateReview(context.Background(), p.ID, shopper, in)
	require.NoError(t, err)
	assert.Equal(t, shopper.Name, review.Name)

	_, err = svc.CreateReview(context.Background(), p.ID, shopper, in)
	assert.ErrorIs(t, err, ErrDuplicateReview)

	// Another shopper still can review
	_, err = svc.CreateReview(context.Background(), p.ID, &models.User{ID: "user-2", Name: "Vic"}, in)
	assert.NoError(t, err)
}

func TestCreateReviewUnknownProduct(t *testing.T) {
	svc, _, _ := newTestProductService()

	_, err := svc.CreateReview(context.Background(), "missing", shopper, ReviewInput{Rating: 4, Comment: "ok"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateReviewAuthorOnly(t *testing.T) {
	svc, _, _ := newTestProductService()

	p, err := svc.CreateProduct(context.Background(), seller.ID, ProductInput{
		Name:  "Widget",
		Price: 1500,
		Qty:   10,
	})
	require.NoError(t, err)

	review, err := svc.CreateReview(context.Background(), p.ID, shopper, ReviewInput{Rating: 5, Comment: "Great"})
	require.NoError(t, err)

	in := ReviewInput{Rating: 2, Comment: "Broke after a week"}

	// Not even admins may rewrite someone else's words
	assert.ErrorIs(t, svc.UpdateReview(context.Background(), admin, review.ID, in), ErrForbidden)
	assert.NoError(t, svc.UpdateReview(context.Background(), shopper, review.ID, in))
}

func TestDeleteReviewAuthorOrAdmin(t *testing.T) {
	svc, st, _ := newTestProductService()

	p, err := svc.CreateProduct(context.Background(), seller.ID, ProductInput{
		Name:  "Widget",
		Price: 1500,
		Qty:   10,
	})
	require.NoError(t, err)

	review, err := svc.CreateReview(context.Background(), p.ID, shopper, ReviewInput{Rating: 1, Comment: "Spam"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteReview(context.Background(), otherSeller, review.ID), ErrForbidden)

	// Admins moderate
	assert.NoError(t, svc.DeleteReview(context.Background(), admin, review.ID))
	assert.NotContains(t, st.reviews, review.ID)
}
