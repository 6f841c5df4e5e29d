package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"marketplace/internal/database"
	"marketplace/internal/domain"
	"marketplace/internal/repository"
)

var memCounter int

func newTestService(t *testing.T) (*Service, *repository.ProductRepository) {
	t.Helper()
	memCounter++
	db, err := database.Connect(fmt.Sprintf("file:catalogtest%d?mode=memory&cache=shared", memCounter))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	repo := repository.NewProductRepository(db)
	return NewService(repo), repo
}

func seedProduct(t *testing.T, svc *Service, merchantID int64, name string, published bool) *domain.Product {
	t.Helper()
	p, err := svc.CreateProduct(context.Background(), merchantID, CreateProductRequest{
		Name:       name,
		Category:   "electronics",
		PriceCents: 1999,
		Currency:   "usd",
		Stock:      10,
		Published:  published,
	})
	require.NoError(t, err)
	return p
}

func TestCreateProduct_NormalizesCurrency(t *testing.T) {
	svc, _ := newTestService(t)

	p := seedProduct(t, svc, 1, "Gadget", true)

	assert.Equal(t, "USD", p.Currency)
	assert.NotZero(t, p.ID)
}

func TestCreateProduct_RejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, 1, CreateProductRequest{Name: "X", PriceCents: 0, Currency: "USD"})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = svc.CreateProduct(ctx, 1, CreateProductRequest{Name: "X", PriceCents: 100, Currency: "DOLLARS"})
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestUpdateProduct_OwnershipEnforced(t *testing.T) {
	svc, _ := newTestService(t)
	p := seedProduct(t, svc, 1, "Gadget", true)

	newName := "Renamed"
	_, err := svc.UpdateProduct(context.Background(), 2, p.ID, UpdateProductRequest{Name: &newName})

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateProduct_PartialUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	p := seedProduct(t, svc, 1, "Gadget", true)

	newPrice := int64(2999)
	updated, err := svc.UpdateProduct(context.Background(), 1, p.ID, UpdateProductRequest{PriceCents: &newPrice})

	require.NoError(t, err)
	assert.Equal(t, int64(2999), updated.PriceCents)
	assert.Equal(t, "Gadget", updated.Name)
}

func TestDeleteProduct_OwnershipEnforced(t *testing.T) {
	svc, _ := newTestService(t)
	p := seedProduct(t, svc, 1, "Gadget", true)

	assert.ErrorIs(t, svc.DeleteProduct(context.Background(), 2, p.ID), ErrForbidden)
	assert.NoError(t, svc.DeleteProduct(context.Background(), 1, p.ID))

	_, err := svc.GetPublishedProduct(context.Background(), p.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGetPublishedProduct_HidesUnpublished(t *testing.T) {
	svc, _ := newTestService(t)
	p := seedProduct(t, svc, 1, "Draft", false)

	_, err := svc.GetPublishedProduct(context.Background(), p.ID)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPublished_SearchIsCaseInsensitiveSubstring(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	seedProduct(t, svc, 1, "Wireless Headphones", true)
	seedProduct(t, svc, 1, "Wired Earbuds", true)
	seedProduct(t, svc, 1, "Hidden Headset", false)

	products, total, err := svc.ListPublished(ctx, repository.ProductFilters{Search: "HEAD", Limit: 20})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, products, 1)
	assert.Equal(t, "Wireless Headphones", products[0].Name)
}

func TestListPublished_PriceAndCategoryFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cheap, err := svc.CreateProduct(ctx, 1, CreateProductRequest{
		Name: "Mug", Category: "home", PriceCents: 500, Currency: "USD", Stock: 5, Published: true,
	})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, 1, CreateProductRequest{
		Name: "Lamp", Category: "home", PriceCents: 5000, Currency: "USD", Stock: 5, Published: true,
	})
	require.NoError(t, err)

	products, total, err := svc.ListPublished(ctx, repository.ProductFilters{
		Category: "home",
		MaxPrice: 1000,
		Limit:    20,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, products, 1)
	assert.Equal(t, cheap.ID, products[0].ID)
}

func TestDecrementStock_Conditional(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	p := seedProduct(t, svc, 1, "Limited", true)

	ok, err := repo.DecrementStock(ctx, nil, p.ID, 10)
	require.NoError(t, err)
	assert.True(t, ok)

	// Nothing left; the conditional update must refuse.
	ok, err = repo.DecrementStock(ctx, nil, p.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.RestoreStock(ctx, nil, p.ID, 3))
	ok, err = repo.DecrementStock(ctx, nil, p.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)
}
