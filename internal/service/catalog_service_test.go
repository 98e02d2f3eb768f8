package service

import (
	"context"
	"testing"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductDetailNotFoundIsEmptyResult(t *testing.T) {
	svc := NewCatalogService(newMockCategoryRepository(), newMockBrandRepository(), newMockProductRepository())

	detail, found, err := svc.ProductDetail(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, detail)
}

func TestCatalogDrillDown(t *testing.T) {
	categories := newMockCategoryRepository()
	products := newMockProductRepository()
	svc := NewCatalogService(categories, newMockBrandRepository(), products)
	ctx := context.Background()

	active := &domain.Category{ID: uuid.New(), Name: "Phones", IsActive: true}
	hidden := &domain.Category{ID: uuid.New(), Name: "Archive"}
	categories.categories[active.ID] = active
	categories.categories[hidden.ID] = hidden

	brandID := uuid.New()
	phone := &domain.Product{ID: uuid.New(), Name: "iPhone", Price: decimal.NewFromInt(1000), Quantity: 2,
		IsActive: true, CategoryID: active.ID, BrandID: brandID}
	products.products[phone.ID] = phone

	list, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Phones", list[0].Name)

	byBrand, err := svc.Products(ctx, brandID)
	require.NoError(t, err)
	require.Len(t, byBrand, 1)

	detail, found, err := svc.ProductDetail(ctx, phone.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Apple", detail.BrandName)
	assert.Equal(t, domain.StockLow, domain.StockStatusOf(&detail.Product))
}

func TestResolveUserIsIdempotent(t *testing.T) {
	users := newMockUserRepository()
	svc := NewUserService(users)
	ctx := context.Background()

	first, err := svc.Resolve(ctx, TelegramProfile{TelegramID: 5, FirstName: "Ann"})
	require.NoError(t, err)
	second, err := svc.Resolve(ctx, TelegramProfile{TelegramID: 5, FirstName: "Anna", Username: "anna"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	stored, err := svc.GetUserByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "anna", stored.Username)

	_, err = svc.Resolve(ctx, TelegramProfile{})
	assert.True(t, IsValidationError(err))
}

func TestCartServiceRejectsNonPositiveQuantity(t *testing.T) {
	svc := NewCartService(nil)

	err := svc.Add(context.Background(), uuid.New(), uuid.New(), 0)

	assert.True(t, IsValidationError(err))
}
