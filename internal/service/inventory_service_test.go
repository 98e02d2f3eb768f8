package service

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInventory() (*inventoryService, *mockCategoryRepository, *mockBrandRepository, *mockProductRepository) {
	categories := newMockCategoryRepository()
	brands := newMockBrandRepository()
	products := newMockProductRepository()
	svc := NewInventoryService(categories, brands, products).(*inventoryService)
	return svc, categories, brands, products
}

func validProduct() ProductInput {
	return ProductInput{
		Name:       "  iPhone 15 ",
		Price:      decimal.RequireFromString("999.999"),
		Quantity:   3,
		IsActive:   true,
		CategoryID: uuid.New(),
		BrandID:    uuid.New(),
	}
}

func TestProperty_NegativePriceOrQuantityRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("negative price or quantity never reaches the repository", prop.ForAll(
		func(cents int64, qty int) bool {
			svc, _, _, products := newTestInventory()
			in := validProduct()
			in.Price = decimal.New(cents, -2)
			in.Quantity = qty

			_, err := svc.CreateProduct(context.Background(), in)

			valid := cents >= 0 && qty >= 0
			if valid {
				return err == nil && len(products.products) == 1
			}
			return IsValidationError(err) && len(products.products) == 0
		},
		gen.Int64Range(-100000, 100000),
		gen.IntRange(-50, 50),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCreateProductNormalisesInput(t *testing.T) {
	svc, _, _, _ := newTestInventory()

	product, err := svc.CreateProduct(context.Background(), validProduct())
	require.NoError(t, err)

	assert.Equal(t, "iPhone 15", product.Name)
	assert.Equal(t, "1000", product.Price.String())
	assert.NotEqual(t, uuid.Nil, product.ID)
}

func TestCreateProductValidatesRequiredFields(t *testing.T) {
	svc, _, _, _ := newTestInventory()

	in := validProduct()
	in.Name = " "
	_, err := svc.CreateProduct(context.Background(), in)
	assert.True(t, IsValidationError(err))

	in = validProduct()
	in.BrandID = uuid.Nil
	_, err = svc.CreateProduct(context.Background(), in)
	var v *ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "brand_id", v.Field)
}

func TestProductErrorsKeepTheirMeaning(t *testing.T) {
	svc, _, _, products := newTestInventory()
	ctx := context.Background()

	_, err := svc.UpdateProduct(ctx, uuid.New(), validProduct())
	assert.ErrorIs(t, err, repository.ErrProductNotFound)

	products.err = repository.ErrReferenceNotFound
	_, err = svc.CreateProduct(ctx, validProduct())
	assert.ErrorIs(t, err, repository.ErrReferenceNotFound)
	assert.NotErrorIs(t, err, ErrUpdateFailed)

	products.err = errors.New("disk full")
	_, err = svc.CreateProduct(ctx, validProduct())
	assert.ErrorIs(t, err, ErrUpdateFailed)
}

func TestUpdateProductKeepsIdentity(t *testing.T) {
	svc, _, _, products := newTestInventory()
	ctx := context.Background()
	created, err := svc.CreateProduct(ctx, validProduct())
	require.NoError(t, err)

	in := validProduct()
	in.Name = "iPhone 15 Pro"
	in.Quantity = 0
	updated, err := svc.UpdateProduct(ctx, created.ID, in)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, 0, products.products[created.ID].Quantity)
	assert.Equal(t, domain.StockSoldOut, domain.StockStatusOf(products.products[created.ID]))
}

func TestCategoryCrud(t *testing.T) {
	svc, categories, _, _ := newTestInventory()
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, GroupInput{Name: ""})
	assert.True(t, IsValidationError(err))

	phones, err := svc.CreateCategory(ctx, GroupInput{Name: "Phones", IsActive: true})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, GroupInput{Name: "Phones"})
	assert.ErrorIs(t, err, repository.ErrCategoryAlreadyExists)

	updated, err := svc.UpdateCategory(ctx, phones.ID, GroupInput{Name: "Smartphones", IsActive: false})
	require.NoError(t, err)
	assert.Equal(t, "Smartphones", categories.categories[phones.ID].Name)
	assert.False(t, updated.IsActive)

	require.NoError(t, svc.DeleteCategory(ctx, phones.ID))
	assert.ErrorIs(t, svc.DeleteCategory(ctx, phones.ID), repository.ErrCategoryNotFound)
}

func TestBrandCrud(t *testing.T) {
	svc, _, brands, _ := newTestInventory()
	ctx := context.Background()

	apple, err := svc.CreateBrand(ctx, GroupInput{Name: "Apple", Description: "Cupertino", IsActive: true})
	require.NoError(t, err)
	assert.Len(t, brands.brands, 1)

	_, err = svc.UpdateBrand(ctx, uuid.New(), GroupInput{Name: "Nope"})
	assert.ErrorIs(t, err, repository.ErrBrandNotFound)

	list, err := svc.ListBrands(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, apple.ID, list[0].ID)

	require.NoError(t, svc.DeleteBrand(ctx, apple.ID))
}
