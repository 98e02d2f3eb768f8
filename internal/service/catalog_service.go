package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// CatalogService is the customer's read-only drill-down:
// category → brand → product. Missing rows are empty results, not errors.
type CatalogService interface {
	Categories(ctx context.Context) ([]*domain.Category, error)
	Brands(ctx context.Context, categoryID uuid.UUID) ([]*domain.Brand, error)
	Products(ctx context.Context, brandID uuid.UUID) ([]*domain.Product, error)
	ProductDetail(ctx context.Context, productID uuid.UUID) (*domain.ProductDetail, bool, error)
}

type catalogService struct {
	categories repository.CategoryRepository
	brands     repository.BrandRepository
	products   repository.ProductRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	categories repository.CategoryRepository,
	brands repository.BrandRepository,
	products repository.ProductRepository,
) CatalogService {
	return &catalogService{categories: categories, brands: brands, products: products}
}

func (s *catalogService) Categories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *catalogService) Brands(ctx context.Context, categoryID uuid.UUID) ([]*domain.Brand, error) {
	brands, err := s.brands.ListActiveInCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	return brands, nil
}

func (s *catalogService) Products(ctx context.Context, brandID uuid.UUID) ([]*domain.Product, error) {
	products, err := s.products.ListActiveByBrand(ctx, brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *catalogService) ProductDetail(ctx context.Context, productID uuid.UUID) (*domain.ProductDetail, bool, error) {
	detail, err := s.products.FindDetail(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get product: %w", err)
	}
	return detail, true, nil
}
