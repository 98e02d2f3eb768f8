package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductInput is an admin create or update of a product
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	ImageURL    string
	IsActive    bool
	CategoryID  uuid.UUID
	BrandID     uuid.UUID
}

// GroupInput is an admin create or update of a category or brand
type GroupInput struct {
	Name        string
	Description string
	IsActive    bool
}

// InventoryService is the admin side of the catalog
type InventoryService interface {
	ListProducts(ctx context.Context) ([]*domain.ProductDetail, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.ProductDetail, error)
	CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	ListCategories(ctx context.Context) ([]*domain.Category, error)
	CreateCategory(ctx context.Context, in GroupInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, in GroupInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListBrands(ctx context.Context) ([]*domain.Brand, error)
	CreateBrand(ctx context.Context, in GroupInput) (*domain.Brand, error)
	UpdateBrand(ctx context.Context, id uuid.UUID, in GroupInput) (*domain.Brand, error)
	DeleteBrand(ctx context.Context, id uuid.UUID) error
}

type inventoryService struct {
	categories repository.CategoryRepository
	brands     repository.BrandRepository
	products   repository.ProductRepository
	now        func() time.Time
}

// NewInventoryService creates a new instance of InventoryService
func NewInventoryService(
	categories repository.CategoryRepository,
	brands repository.BrandRepository,
	products repository.ProductRepository,
) InventoryService {
	return &inventoryService{categories: categories, brands: brands, products: products, now: time.Now}
}

func (in ProductInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return invalid("name", "is required")
	case in.Price.IsNegative():
		return invalid("price", "must not be negative")
	case in.Quantity < 0:
		return invalid("quantity", "must not be negative")
	case in.CategoryID == uuid.Nil:
		return invalid("category_id", "is required")
	case in.BrandID == uuid.Nil:
		return invalid("brand_id", "is required")
	}
	return nil
}

func (in GroupInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "is required")
	}
	return nil
}

// wrapUpdate keeps domain and lookup errors matchable and tags storage failures
func wrapUpdate(err error, known ...error) error {
	for _, k := range known {
		if errors.Is(err, k) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrUpdateFailed, err)
}

func (s *inventoryService) ListProducts(ctx context.Context) ([]*domain.ProductDetail, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *inventoryService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.ProductDetail, error) {
	return s.products.FindDetail(ctx, id)
}

func (s *inventoryService) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	product := &domain.Product{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	in.apply(product)

	if err := s.products.Create(ctx, product); err != nil {
		return nil, wrapUpdate(err, repository.ErrReferenceNotFound)
	}
	return product, nil
}

func (s *inventoryService) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, wrapUpdate(err, repository.ErrProductNotFound)
	}
	in.apply(product)

	if err := s.products.Update(ctx, product); err != nil {
		return nil, wrapUpdate(err, repository.ErrProductNotFound, repository.ErrReferenceNotFound)
	}
	return product, nil
}

func (in ProductInput) apply(p *domain.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price.Round(2)
	p.Quantity = in.Quantity
	p.ImageURL = in.ImageURL
	p.IsActive = in.IsActive
	p.CategoryID = in.CategoryID
	p.BrandID = in.BrandID
}

func (s *inventoryService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return wrapUpdate(err, repository.ErrProductNotFound)
	}
	return nil
}

func (s *inventoryService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *inventoryService) CreateCategory(ctx context.Context, in GroupInput) (*domain.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	category := &domain.Category{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		IsActive:    in.IsActive,
		CreatedAt:   s.now(),
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, wrapUpdate(err, repository.ErrCategoryAlreadyExists)
	}
	return category, nil
}

func (s *inventoryService) UpdateCategory(ctx context.Context, id uuid.UUID, in GroupInput) (*domain.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, wrapUpdate(err, repository.ErrCategoryNotFound)
	}
	category.Name = strings.TrimSpace(in.Name)
	category.Description = in.Description
	category.IsActive = in.IsActive

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, wrapUpdate(err, repository.ErrCategoryNotFound, repository.ErrCategoryAlreadyExists)
	}
	return category, nil
}

func (s *inventoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return wrapUpdate(err, repository.ErrCategoryNotFound, repository.ErrCategoryInUse)
	}
	return nil
}

func (s *inventoryService) ListBrands(ctx context.Context) ([]*domain.Brand, error) {
	brands, err := s.brands.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	return brands, nil
}

func (s *inventoryService) CreateBrand(ctx context.Context, in GroupInput) (*domain.Brand, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	brand := &domain.Brand{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		IsActive:    in.IsActive,
		CreatedAt:   s.now(),
	}
	if err := s.brands.Create(ctx, brand); err != nil {
		return nil, wrapUpdate(err, repository.ErrBrandAlreadyExists)
	}
	return brand, nil
}

func (s *inventoryService) UpdateBrand(ctx context.Context, id uuid.UUID, in GroupInput) (*domain.Brand, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	brand, err := s.brands.FindByID(ctx, id)
	if err != nil {
		return nil, wrapUpdate(err, repository.ErrBrandNotFound)
	}
	brand.Name = strings.TrimSpace(in.Name)
	brand.Description = in.Description
	brand.IsActive = in.IsActive

	if err := s.brands.Update(ctx, brand); err != nil {
		return nil, wrapUpdate(err, repository.ErrBrandNotFound, repository.ErrBrandAlreadyExists)
	}
	return brand, nil
}

func (s *inventoryService) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	if err := s.brands.Delete(ctx, id); err != nil {
		return wrapUpdate(err, repository.ErrBrandNotFound, repository.ErrBrandInUse)
	}
	return nil
}
