package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*domain.ProductDetail, error)
	List(ctx context.Context) ([]*domain.ProductDetail, error)
	ListActiveByBrand(ctx context.Context, brandID uuid.UUID) ([]*domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `p.id, p.name, p.description, p.price, p.quantity, p.image_url,
	p.is_active, p.category_id, p.brand_id, p.created_at, p.updated_at`

func scanProduct(row interface{ Scan(...any) error }, product *domain.Product, extra ...any) error {
	dest := []any{
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Quantity,
		&product.ImageURL,
		&product.IsActive,
		&product.CategoryID,
		&product.BrandID,
		&product.CreatedAt,
		&product.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, description, price, quantity, image_url, is_active,
		                      category_id, brand_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Quantity,
		product.ImageURL,
		product.IsActive,
		product.CategoryID,
		product.BrandID,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrReferenceNotFound
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update overwrites a product. Orders keep their own snapshot of name and price.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, quantity = $5, image_url = $6,
		    is_active = $7, category_id = $8, brand_id = $9
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Quantity,
		product.ImageURL,
		product.IsActive,
		product.CategoryID,
		product.BrandID,
	).Scan(&product.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		if isForeignKeyViolation(err) {
			return ErrReferenceNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product; cart lines go with it and order lines keep their snapshot
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`

	product := &domain.Product{}
	if err := scanProduct(r.db.QueryRowContext(ctx, query, id), product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindDetail retrieves a product with its category and brand names
func (r *productRepository) FindDetail(ctx context.Context, id uuid.UUID) (*domain.ProductDetail, error) {
	query := `
		SELECT ` + productColumns + `, c.name, b.name
		FROM products p
		JOIN categories c ON c.id = p.category_id
		JOIN brands b ON b.id = p.brand_id
		WHERE p.id = $1
	`

	detail := &domain.ProductDetail{}
	err := scanProduct(r.db.QueryRowContext(ctx, query, id), &detail.Product, &detail.CategoryName, &detail.BrandName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product detail: %w", err)
	}

	return detail, nil
}

// List retrieves every product with names resolved, for the admin console
func (r *productRepository) List(ctx context.Context) ([]*domain.ProductDetail, error) {
	query := `
		SELECT ` + productColumns + `, c.name, b.name
		FROM products p
		JOIN categories c ON c.id = p.category_id
		JOIN brands b ON b.id = p.brand_id
		ORDER BY c.name, b.name, p.name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.ProductDetail{}
	for rows.Next() {
		detail := &domain.ProductDetail{}
		if err := scanProduct(rows, &detail.Product, &detail.CategoryName, &detail.BrandName); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, detail)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// ListActiveByBrand returns the brand's active products ordered by name
func (r *productRepository) ListActiveByBrand(ctx context.Context, brandID uuid.UUID) ([]*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		WHERE p.brand_id = $1 AND p.is_active
		ORDER BY p.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product := &domain.Product{}
		if err := scanProduct(rows, product); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}
