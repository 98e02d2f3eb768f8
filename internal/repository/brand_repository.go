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
	ErrBrandNotFound      = errors.New("brand not found")
	ErrBrandAlreadyExists = errors.New("brand with this name already exists")
	ErrBrandInUse         = errors.New("brand still has products")
)

// BrandRepository defines the interface for brand data access
type BrandRepository interface {
	Create(ctx context.Context, brand *domain.Brand) error
	Update(ctx context.Context, brand *domain.Brand) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error)
	List(ctx context.Context) ([]*domain.Brand, error)
	ListActiveInCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Brand, error)
}

type brandRepository struct {
	db *sql.DB
}

// NewBrandRepository creates a new instance of BrandRepository
func NewBrandRepository(db *sql.DB) BrandRepository {
	return &brandRepository{db: db}
}

func (r *brandRepository) Create(ctx context.Context, brand *domain.Brand) error {
	query := `
		INSERT INTO brands (id, name, description, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, brand.ID, brand.Name, brand.Description, brand.IsActive, brand.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrBrandAlreadyExists
		}
		return fmt.Errorf("failed to create brand: %w", err)
	}

	return nil
}

func (r *brandRepository) Update(ctx context.Context, brand *domain.Brand) error {
	query := `
		UPDATE brands
		SET name = $2, description = $3, is_active = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, brand.ID, brand.Name, brand.Description, brand.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrBrandAlreadyExists
		}
		return fmt.Errorf("failed to update brand: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBrandNotFound
	}

	return nil
}

func (r *brandRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrBrandInUse
		}
		return fmt.Errorf("failed to delete brand: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBrandNotFound
	}

	return nil
}

func (r *brandRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	query := `
		SELECT id, name, description, is_active, created_at
		FROM brands
		WHERE id = $1
	`

	brand := &domain.Brand{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&brand.ID,
		&brand.Name,
		&brand.Description,
		&brand.IsActive,
		&brand.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBrandNotFound
		}
		return nil, fmt.Errorf("failed to find brand by ID: %w", err)
	}

	return brand, nil
}

func (r *brandRepository) List(ctx context.Context) ([]*domain.Brand, error) {
	return r.list(ctx, `SELECT id, name, description, is_active, created_at FROM brands ORDER BY name ASC`)
}

// ListActiveInCategory returns active brands that have at least one product in the category
func (r *brandRepository) ListActiveInCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Brand, error) {
	query := `
		SELECT b.id, b.name, b.description, b.is_active, b.created_at
		FROM brands b
		WHERE b.is_active
		  AND EXISTS (
		      SELECT 1 FROM products p
		      WHERE p.brand_id = b.id AND p.category_id = $1
		  )
		ORDER BY b.name ASC
	`
	return r.list(ctx, query, categoryID)
}

func (r *brandRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Brand, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	defer rows.Close()

	brands := []*domain.Brand{}
	for rows.Next() {
		brand := &domain.Brand{}
		if err := rows.Scan(&brand.ID, &brand.Name, &brand.Description, &brand.IsActive, &brand.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, brand)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating brands: %w", err)
	}

	return brands, nil
}
