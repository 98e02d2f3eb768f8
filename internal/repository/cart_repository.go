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
	ErrCartItemNotFound = errors.New("cart item not found")
)

// CartRepository stores cart lines. Every method is scoped to the owning
// user and is a single statement, so each call is atomic on its own.
type CartRepository interface {
	Add(ctx context.Context, userID, productID uuid.UUID, qty int) (uuid.UUID, error)
	Increase(ctx context.Context, userID, lineID uuid.UUID) error
	Decrease(ctx context.Context, userID, lineID uuid.UUID) error
	Remove(ctx context.Context, userID, lineID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// Add puts qty units of a product in the cart, merging with an existing line.
// The product must be active with at least qty units on hand; stock is not reserved.
func (r *cartRepository) Add(ctx context.Context, userID, productID uuid.UUID, qty int) (uuid.UUID, error) {
	query := `
		INSERT INTO cart_items (id, user_id, product_id, quantity)
		SELECT $1, $2, p.id, $4
		FROM products p
		WHERE p.id = $3 AND p.is_active AND p.quantity >= $4
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id
	`

	var lineID uuid.UUID
	err := r.db.QueryRowContext(ctx, query, uuid.New(), userID, productID, qty).Scan(&lineID)
	if err == nil {
		return lineID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	exists, err := r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID)
	if err != nil {
		return uuid.Nil, err
	}
	if !exists {
		return uuid.Nil, ErrProductNotFound
	}
	return uuid.Nil, domain.ErrOutOfStock
}

// Increase adds one unit while stock on hand still covers the new quantity
func (r *cartRepository) Increase(ctx context.Context, userID, lineID uuid.UUID) error {
	query := `
		UPDATE cart_items c
		SET quantity = c.quantity + 1
		FROM products p
		WHERE c.id = $1 AND c.user_id = $2
		  AND p.id = c.product_id AND p.is_active AND p.quantity >= c.quantity + 1
	`

	result, err := r.db.ExecContext(ctx, query, lineID, userID)
	if err != nil {
		return fmt.Errorf("failed to increase cart item: %w", err)
	}

	return r.explainNoop(ctx, result, userID, lineID, domain.ErrOutOfStock)
}

// Decrease removes one unit; the last unit can only go through Remove
func (r *cartRepository) Decrease(ctx context.Context, userID, lineID uuid.UUID) error {
	query := `
		UPDATE cart_items
		SET quantity = quantity - 1
		WHERE id = $1 AND user_id = $2 AND quantity > 1
	`

	result, err := r.db.ExecContext(ctx, query, lineID, userID)
	if err != nil {
		return fmt.Errorf("failed to decrease cart item: %w", err)
	}

	return r.explainNoop(ctx, result, userID, lineID, domain.ErrMinimumQuantity)
}

// Remove deletes the line. Removing a line that is already gone is not an error.
func (r *cartRepository) Remove(ctx context.Context, userID, lineID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, lineID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// List returns the cart with live product data, oldest line first
func (r *cartRepository) List(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	query := `
		SELECT c.id, c.product_id, p.name, p.price, p.quantity, p.is_active, c.quantity
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at ASC, c.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	cart := &domain.Cart{UserID: userID, Lines: []domain.CartLine{}}
	for rows.Next() {
		var line domain.CartLine
		err := rows.Scan(
			&line.ID,
			&line.ProductID,
			&line.Name,
			&line.Price,
			&line.InStock,
			&line.IsActive,
			&line.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart.Lines = append(cart.Lines, line)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return cart, nil
}

// Clear deletes every line the user owns
func (r *cartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// explainNoop turns a zero-row update into either not-found or the rule that blocked it
func (r *cartRepository) explainNoop(ctx context.Context, result sql.Result, userID, lineID uuid.UUID, rule error) error {
	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	exists, err := r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM cart_items WHERE id = $1 AND user_id = $2)`, lineID, userID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrCartItemNotFound
	}
	return rule
}

func (r *cartRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return exists, nil
}
