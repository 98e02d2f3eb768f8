package repository

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// InventoryAdjuster is the only writer of product stock in order flows. It
// always runs inside the caller's transaction.
type InventoryAdjuster interface {
	Debit(ctx context.Context, tx *sql.Tx, productID uuid.UUID, qty int) error
	Restore(ctx context.Context, tx *sql.Tx, items []domain.OrderItem) error
}

type inventoryAdjuster struct{}

// NewInventoryAdjuster creates a new instance of InventoryAdjuster
func NewInventoryAdjuster() InventoryAdjuster {
	return inventoryAdjuster{}
}

// Debit takes qty units off the shelf, refusing to go below zero
func (inventoryAdjuster) Debit(ctx context.Context, tx *sql.Tx, productID uuid.UUID, qty int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE products SET quantity = quantity - $1 WHERE id = $2 AND quantity >= $1`,
		qty, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to debit stock: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: product %s", domain.ErrOutOfStock, productID)
	}
	return nil
}

// Restore returns order lines to stock. Lines whose product was deleted are skipped.
func (inventoryAdjuster) Restore(ctx context.Context, tx *sql.Tx, items []domain.OrderItem) error {
	for _, item := range items {
		if !item.ProductID.Valid {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE products SET quantity = quantity + $1 WHERE id = $2`,
			item.Quantity, item.ProductID.UUID,
		)
		if err != nil {
			return fmt.Errorf("failed to restore stock: %w", err)
		}
	}
	return nil
}
