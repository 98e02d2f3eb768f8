package service

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// CartService manages a customer's cart. Stock is checked, never reserved.
type CartService interface {
	Add(ctx context.Context, userID, productID uuid.UUID, qty int) error
	Increase(ctx context.Context, userID, lineID uuid.UUID) error
	Decrease(ctx context.Context, userID, lineID uuid.UUID) error
	Remove(ctx context.Context, userID, lineID uuid.UUID) error
	Cart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	carts repository.CartRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(carts repository.CartRepository) CartService {
	return &cartService{carts: carts}
}

// Add fails with domain.ErrOutOfStock when the product is inactive or short
func (s *cartService) Add(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	if qty < 1 {
		return invalid("quantity", "must be at least 1")
	}
	if _, err := s.carts.Add(ctx, userID, productID, qty); err != nil {
		return err
	}
	return nil
}

func (s *cartService) Increase(ctx context.Context, userID, lineID uuid.UUID) error {
	return s.carts.Increase(ctx, userID, lineID)
}

// Decrease fails with domain.ErrMinimumQuantity on a single-unit line
func (s *cartService) Decrease(ctx context.Context, userID, lineID uuid.UUID) error {
	return s.carts.Decrease(ctx, userID, lineID)
}

func (s *cartService) Remove(ctx context.Context, userID, lineID uuid.UUID) error {
	return s.carts.Remove(ctx, userID, lineID)
}

func (s *cartService) Cart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.carts.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}

func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.carts.Clear(ctx, userID)
}
