package domain

import "errors"

// Domain rule violations. They are returned before any mutation happens.
var (
	ErrOutOfStock        = errors.New("product is out of stock")
	ErrMinimumQuantity   = errors.New("quantity cannot go below 1")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("order status transition not allowed")
)
