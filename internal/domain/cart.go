package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one cart entry joined with live product data for display
type CartLine struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	InStock   int             `json:"in_stock"`
	IsActive  bool            `json:"is_active"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is price times quantity
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Sufficient reports whether current stock covers the line
func (l CartLine) Sufficient() bool {
	return l.IsActive && l.InStock >= l.Quantity
}

// Cart is a user's cart contents
type Cart struct {
	UserID uuid.UUID  `json:"user_id"`
	Lines  []CartLine `json:"lines"`
}

// Total sums all line subtotals
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
