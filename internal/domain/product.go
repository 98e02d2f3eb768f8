package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LowStockThreshold is the quantity at or below which a product is shown as running low
const LowStockThreshold = 5

// Product represents a product in the catalog
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Quantity    int             `json:"quantity" db:"quantity"`
	ImageURL    string          `json:"image_url" db:"image_url"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	CategoryID  uuid.UUID       `json:"category_id" db:"category_id"`
	BrandID     uuid.UUID       `json:"brand_id" db:"brand_id"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Available reports whether qty units can be put in a cart right now
func (p *Product) Available(qty int) bool {
	return p.IsActive && p.Quantity >= qty
}

// Category represents a product category
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Brand represents a product manufacturer
type Brand struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ProductDetail is a product with its category and brand resolved
type ProductDetail struct {
	Product
	CategoryName string `json:"category_name"`
	BrandName    string `json:"brand_name"`
}

// StockStatus classifies a product for display
type StockStatus string

const (
	StockUnavailable StockStatus = "unavailable"
	StockSoldOut     StockStatus = "sold_out"
	StockLow         StockStatus = "low"
	StockInStock     StockStatus = "in_stock"
)

// StockStatusOf returns the display status of a product
func StockStatusOf(p *Product) StockStatus {
	switch {
	case !p.IsActive:
		return StockUnavailable
	case p.Quantity == 0:
		return StockSoldOut
	case p.Quantity <= LowStockThreshold:
		return StockLow
	default:
		return StockInStock
	}
}
