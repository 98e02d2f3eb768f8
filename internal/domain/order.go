package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a placed order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusCompleted, OrderStatusCancelled},
}

// ParseOrderStatus validates a raw status value
func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, status := range OrderStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", ErrInvalidStatus
}

// IsTerminal reports whether no further transitions are possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransition reports whether an order may move from one status to another.
// Staying in the same status is not a transition.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StockEffect describes what a status change does to inventory
type StockEffect int

const (
	StockEffectNone StockEffect = iota
	StockEffectRestore
)

// StockEffectOf returns the inventory consequence of moving into status to.
// Stock is debited once when the order is placed, so only cancellation
// touches inventory afterwards.
func StockEffectOf(from, to OrderStatus) StockEffect {
	if to == OrderStatusCancelled && !from.IsTerminal() {
		return StockEffectRestore
	}
	return StockEffectNone
}

// DeliveryDetails are the checkout answers copied onto the order
type DeliveryDetails struct {
	CustomerName  string    `json:"customer_name"`
	Method        string    `json:"delivery_method"`
	Address       string    `json:"delivery_address"`
	Date          time.Time `json:"delivery_date"`
	TimeSlot      string    `json:"delivery_time"`
	PaymentMethod string    `json:"payment_method"`
	Notes         string    `json:"notes"`
}

// Order is a placed order. TotalAmount never changes after creation.
type Order struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Number      int64           `json:"number" db:"number"`
	UserID      uuid.UUID       `json:"user_id" db:"user_id"`
	Status      OrderStatus     `json:"status" db:"status"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	Delivery    DeliveryDetails `json:"delivery"`
	Items       []OrderItem     `json:"items,omitempty"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderItem is a snapshot of a product at the moment the order was placed
type OrderItem struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	OrderID      uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID    uuid.NullUUID   `json:"product_id" db:"product_id"`
	ProductName  string          `json:"product_name" db:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price" db:"product_price"`
	Quantity     int             `json:"quantity" db:"quantity"`
}

// Subtotal is the snapshotted price times quantity
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.ProductPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderDetail is the admin view of an order with its customer
type OrderDetail struct {
	Order
	Customer User `json:"customer"`
}

// StatusChange is the outcome of an order status update
type StatusChange struct {
	OrderID uuid.UUID   `json:"order_id"`
	From    OrderStatus `json:"from"`
	To      OrderStatus `json:"to"`
	Changed bool        `json:"changed"`
}

// OrderStats summarises the order ledger for the admin dashboard
type OrderStats struct {
	TotalOrders int                 `json:"total_orders"`
	ByStatus    map[OrderStatus]int `json:"by_status"`
	Revenue     decimal.Decimal     `json:"revenue"`
}
