// Package notify delivers "order placed" events to the operator. Every
// sink is best effort: callers log a failure and carry on.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Notifier receives placed orders
type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, summary OrderSummary) error
}

// SummaryLine is one ordered product
type SummaryLine struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// OrderSummary is the operator's view of a freshly placed order
type OrderSummary struct {
	OrderID       uuid.UUID       `json:"order_id"`
	Number        int64           `json:"number"`
	CustomerName  string          `json:"customer_name"`
	TelegramID    int64           `json:"telegram_id"`
	Username      string          `json:"username,omitempty"`
	Total         decimal.Decimal `json:"total"`
	Address       string          `json:"address"`
	Date          time.Time       `json:"date"`
	TimeSlot      string          `json:"time_slot"`
	PaymentMethod string          `json:"payment_method"`
	Lines         []SummaryLine   `json:"lines"`
	PlacedAt      time.Time       `json:"placed_at"`
}

// NewOrderSummary builds the summary of an order placed by customer
func NewOrderSummary(order *domain.Order, customer *domain.User) OrderSummary {
	s := OrderSummary{
		OrderID:       order.ID,
		Number:        order.Number,
		CustomerName:  order.Delivery.CustomerName,
		Total:         order.TotalAmount,
		Address:       order.Delivery.Address,
		Date:          order.Delivery.Date,
		TimeSlot:      order.Delivery.TimeSlot,
		PaymentMethod: order.Delivery.PaymentMethod,
		PlacedAt:      order.CreatedAt,
		Lines:         make([]SummaryLine, 0, len(order.Items)),
	}
	if customer != nil {
		s.TelegramID = customer.TelegramID
		s.Username = customer.Username
	}
	for _, item := range order.Items {
		s.Lines = append(s.Lines, SummaryLine{
			Name:     item.ProductName,
			Price:    item.ProductPrice,
			Quantity: item.Quantity,
		})
	}
	return s
}

// Text renders the summary as a plain chat message
func (s OrderSummary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order #%d\n\n", s.Number)
	fmt.Fprintf(&b, "Customer: %s", s.CustomerName)
	if s.Username != "" {
		fmt.Fprintf(&b, " (@%s)", s.Username)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Pickup: %s\n", s.Address)
	fmt.Fprintf(&b, "Date: %s %s\n", s.Date.Format("02.01.2006"), s.TimeSlot)
	fmt.Fprintf(&b, "Payment: %s\n\n", s.PaymentMethod)
	for _, line := range s.Lines {
		fmt.Fprintf(&b, "• %s × %d = %s\n", line.Name, line.Quantity,
			line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s", s.Total.StringFixed(2))
	return b.String()
}

// Fanout sends to every notifier and joins their errors
type Fanout []Notifier

func (f Fanout) NotifyOrderPlaced(ctx context.Context, summary OrderSummary) error {
	var errs []error
	for _, n := range f {
		if err := n.NotifyOrderPlaced(ctx, summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
