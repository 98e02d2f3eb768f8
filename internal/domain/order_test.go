package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusCompleted, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusCompleted, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusCompleted, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusPending, OrderStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestStockEffectOnlyRestoresOnCancellation(t *testing.T) {
	assert.Equal(t, StockEffectRestore, StockEffectOf(OrderStatusPending, OrderStatusCancelled))
	assert.Equal(t, StockEffectRestore, StockEffectOf(OrderStatusConfirmed, OrderStatusCancelled))
	assert.Equal(t, StockEffectNone, StockEffectOf(OrderStatusPending, OrderStatusCompleted))
	assert.Equal(t, StockEffectNone, StockEffectOf(OrderStatusConfirmed, OrderStatusCompleted))
	assert.Equal(t, StockEffectNone, StockEffectOf(OrderStatusCancelled, OrderStatusCancelled))
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("completed")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCompleted, status)

	_, err = ParseOrderStatus("shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCartTotal(t *testing.T) {
	cart := Cart{
		UserID: uuid.New(),
		Lines: []CartLine{
			{Name: "A", Price: decimal.NewFromInt(100), Quantity: 2, InStock: 5, IsActive: true},
			{Name: "B", Price: decimal.NewFromInt(50), Quantity: 1, InStock: 0, IsActive: true},
		},
	}

	assert.True(t, cart.Total().Equal(decimal.NewFromInt(250)))
	assert.True(t, cart.Lines[0].Sufficient())
	assert.False(t, cart.Lines[1].Sufficient())
}

func TestStockStatusOf(t *testing.T) {
	assert.Equal(t, StockUnavailable, StockStatusOf(&Product{IsActive: false, Quantity: 10}))
	assert.Equal(t, StockSoldOut, StockStatusOf(&Product{IsActive: true, Quantity: 0}))
	assert.Equal(t, StockLow, StockStatusOf(&Product{IsActive: true, Quantity: LowStockThreshold}))
	assert.Equal(t, StockInStock, StockStatusOf(&Product{IsActive: true, Quantity: LowStockThreshold + 1}))
}
