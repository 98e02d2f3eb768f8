package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/notify"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// notifyTimeout bounds the best-effort operator notification
const notifyTimeout = 5 * time.Second

// OrderService is the order ledger facade used by checkout and the admin console
type OrderService interface {
	PlaceOrder(ctx context.Context, customer *domain.User, delivery domain.DeliveryDetails) (*domain.Order, error)
	ListOrders(ctx context.Context, status string) ([]*domain.OrderDetail, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.OrderDetail, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (domain.StatusChange, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*domain.OrderStats, error)
}

type orderService struct {
	orders   repository.OrderRepository
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orders repository.OrderRepository, notifier notify.Notifier, logger *zap.Logger) OrderService {
	return &orderService{orders: orders, notifier: notifier, logger: logger.Named("orders")}
}

// PlaceOrder converts the customer's cart into an order atomically, then
// tells the operator. A failed notification never undoes the order.
func (s *orderService) PlaceOrder(ctx context.Context, customer *domain.User, delivery domain.DeliveryDetails) (*domain.Order, error) {
	order, err := s.orders.PlaceFromCart(ctx, customer.ID, delivery)
	if err != nil {
		s.logger.Warn("Order placement failed",
			zap.Stringer("user_id", customer.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrOrderCreationFailed, err)
	}

	s.logger.Info("Order placed",
		zap.Stringer("order_id", order.ID),
		zap.Int64("number", order.Number),
		zap.String("total", order.TotalAmount.StringFixed(2)),
	)

	if s.notifier != nil {
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyOrderPlaced(notifyCtx, notify.NewOrderSummary(order, customer)); err != nil {
			s.logger.Error("Failed to notify about order",
				zap.Stringer("order_id", order.ID),
				zap.Error(err),
			)
		}
	}

	return order, nil
}

// ListOrders returns all orders, or only those in status when it is not empty
func (s *orderService) ListOrders(ctx context.Context, status string) ([]*domain.OrderDetail, error) {
	var filter *domain.OrderStatus
	if status != "" {
		parsed, err := domain.ParseOrderStatus(status)
		if err != nil {
			return nil, invalid("status", err.Error())
		}
		filter = &parsed
	}

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.OrderDetail, error) {
	return s.orders.FindDetail(ctx, id)
}

// UpdateStatus applies an admin status change together with its stock effect
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (domain.StatusChange, error) {
	to, err := domain.ParseOrderStatus(status)
	if err != nil {
		return domain.StatusChange{}, invalid("status", err.Error())
	}

	change, err := s.orders.TransitionStatus(ctx, id, to)
	if err != nil {
		return domain.StatusChange{}, wrapUpdate(err, repository.ErrOrderNotFound, domain.ErrInvalidTransition)
	}

	if change.Changed {
		s.logger.Info("Order status changed",
			zap.Stringer("order_id", id),
			zap.String("from", string(change.From)),
			zap.String("to", string(change.To)),
			zap.Bool("stock_restored", domain.StockEffectOf(change.From, change.To) == domain.StockEffectRestore),
		)
	}
	return change, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		return wrapUpdate(err, repository.ErrOrderNotFound)
	}
	s.logger.Info("Order deleted", zap.Stringer("order_id", id))
	return nil
}

func (s *orderService) Stats(ctx context.Context) (*domain.OrderStats, error) {
	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return stats, nil
}

// IsDomainRule reports whether err is a business rule rejection rather than a failure
func IsDomainRule(err error) bool {
	return errors.Is(err, domain.ErrOutOfStock) ||
		errors.Is(err, domain.ErrEmptyCart) ||
		errors.Is(err, domain.ErrMinimumQuantity) ||
		errors.Is(err, domain.ErrInvalidTransition)
}
