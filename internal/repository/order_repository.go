package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository is the order ledger. Placement, status changes and
// deletion each run in one transaction together with their stock effects.
type OrderRepository interface {
	PlaceFromCart(ctx context.Context, userID uuid.UUID, delivery domain.DeliveryDetails) (*domain.Order, error)
	List(ctx context.Context, status *domain.OrderStatus) ([]*domain.OrderDetail, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*domain.OrderDetail, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, to domain.OrderStatus) (domain.StatusChange, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*domain.OrderStats, error)
}

type orderRepository struct {
	db        *sql.DB
	inventory InventoryAdjuster
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB, inventory InventoryAdjuster) OrderRepository {
	return &orderRepository{db: db, inventory: inventory}
}

// PlaceFromCart turns the user's cart into a pending order. In one transaction
// it reads and locks the cart's products, snapshots the lines, debits stock and
// empties the cart. Any failure leaves cart and stock untouched.
func (r *orderRepository) PlaceFromCart(ctx context.Context, userID uuid.UUID, delivery domain.DeliveryDetails) (*domain.Order, error) {
	order := &domain.Order{
		ID:       uuid.New(),
		UserID:   userID,
		Status:   domain.OrderStatusPending,
		Delivery: delivery,
	}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		lines, err := lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		cart := domain.Cart{UserID: userID, Lines: lines}
		for _, line := range cart.Lines {
			if !line.Sufficient() {
				return fmt.Errorf("%w: %s", domain.ErrOutOfStock, line.Name)
			}
		}
		order.TotalAmount = cart.Total()

		err = tx.QueryRowContext(ctx, `
			INSERT INTO orders (id, user_id, status, total_amount, customer_name, delivery_method,
			                    delivery_address, delivery_date, delivery_time, payment_method, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING number, created_at, updated_at
		`,
			order.ID,
			order.UserID,
			order.Status,
			order.TotalAmount,
			delivery.CustomerName,
			delivery.Method,
			delivery.Address,
			delivery.Date,
			delivery.TimeSlot,
			delivery.PaymentMethod,
			delivery.Notes,
		).Scan(&order.Number, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for _, line := range cart.Lines {
			item := domain.OrderItem{
				ID:           uuid.New(),
				OrderID:      order.ID,
				ProductID:    uuid.NullUUID{UUID: line.ProductID, Valid: true},
				ProductName:  line.Name,
				ProductPrice: line.Price,
				Quantity:     line.Quantity,
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (id, order_id, product_id, product_name, product_price, quantity)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, item.ID, item.OrderID, item.ProductID, item.ProductName, item.ProductPrice, item.Quantity)
			if err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}

			if err := r.inventory.Debit(ctx, tx, line.ProductID, line.Quantity); err != nil {
				return err
			}
			order.Items = append(order.Items, item)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// lockCart reads the cart joined with live product data in one statement,
// locking product rows in id order so concurrent checkouts cannot deadlock.
func lockCart(ctx context.Context, tx *sql.Tx, userID uuid.UUID) ([]domain.CartLine, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT c.id, c.product_id, p.name, p.price, p.quantity, p.is_active, c.quantity
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY p.id
		FOR UPDATE OF c, p
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		err := rows.Scan(&line.ID, &line.ProductID, &line.Name, &line.Price, &line.InStock, &line.IsActive, &line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}
	return lines, nil
}

const orderDetailQuery = `
	SELECT o.id, o.number, o.user_id, o.status, o.total_amount, o.customer_name, o.delivery_method,
	       o.delivery_address, o.delivery_date, o.delivery_time, o.payment_method, o.notes,
	       o.created_at, o.updated_at,
	       u.id, u.telegram_id, COALESCE(u.username, ''), COALESCE(u.first_name, ''),
	       COALESCE(u.last_name, ''), u.created_at, u.updated_at,
	       oi.id, oi.product_id, oi.product_name, oi.product_price, oi.quantity
	FROM orders o
	JOIN users u ON u.id = o.user_id
	LEFT JOIN order_items oi ON oi.order_id = o.id
`

// List returns orders newest first, optionally only those in one status
func (r *orderRepository) List(ctx context.Context, status *domain.OrderStatus) ([]*domain.OrderDetail, error) {
	whereClause := ""
	args := []any{}
	if status != nil {
		whereClause = "WHERE o.status = $1"
		args = append(args, *status)
	}

	query := orderDetailQuery + whereClause + `
		ORDER BY o.created_at DESC, o.number DESC, oi.product_name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

// FindDetail returns one order with its lines and customer
func (r *orderRepository) FindDetail(ctx context.Context, id uuid.UUID) (*domain.OrderDetail, error) {
	query := orderDetailQuery + `WHERE o.id = $1 ORDER BY oi.product_name ASC`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrOrderNotFound
	}
	return orders[0], nil
}

// collectOrders folds the one-row-per-line join back into orders, keeping row order
func collectOrders(rows *sql.Rows) ([]*domain.OrderDetail, error) {
	orders := []*domain.OrderDetail{}
	byID := make(map[uuid.UUID]*domain.OrderDetail)

	for rows.Next() {
		var (
			o         domain.OrderDetail
			itemID    uuid.NullUUID
			productID uuid.NullUUID
			name      sql.NullString
			price     decimal.NullDecimal
			qty       sql.NullInt64
		)
		err := rows.Scan(
			&o.ID, &o.Number, &o.UserID, &o.Status, &o.TotalAmount,
			&o.Delivery.CustomerName, &o.Delivery.Method, &o.Delivery.Address, &o.Delivery.Date,
			&o.Delivery.TimeSlot, &o.Delivery.PaymentMethod, &o.Delivery.Notes,
			&o.CreatedAt, &o.UpdatedAt,
			&o.Customer.ID, &o.Customer.TelegramID, &o.Customer.Username, &o.Customer.FirstName,
			&o.Customer.LastName, &o.Customer.CreatedAt, &o.Customer.UpdatedAt,
			&itemID, &productID, &name, &price, &qty,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		detail, ok := byID[o.ID]
		if !ok {
			detail = &o
			detail.Items = []domain.OrderItem{}
			byID[o.ID] = detail
			orders = append(orders, detail)
		}
		if itemID.Valid {
			detail.Items = append(detail.Items, domain.OrderItem{
				ID:           itemID.UUID,
				OrderID:      o.ID,
				ProductID:    productID,
				ProductName:  name.String,
				ProductPrice: price.Decimal,
				Quantity:     int(qty.Int64),
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

// TransitionStatus moves an order to a new status under a row lock and applies
// its stock effect. Asking for the current status again changes nothing.
func (r *orderRepository) TransitionStatus(ctx context.Context, id uuid.UUID, to domain.OrderStatus) (domain.StatusChange, error) {
	change := domain.StatusChange{OrderID: id, To: to}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		from, err := lockOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		change.From = from

		if from == to {
			return nil
		}
		if !domain.CanTransition(from, to) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
		}

		if domain.StockEffectOf(from, to) == domain.StockEffectRestore {
			items, err := loadItems(ctx, tx, id)
			if err != nil {
				return err
			}
			if err := r.inventory.Restore(ctx, tx, items); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, to); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		change.Changed = true
		return nil
	})
	if err != nil {
		return domain.StatusChange{}, err
	}

	return change, nil
}

// Delete removes an order and its lines. Stock held by an order that was
// neither completed nor cancelled goes back on the shelf.
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		status, err := lockOrder(ctx, tx, id)
		if err != nil {
			return err
		}

		if !status.IsTerminal() {
			items, err := loadItems(ctx, tx, id)
			if err != nil {
				return err
			}
			if err := r.inventory.Restore(ctx, tx, items); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return nil
	})
}

func lockOrder(ctx context.Context, tx *sql.Tx, id uuid.UUID) (domain.OrderStatus, error) {
	var status domain.OrderStatus
	err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrOrderNotFound
		}
		return "", fmt.Errorf("failed to lock order: %w", err)
	}
	return status, nil
}

func loadItems(ctx context.Context, q querier, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, product_price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.ProductPrice, &item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}
	return items, nil
}

// Stats counts orders per status; revenue ignores cancelled orders
func (r *orderRepository) Stats(ctx context.Context) (*domain.OrderStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM orders
		GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to compute order stats: %w", err)
	}
	defer rows.Close()

	stats := &domain.OrderStats{
		ByStatus: make(map[domain.OrderStatus]int, len(domain.OrderStatuses)),
		Revenue:  decimal.Zero,
	}
	for _, status := range domain.OrderStatuses {
		stats.ByStatus[status] = 0
	}

	for rows.Next() {
		var (
			status domain.OrderStatus
			count  int
			sum    decimal.Decimal
		)
		if err := rows.Scan(&status, &count, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan order stats: %w", err)
		}
		stats.ByStatus[status] = count
		stats.TotalOrders += count
		if status != domain.OrderStatusCancelled {
			stats.Revenue = stats.Revenue.Add(sum)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order stats: %w", err)
	}

	return stats, nil
}

