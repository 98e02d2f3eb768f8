package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[int64]*domain.User
}

func (f *fakeUsers) Resolve(ctx context.Context, p service.TelegramProfile) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[p.TelegramID]; ok {
		return u, nil
	}
	u := &domain.User{ID: uuid.New(), TelegramID: p.TelegramID, FirstName: p.FirstName}
	f.users[p.TelegramID] = u
	return u, nil
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return nil, repository.ErrUserNotFound
}

type fakeCatalog struct {
	products map[uuid.UUID]*domain.Product
}

func (f *fakeCatalog) Categories(ctx context.Context) ([]*domain.Category, error) {
	return []*domain.Category{{ID: uuid.New(), Name: "Phones", IsActive: true}}, nil
}

func (f *fakeCatalog) Brands(ctx context.Context, categoryID uuid.UUID) ([]*domain.Brand, error) {
	return []*domain.Brand{{ID: uuid.New(), Name: "Apple", IsActive: true}}, nil
}

func (f *fakeCatalog) Products(ctx context.Context, brandID uuid.UUID) ([]*domain.Product, error) {
	out := []*domain.Product{}
	for _, p := range f.products {
		if p.BrandID == brandID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) ProductDetail(ctx context.Context, id uuid.UUID) (*domain.ProductDetail, bool, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, false, nil
	}
	return &domain.ProductDetail{Product: *p, CategoryName: "Phones", BrandName: "Apple"}, true, nil
}

// fakeCarts applies the cart rules to an in-memory stock table
type fakeCarts struct {
	catalog *fakeCatalog
	lines   map[uuid.UUID][]domain.CartLine
}

func (f *fakeCarts) Add(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	p, ok := f.catalog.products[productID]
	if !ok {
		return repository.ErrProductNotFound
	}
	lines := f.lines[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			if !p.Available(lines[i].Quantity + qty) {
				return domain.ErrOutOfStock
			}
			lines[i].Quantity += qty
			return nil
		}
	}
	if !p.Available(qty) {
		return domain.ErrOutOfStock
	}
	f.lines[userID] = append(lines, domain.CartLine{
		ID: uuid.New(), ProductID: productID, Name: p.Name, Price: p.Price,
		InStock: p.Quantity, IsActive: p.IsActive, Quantity: qty,
	})
	return nil
}

func (f *fakeCarts) find(userID, lineID uuid.UUID) (*domain.CartLine, error) {
	for i := range f.lines[userID] {
		if f.lines[userID][i].ID == lineID {
			return &f.lines[userID][i], nil
		}
	}
	return nil, repository.ErrCartItemNotFound
}

func (f *fakeCarts) Increase(ctx context.Context, userID, lineID uuid.UUID) error {
	line, err := f.find(userID, lineID)
	if err != nil {
		return err
	}
	if line.Quantity+1 > line.InStock {
		return domain.ErrOutOfStock
	}
	line.Quantity++
	return nil
}

func (f *fakeCarts) Decrease(ctx context.Context, userID, lineID uuid.UUID) error {
	line, err := f.find(userID, lineID)
	if err != nil {
		return err
	}
	if line.Quantity <= 1 {
		return domain.ErrMinimumQuantity
	}
	line.Quantity--
	return nil
}

func (f *fakeCarts) Remove(ctx context.Context, userID, lineID uuid.UUID) error {
	kept := f.lines[userID][:0]
	for _, l := range f.lines[userID] {
		if l.ID != lineID {
			kept = append(kept, l)
		}
	}
	f.lines[userID] = kept
	return nil
}

func (f *fakeCarts) Cart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	return &domain.Cart{UserID: userID, Lines: append([]domain.CartLine(nil), f.lines[userID]...)}, nil
}

func (f *fakeCarts) Clear(ctx context.Context, userID uuid.UUID) error {
	delete(f.lines, userID)
	return nil
}

// fakeOrders turns the cart into an order and empties it
type fakeOrders struct {
	service.OrderService
	carts   *fakeCarts
	placeFn func(customer *domain.User) error
	placed  []*domain.Order
	stats   *domain.OrderStats
}

func (f *fakeOrders) PlaceOrder(ctx context.Context, customer *domain.User, delivery domain.DeliveryDetails) (*domain.Order, error) {
	if f.placeFn != nil {
		if err := f.placeFn(customer); err != nil {
			return nil, err
		}
	}
	cart, _ := f.carts.Cart(ctx, customer.ID)
	order := &domain.Order{ID: uuid.New(), Number: int64(len(f.placed) + 1), UserID: customer.ID,
		Status: domain.OrderStatusPending, TotalAmount: cart.Total(), Delivery: delivery}
	f.placed = append(f.placed, order)
	delete(f.carts.lines, customer.ID)
	return order, nil
}

func (f *fakeOrders) Stats(ctx context.Context) (*domain.OrderStats, error) {
	return f.stats, nil
}

type handlerHarness struct {
	handler *Handler
	catalog *fakeCatalog
	carts   *fakeCarts
	orders  *fakeOrders
	store   *checkout.MemoryStore
	phone   *domain.Product
}

const (
	customerID = int64(42)
	adminTGID  = int64(7)
)

func newHandlerHarness() *handlerHarness {
	catalog := &fakeCatalog{products: map[uuid.UUID]*domain.Product{}}
	phone := &domain.Product{ID: uuid.New(), Name: "iPhone", Price: decimal.NewFromInt(100), Quantity: 2,
		IsActive: true, BrandID: uuid.New()}
	catalog.products[phone.ID] = phone

	carts := &fakeCarts{catalog: catalog, lines: map[uuid.UUID][]domain.CartLine{}}
	orders := &fakeOrders{carts: carts, stats: &domain.OrderStats{TotalOrders: 3, ByStatus: map[domain.OrderStatus]int{}}}
	store := checkout.NewMemoryStore()
	checkoutService := service.NewCheckoutService(store, carts, orders)

	h := NewHandler(&fakeUsers{users: map[int64]*domain.User{}}, catalog, carts, checkoutService, orders, adminTGID, zap.NewNop())
	return &handlerHarness{handler: h, catalog: catalog, carts: carts, orders: orders, store: store, phone: phone}
}

func (h *handlerHarness) send(t *testing.T, cmd Command) Response {
	t.Helper()
	resp, err := h.handler.Handle(context.Background(), service.TelegramProfile{TelegramID: customerID, FirstName: "Ann"}, cmd)
	require.NoError(t, err)
	return resp
}

func TestHandlerCheckoutConversation(t *testing.T) {
	h := newHandlerHarness()

	resp := h.send(t, Command{Intent: IntentAddToCart, ID: h.phone.ID})
	assert.Equal(t, NoticeAddedToCart, resp.Notice)
	assert.True(t, resp.KeepScreen)

	resp = h.send(t, Command{Intent: IntentCheckout})
	require.Equal(t, ScreenPickupPoints, resp.Screen)

	resp = h.send(t, Command{Intent: IntentPickupPoint, Pickup: checkout.PickupTereshkovoy})
	require.Equal(t, ScreenDates, resp.Screen)
	require.NotEmpty(t, resp.Dates)

	resp = h.send(t, Command{Intent: IntentDate, Date: resp.Dates[0]})
	require.Equal(t, ScreenPayment, resp.Screen)

	resp = h.send(t, Command{Intent: IntentPayment, Payment: checkout.PaymentCard})
	assert.Equal(t, NoticePaymentDisabled, resp.Notice)
	assert.True(t, resp.KeepScreen)

	resp = h.send(t, Command{Intent: IntentPayment, Payment: checkout.PaymentCash})
	require.Equal(t, ScreenConfirmation, resp.Screen)
	assert.Equal(t, "Ann", resp.Preview.Session.CustomerName)
	assert.True(t, resp.Preview.Cart.Total().Equal(decimal.NewFromInt(100)))

	resp = h.send(t, Command{Intent: IntentConfirm})
	require.Equal(t, ScreenOrderPlaced, resp.Screen)
	assert.Equal(t, "16k1 Tereshkovoy St.", resp.Order.Delivery.Address)
	assert.Equal(t, 0, h.store.Len())
}

func TestHandlerStartClearsCartAndCheckout(t *testing.T) {
	h := newHandlerHarness()
	h.send(t, Command{Intent: IntentAddToCart, ID: h.phone.ID})
	h.send(t, Command{Intent: IntentCheckout})
	require.Equal(t, 1, h.store.Len())

	resp := h.send(t, Command{Intent: IntentStart})

	assert.Equal(t, ScreenMainMenu, resp.Screen)
	assert.Equal(t, 0, h.store.Len())
	assert.Empty(t, h.carts.lines)
}

func TestHandlerCartRulesBecomeNotices(t *testing.T) {
	h := newHandlerHarness()
	h.send(t, Command{Intent: IntentAddToCart, ID: h.phone.ID})
	line := h.carts.lines[h.onlyUser(t)][0]

	resp := h.send(t, Command{Intent: IntentDecrease, ID: line.ID})
	assert.Equal(t, ScreenCart, resp.Screen)
	assert.Equal(t, NoticeMinimumQuantity, resp.Notice)

	h.send(t, Command{Intent: IntentIncrease, ID: line.ID})
	resp = h.send(t, Command{Intent: IntentIncrease, ID: line.ID})
	assert.Equal(t, NoticeOutOfStock, resp.Notice)
	assert.Equal(t, 2, resp.Cart.Lines[0].Quantity)

	resp = h.send(t, Command{Intent: IntentAddToCart, ID: h.phone.ID})
	assert.Equal(t, NoticeOutOfStock, resp.Notice)

	resp = h.send(t, Command{Intent: IntentRemove, ID: line.ID})
	assert.Equal(t, NoticeNone, resp.Notice)
	assert.True(t, resp.Cart.IsEmpty())
}

func (h *handlerHarness) onlyUser(t *testing.T) uuid.UUID {
	t.Helper()
	require.Len(t, h.carts.lines, 1)
	for id := range h.carts.lines {
		return id
	}
	return uuid.Nil
}

func TestHandlerEmptyCartCannotCheckout(t *testing.T) {
	h := newHandlerHarness()

	resp := h.send(t, Command{Intent: IntentCheckout})

	assert.True(t, resp.KeepScreen)
	assert.Equal(t, NoticeEmptyCart, resp.Notice)
}

func TestHandlerStepsOutOfOrderExpireSession(t *testing.T) {
	h := newHandlerHarness()

	resp := h.send(t, Command{Intent: IntentConfirm})
	assert.Equal(t, NoticeSessionExpired, resp.Notice)

	resp = h.send(t, Command{Intent: IntentPayment, Payment: checkout.PaymentCash})
	assert.Equal(t, NoticeSessionExpired, resp.Notice)
}

func (h *handlerHarness) walkToConfirmation(t *testing.T) {
	t.Helper()
	h.send(t, Command{Intent: IntentAddToCart, ID: h.phone.ID})
	h.send(t, Command{Intent: IntentCheckout})
	resp := h.send(t, Command{Intent: IntentPickupPoint, Pickup: checkout.PickupDormitory})
	h.send(t, Command{Intent: IntentDate, Date: resp.Dates[len(resp.Dates)-1]})
	resp = h.send(t, Command{Intent: IntentPayment, Payment: checkout.PaymentCash})
	require.Equal(t, ScreenConfirmation, resp.Screen)
}

func TestHandlerConfirmOutOfStockShowsCart(t *testing.T) {
	h := newHandlerHarness()
	h.walkToConfirmation(t)
	h.orders.placeFn = func(*domain.User) error {
		return fmt.Errorf("%w: %w", service.ErrOrderCreationFailed, domain.ErrOutOfStock)
	}

	resp := h.send(t, Command{Intent: IntentConfirm})

	assert.Equal(t, ScreenCart, resp.Screen)
	assert.Equal(t, NoticeOutOfStock, resp.Notice)
	assert.Len(t, resp.Cart.Lines, 1)
	// the session survives so the customer can fix the cart and retry
	assert.Equal(t, 1, h.store.Len())
}

func TestHandlerConfirmFailureKeepsScreen(t *testing.T) {
	h := newHandlerHarness()
	h.walkToConfirmation(t)
	h.orders.placeFn = func(*domain.User) error {
		return fmt.Errorf("%w: %w", service.ErrOrderCreationFailed, errors.New("connection refused"))
	}

	resp := h.send(t, Command{Intent: IntentConfirm})

	assert.True(t, resp.KeepScreen)
	assert.Equal(t, NoticeFailed, resp.Notice)
	assert.Empty(t, h.orders.placed)
}

func TestHandlerMissingProduct(t *testing.T) {
	h := newHandlerHarness()

	resp := h.send(t, Command{Intent: IntentProduct, ID: uuid.New()})

	assert.Equal(t, ScreenProductMissing, resp.Screen)
	assert.Equal(t, IntentCatalog, resp.BackTo.Intent)
}

func TestHandlerAdminStatsOnlyForAdmin(t *testing.T) {
	h := newHandlerHarness()

	resp := h.send(t, Command{Intent: IntentAdmin})
	assert.Equal(t, ScreenAccessDenied, resp.Screen)

	resp, err := h.handler.Handle(context.Background(), service.TelegramProfile{TelegramID: adminTGID}, Command{Intent: IntentAdmin})
	require.NoError(t, err)
	assert.Equal(t, ScreenAdminStats, resp.Screen)
	assert.Equal(t, 3, resp.Stats.TotalOrders)
}
