package service

import (
	"context"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/notify"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// Mock repositories for testing
type mockUserRepository struct {
	users map[int64]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[int64]*domain.User)}
}

func (m *mockUserRepository) Upsert(ctx context.Context, user *domain.User) error {
	if existing, ok := m.users[user.TelegramID]; ok {
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
	} else if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	stored := *user
	m.users[user.TelegramID] = &stored
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	user, ok := m.users[telegramID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

type mockCategoryRepository struct {
	categories map[uuid.UUID]*domain.Category
	err        error
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[uuid.UUID]*domain.Category)}
}

func (m *mockCategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.categories {
		if existing.Name == c.Name {
			return repository.ErrCategoryAlreadyExists
		}
	}
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	if _, ok := m.categories[c.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return c, nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	out := []*domain.Category{}
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCategoryRepository) ListActive(ctx context.Context) ([]*domain.Category, error) {
	out := []*domain.Category{}
	for _, c := range m.categories {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockBrandRepository struct {
	brands map[uuid.UUID]*domain.Brand
}

func newMockBrandRepository() *mockBrandRepository {
	return &mockBrandRepository{brands: make(map[uuid.UUID]*domain.Brand)}
}

func (m *mockBrandRepository) Create(ctx context.Context, b *domain.Brand) error {
	m.brands[b.ID] = b
	return nil
}

func (m *mockBrandRepository) Update(ctx context.Context, b *domain.Brand) error {
	if _, ok := m.brands[b.ID]; !ok {
		return repository.ErrBrandNotFound
	}
	m.brands[b.ID] = b
	return nil
}

func (m *mockBrandRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.brands[id]; !ok {
		return repository.ErrBrandNotFound
	}
	delete(m.brands, id)
	return nil
}

func (m *mockBrandRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	b, ok := m.brands[id]
	if !ok {
		return nil, repository.ErrBrandNotFound
	}
	return b, nil
}

func (m *mockBrandRepository) List(ctx context.Context) ([]*domain.Brand, error) {
	out := []*domain.Brand{}
	for _, b := range m.brands {
		out = append(out, b)
	}
	return out, nil
}

func (m *mockBrandRepository) ListActiveInCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Brand, error) {
	return m.List(ctx)
}

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
	err      error
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	if m.err != nil {
		return m.err
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, p *domain.Product) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.products[p.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockProductRepository) FindDetail(ctx context.Context, id uuid.UUID) (*domain.ProductDetail, error) {
	p, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.ProductDetail{Product: *p, CategoryName: "Phones", BrandName: "Apple"}, nil
}

func (m *mockProductRepository) List(ctx context.Context) ([]*domain.ProductDetail, error) {
	out := []*domain.ProductDetail{}
	for _, p := range m.products {
		out = append(out, &domain.ProductDetail{Product: *p})
	}
	return out, nil
}

func (m *mockProductRepository) ListActiveByBrand(ctx context.Context, brandID uuid.UUID) ([]*domain.Product, error) {
	out := []*domain.Product{}
	for _, p := range m.products {
		if p.BrandID == brandID && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

// mockCartService keeps carts in memory
type mockCartService struct {
	carts map[uuid.UUID]*domain.Cart
	err   error
}

func newMockCartService() *mockCartService {
	return &mockCartService{carts: make(map[uuid.UUID]*domain.Cart)}
}

func (m *mockCartService) put(userID uuid.UUID, lines ...domain.CartLine) {
	m.carts[userID] = &domain.Cart{UserID: userID, Lines: lines}
}

func (m *mockCartService) Add(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	return nil
}
func (m *mockCartService) Increase(ctx context.Context, userID, lineID uuid.UUID) error { return nil }
func (m *mockCartService) Decrease(ctx context.Context, userID, lineID uuid.UUID) error { return nil }
func (m *mockCartService) Remove(ctx context.Context, userID, lineID uuid.UUID) error   { return nil }

func (m *mockCartService) Cart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	if cart, ok := m.carts[userID]; ok {
		return cart, nil
	}
	return &domain.Cart{UserID: userID}, nil
}

func (m *mockCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	delete(m.carts, userID)
	return nil
}

// mockOrderRepository records calls and returns canned results
type mockOrderRepository struct {
	mu          sync.Mutex
	placeErr    error
	placed      []domain.DeliveryDetails
	transition  domain.StatusChange
	transErr    error
	deleteErr   error
	listFilter  *domain.OrderStatus
	stats       *domain.OrderStats
	orderDetail *domain.OrderDetail
}

func (m *mockOrderRepository) PlaceFromCart(ctx context.Context, userID uuid.UUID, delivery domain.DeliveryDetails) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.placeErr != nil {
		return nil, m.placeErr
	}
	m.placed = append(m.placed, delivery)
	return &domain.Order{
		ID:       uuid.New(),
		Number:   int64(len(m.placed)),
		UserID:   userID,
		Status:   domain.OrderStatusPending,
		Delivery: delivery,
	}, nil
}

func (m *mockOrderRepository) List(ctx context.Context, status *domain.OrderStatus) ([]*domain.OrderDetail, error) {
	m.listFilter = status
	return []*domain.OrderDetail{}, nil
}

func (m *mockOrderRepository) FindDetail(ctx context.Context, id uuid.UUID) (*domain.OrderDetail, error) {
	if m.orderDetail == nil {
		return nil, repository.ErrOrderNotFound
	}
	return m.orderDetail, nil
}

func (m *mockOrderRepository) TransitionStatus(ctx context.Context, id uuid.UUID, to domain.OrderStatus) (domain.StatusChange, error) {
	if m.transErr != nil {
		return domain.StatusChange{}, m.transErr
	}
	return m.transition, nil
}

func (m *mockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteErr
}

func (m *mockOrderRepository) Stats(ctx context.Context) (*domain.OrderStats, error) {
	return m.stats, nil
}

type recordingNotifier struct {
	summaries []notify.OrderSummary
	err       error
}

func (r *recordingNotifier) NotifyOrderPlaced(ctx context.Context, s notify.OrderSummary) error {
	r.summaries = append(r.summaries, s)
	return r.err
}
