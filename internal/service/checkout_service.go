package service

import (
	"context"
	"errors"
	"time"

	"storefront/internal/checkout"
	"storefront/internal/domain"

	"github.com/google/uuid"
)

// Preview is what the customer reviews before confirming
type Preview struct {
	Session checkout.Session
	Cart    *domain.Cart
}

// CheckoutService drives a customer's checkout conversation. Sessions live
// in the injected store; nothing durable happens before Confirm.
type CheckoutService interface {
	Begin(ctx context.Context, customer *domain.User) (checkout.Session, error)
	Current(userID uuid.UUID) (checkout.Session, bool)
	AvailableDates() []time.Time
	SelectPickupPoint(userID uuid.UUID, point checkout.PickupPoint) (checkout.Session, error)
	SelectDate(userID uuid.UUID, date time.Time) (checkout.Session, error)
	SelectPayment(userID uuid.UUID, method checkout.PaymentMethod) (checkout.Session, error)
	Preview(ctx context.Context, userID uuid.UUID) (*Preview, error)
	Edit(userID uuid.UUID) (checkout.Session, error)
	Cancel(userID uuid.UUID)
	Confirm(ctx context.Context, customer *domain.User) (*domain.Order, error)
}

type checkoutService struct {
	sessions checkout.Store
	carts    CartService
	orders   OrderService
	now      func() time.Time
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(sessions checkout.Store, carts CartService, orders OrderService) CheckoutService {
	return &checkoutService{sessions: sessions, carts: carts, orders: orders, now: time.Now}
}

// Begin always starts a fresh session. An empty cart is turned away early;
// Confirm checks again inside its transaction.
func (s *checkoutService) Begin(ctx context.Context, customer *domain.User) (checkout.Session, error) {
	cart, err := s.carts.Cart(ctx, customer.ID)
	if err != nil {
		return checkout.Session{}, err
	}
	if cart.IsEmpty() {
		s.sessions.Delete(customer.ID)
		return checkout.Session{}, domain.ErrEmptyCart
	}

	session := checkout.NewSession(customer.ID, customer.DisplayName(), s.now())
	s.sessions.Save(*session)
	return *session, nil
}

func (s *checkoutService) Current(userID uuid.UUID) (checkout.Session, bool) {
	return s.sessions.Load(userID)
}

func (s *checkoutService) AvailableDates() []time.Time {
	return checkout.AvailableDates(s.now())
}

// step loads the session, applies one transition and stores the result.
// A failed transition leaves the stored session unchanged.
func (s *checkoutService) step(userID uuid.UUID, apply func(*checkout.Session) error) (checkout.Session, error) {
	session, ok := s.sessions.Load(userID)
	if !ok {
		return checkout.Session{}, checkout.ErrSessionNotFound
	}
	if err := apply(&session); err != nil {
		return session, err
	}
	s.sessions.Save(session)
	return session, nil
}

func (s *checkoutService) SelectPickupPoint(userID uuid.UUID, point checkout.PickupPoint) (checkout.Session, error) {
	return s.step(userID, func(session *checkout.Session) error {
		return session.SelectPickupPoint(point)
	})
}

func (s *checkoutService) SelectDate(userID uuid.UUID, date time.Time) (checkout.Session, error) {
	return s.step(userID, func(session *checkout.Session) error {
		return session.SelectDate(date, s.now())
	})
}

func (s *checkoutService) SelectPayment(userID uuid.UUID, method checkout.PaymentMethod) (checkout.Session, error) {
	return s.step(userID, func(session *checkout.Session) error {
		return session.SelectPayment(method)
	})
}

func (s *checkoutService) Edit(userID uuid.UUID) (checkout.Session, error) {
	return s.step(userID, func(session *checkout.Session) error {
		return session.Edit()
	})
}

// Cancel discards the session; cart and stock are untouched
func (s *checkoutService) Cancel(userID uuid.UUID) {
	s.sessions.Delete(userID)
}

// Preview pairs the session awaiting confirmation with the live cart
func (s *checkoutService) Preview(ctx context.Context, userID uuid.UUID) (*Preview, error) {
	session, ok := s.sessions.Load(userID)
	if !ok {
		return nil, checkout.ErrSessionNotFound
	}
	if session.State != checkout.StateAwaitingConfirmation {
		return nil, checkout.ErrWrongState
	}

	cart, err := s.carts.Cart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Preview{Session: session, Cart: cart}, nil
}

// Confirm places the order from the session's answers. The session is
// discarded on success and when the cart turned out empty; any other
// failure keeps it so the customer can retry.
func (s *checkoutService) Confirm(ctx context.Context, customer *domain.User) (*domain.Order, error) {
	session, ok := s.sessions.Load(customer.ID)
	if !ok {
		return nil, checkout.ErrSessionNotFound
	}

	details, err := session.Details()
	if err != nil {
		return nil, err
	}

	order, err := s.orders.PlaceOrder(ctx, customer, details)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyCart) {
			s.sessions.Delete(customer.ID)
		}
		return nil, err
	}

	s.sessions.Delete(customer.ID)
	return order, nil
}
