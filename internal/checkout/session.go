// Package checkout implements the conversational checkout state machine.
//
// A Session walks strictly forward through
// Idle → AwaitingDeliveryPoint → AwaitingDate → AwaitingPayment → AwaitingConfirmation
// and ends Confirmed or Cancelled. Sessions are never persisted.
package checkout

import (
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// State is a checkout step
type State int

const (
	StateIdle State = iota
	StateAwaitingDeliveryPoint
	StateAwaitingDate
	StateAwaitingPayment
	StateAwaitingConfirmation
	// Terminal states; a Store never holds a session in either
	StateConfirmed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingDeliveryPoint:
		return "awaiting_delivery_point"
	case StateAwaitingDate:
		return "awaiting_date"
	case StateAwaitingPayment:
		return "awaiting_payment"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateConfirmed:
		return "confirmed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	// DeliveryMethodPickup is the only delivery method offered
	DeliveryMethodPickup = "pickup"
	// DeliveryTimeSlot is assigned to every order
	DeliveryTimeSlot = "16:00-18:00"
	// DefaultCustomerName is used when the customer has no name on their account
	DefaultCustomerName = "Customer"
	// DateWindowDays is how many calendar days, starting today, are offered
	DateWindowDays = 7
)

var (
	ErrWrongState         = errors.New("action not allowed in current checkout step")
	ErrUnknownPickupPoint = errors.New("unknown pickup point")
	ErrDateNotOffered     = errors.New("date is not among the offered pickup dates")
	ErrPaymentDisabled    = errors.New("card payment is temporarily unavailable")
	ErrUnknownPayment     = errors.New("unknown payment method")
	ErrSessionNotFound    = errors.New("no checkout in progress")
)

// PickupPoint is one of the fixed pickup locations
type PickupPoint string

const (
	PickupDormitory   PickupPoint = "vgtu"
	PickupTereshkovoy PickupPoint = "tereshkovoy"
)

var pickupAddresses = map[PickupPoint]string{
	PickupDormitory:   "Dormitory No. 3, VSTU",
	PickupTereshkovoy: "16k1 Tereshkovoy St.",
}

// PickupPoints lists the offered pickup points in display order
func PickupPoints() []PickupPoint {
	return []PickupPoint{PickupDormitory, PickupTereshkovoy}
}

// Address returns the street address of the pickup point
func (p PickupPoint) Address() string {
	return pickupAddresses[p]
}

// Valid reports whether p is a known pickup point
func (p PickupPoint) Valid() bool {
	_, ok := pickupAddresses[p]
	return ok
}

// PaymentMethod is how the customer pays at pickup
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

// Enabled reports whether the method can currently be chosen
func (m PaymentMethod) Enabled() bool {
	return m == PaymentCash
}

// AvailableDates returns the pickup dates offered on day now: the next
// DateWindowDays calendar days starting today, weekends removed.
func AvailableDates(now time.Time) []time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dates := make([]time.Time, 0, DateWindowDays)
	for i := 0; i < DateWindowDays; i++ {
		day := today.AddDate(0, 0, i)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		dates = append(dates, day)
	}
	return dates
}

// Session is one user's in-progress checkout
type Session struct {
	UserID       uuid.UUID
	State        State
	CustomerName string
	PickupPoint  PickupPoint
	Date         time.Time
	TimeSlot     string
	Payment      PaymentMethod
	Notes        string
	StartedAt    time.Time
}

// NewSession starts a checkout at the delivery point step
func NewSession(userID uuid.UUID, customerName string, now time.Time) *Session {
	if customerName == "" {
		customerName = DefaultCustomerName
	}
	return &Session{
		UserID:       userID,
		State:        StateAwaitingDeliveryPoint,
		CustomerName: customerName,
		StartedAt:    now,
	}
}

func (s *Session) require(state State) error {
	if s.State != state {
		return fmt.Errorf("%w: in %s", ErrWrongState, s.State)
	}
	return nil
}

// SelectPickupPoint records the pickup point and moves on to the date step
func (s *Session) SelectPickupPoint(p PickupPoint) error {
	if err := s.require(StateAwaitingDeliveryPoint); err != nil {
		return err
	}
	if !p.Valid() {
		return ErrUnknownPickupPoint
	}
	s.PickupPoint = p
	s.State = StateAwaitingDate
	return nil
}

// SelectDate records a pickup date offered on day now and assigns the time slot
func (s *Session) SelectDate(date, now time.Time) error {
	if err := s.require(StateAwaitingDate); err != nil {
		return err
	}
	for _, offered := range AvailableDates(now) {
		if sameDay(offered, date) {
			s.Date = offered
			s.TimeSlot = DeliveryTimeSlot
			s.State = StateAwaitingPayment
			return nil
		}
	}
	return ErrDateNotOffered
}

// SelectPayment records the payment method. Disabled methods leave the
// session where it is.
func (s *Session) SelectPayment(m PaymentMethod) error {
	if err := s.require(StateAwaitingPayment); err != nil {
		return err
	}
	switch m {
	case PaymentCash:
	case PaymentCard:
		return ErrPaymentDisabled
	default:
		return ErrUnknownPayment
	}
	s.Payment = m
	s.Notes = ""
	s.State = StateAwaitingConfirmation
	return nil
}

// Edit restarts the flow from the pickup point, dropping earlier answers
func (s *Session) Edit() error {
	if err := s.require(StateAwaitingConfirmation); err != nil {
		return err
	}
	s.PickupPoint = ""
	s.Date = time.Time{}
	s.TimeSlot = ""
	s.Payment = ""
	s.Notes = ""
	s.State = StateAwaitingDeliveryPoint
	return nil
}

// Details returns the delivery fields to copy onto the order
func (s *Session) Details() (domain.DeliveryDetails, error) {
	if err := s.require(StateAwaitingConfirmation); err != nil {
		return domain.DeliveryDetails{}, err
	}
	return domain.DeliveryDetails{
		CustomerName:  s.CustomerName,
		Method:        DeliveryMethodPickup,
		Address:       s.PickupPoint.Address(),
		Date:          s.Date,
		TimeSlot:      s.TimeSlot,
		PaymentMethod: string(s.Payment),
		Notes:         s.Notes,
	}, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
