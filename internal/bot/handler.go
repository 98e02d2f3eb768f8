package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Screen is the view to show after a command
type Screen int

const (
	ScreenMainMenu Screen = iota
	ScreenAbout
	ScreenContact
	ScreenCategories
	ScreenBrands
	ScreenProducts
	ScreenProduct
	ScreenProductMissing
	ScreenCart
	ScreenPickupPoints
	ScreenDates
	ScreenPayment
	ScreenConfirmation
	ScreenOrderPlaced
	ScreenCheckoutCancelled
	ScreenAdminStats
	ScreenAccessDenied
)

// Notice is a short popup shown alongside or instead of a screen change
type Notice int

const (
	NoticeNone Notice = iota
	NoticeAddedToCart
	NoticeOutOfStock
	NoticeMinimumQuantity
	NoticeLineGone
	NoticeEmptyCart
	NoticePaymentDisabled
	NoticeDateNotOffered
	NoticeSessionExpired
	NoticeFailed
)

// Response is a structured reply; Render turns it into a message
type Response struct {
	Screen Screen
	Notice Notice
	// KeepScreen leaves the current message alone and only shows Notice
	KeepScreen bool

	Customer   *domain.User
	Categories []*domain.Category
	Brands     []*domain.Brand
	Products   []*domain.Product
	Product    *domain.ProductDetail
	Cart       *domain.Cart
	Dates      []time.Time
	Preview    *service.Preview
	Order      *domain.Order
	Stats      *domain.OrderStats

	// BackTo is the command behind the Back button of drill-down screens
	BackTo Command
}

// Handler executes commands against the services
type Handler struct {
	users    service.UserService
	catalog  service.CatalogService
	carts    service.CartService
	checkout service.CheckoutService
	orders   service.OrderService
	adminID  int64
	logger   *zap.Logger
}

// NewHandler creates a new Handler. adminID may be zero to disable /admin.
func NewHandler(
	users service.UserService,
	catalog service.CatalogService,
	carts service.CartService,
	checkoutService service.CheckoutService,
	orders service.OrderService,
	adminID int64,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		users:    users,
		catalog:  catalog,
		carts:    carts,
		checkout: checkoutService,
		orders:   orders,
		adminID:  adminID,
		logger:   logger.Named("bot"),
	}
}

// Handle resolves the Telegram user and runs cmd on their behalf. Business
// rule rejections come back as notices; only failures are errors.
func (h *Handler) Handle(ctx context.Context, profile service.TelegramProfile, cmd Command) (Response, error) {
	customer, err := h.users.Resolve(ctx, profile)
	if err != nil {
		return Response{}, err
	}

	resp, err := h.dispatch(ctx, customer, cmd)
	if err != nil {
		if notice, ok := noticeFor(err); ok {
			return Response{KeepScreen: true, Notice: notice}, nil
		}
		return Response{}, fmt.Errorf("intent %d: %w", cmd.Intent, err)
	}
	resp.Customer = customer
	return resp, nil
}

func noticeFor(err error) (Notice, bool) {
	switch {
	case errors.Is(err, domain.ErrOutOfStock):
		return NoticeOutOfStock, true
	case errors.Is(err, domain.ErrMinimumQuantity):
		return NoticeMinimumQuantity, true
	case errors.Is(err, domain.ErrEmptyCart):
		return NoticeEmptyCart, true
	case errors.Is(err, repository.ErrCartItemNotFound), errors.Is(err, repository.ErrProductNotFound):
		return NoticeLineGone, true
	case errors.Is(err, checkout.ErrPaymentDisabled):
		return NoticePaymentDisabled, true
	case errors.Is(err, checkout.ErrDateNotOffered):
		return NoticeDateNotOffered, true
	case errors.Is(err, checkout.ErrSessionNotFound), errors.Is(err, checkout.ErrWrongState):
		return NoticeSessionExpired, true
	}
	return NoticeNone, false
}

func (h *Handler) dispatch(ctx context.Context, customer *domain.User, cmd Command) (Response, error) {
	switch cmd.Intent {
	case IntentStart:
		return h.start(ctx, customer)
	case IntentMainMenu:
		return Response{Screen: ScreenMainMenu}, nil
	case IntentAbout:
		return Response{Screen: ScreenAbout}, nil
	case IntentContact:
		return Response{Screen: ScreenContact}, nil
	case IntentCatalog:
		categories, err := h.catalog.Categories(ctx)
		return Response{Screen: ScreenCategories, Categories: categories}, err
	case IntentCategory:
		brands, err := h.catalog.Brands(ctx, cmd.ID)
		return Response{Screen: ScreenBrands, Brands: brands, BackTo: Command{Intent: IntentCatalog}}, err
	case IntentBrand:
		products, err := h.catalog.Products(ctx, cmd.ID)
		return Response{Screen: ScreenProducts, Products: products, BackTo: Command{Intent: IntentCatalog}}, err
	case IntentProduct:
		return h.product(ctx, cmd.ID)
	case IntentAddToCart:
		if err := h.carts.Add(ctx, customer.ID, cmd.ID, 1); err != nil {
			return Response{}, err
		}
		return Response{KeepScreen: true, Notice: NoticeAddedToCart}, nil
	case IntentCart:
		return h.cart(ctx, customer.ID, NoticeNone)
	case IntentIncrease:
		return h.cartMutation(ctx, customer.ID, h.carts.Increase(ctx, customer.ID, cmd.ID))
	case IntentDecrease:
		return h.cartMutation(ctx, customer.ID, h.carts.Decrease(ctx, customer.ID, cmd.ID))
	case IntentRemove:
		return h.cartMutation(ctx, customer.ID, h.carts.Remove(ctx, customer.ID, cmd.ID))
	case IntentCheckout:
		if _, err := h.checkout.Begin(ctx, customer); err != nil {
			return Response{}, err
		}
		return Response{Screen: ScreenPickupPoints}, nil
	case IntentPickupPoint:
		if _, err := h.checkout.SelectPickupPoint(customer.ID, cmd.Pickup); err != nil {
			return Response{}, err
		}
		return Response{Screen: ScreenDates, Dates: h.checkout.AvailableDates()}, nil
	case IntentDate:
		if _, err := h.checkout.SelectDate(customer.ID, cmd.Date); err != nil {
			return Response{}, err
		}
		return Response{Screen: ScreenPayment}, nil
	case IntentPayment:
		if _, err := h.checkout.SelectPayment(customer.ID, cmd.Payment); err != nil {
			return Response{}, err
		}
		preview, err := h.checkout.Preview(ctx, customer.ID)
		return Response{Screen: ScreenConfirmation, Preview: preview}, err
	case IntentEdit:
		if _, err := h.checkout.Edit(customer.ID); err != nil {
			return Response{}, err
		}
		return Response{Screen: ScreenPickupPoints}, nil
	case IntentCancelCheckout:
		h.checkout.Cancel(customer.ID)
		return Response{Screen: ScreenCheckoutCancelled}, nil
	case IntentConfirm:
		return h.confirm(ctx, customer)
	case IntentAdmin:
		return h.admin(ctx, customer)
	}
	return Response{}, ErrUnknownCommand
}

// start greets the user with an empty cart and no checkout in progress
func (h *Handler) start(ctx context.Context, customer *domain.User) (Response, error) {
	if err := h.carts.Clear(ctx, customer.ID); err != nil {
		return Response{}, err
	}
	h.checkout.Cancel(customer.ID)
	return Response{Screen: ScreenMainMenu}, nil
}

func (h *Handler) product(ctx context.Context, id uuid.UUID) (Response, error) {
	detail, found, err := h.catalog.ProductDetail(ctx, id)
	if err != nil {
		return Response{}, err
	}
	if !found {
		return Response{Screen: ScreenProductMissing, BackTo: Command{Intent: IntentCatalog}}, nil
	}
	return Response{
		Screen:  ScreenProduct,
		Product: detail,
		BackTo:  Command{Intent: IntentBrand, ID: detail.BrandID},
	}, nil
}

func (h *Handler) cart(ctx context.Context, userID uuid.UUID, notice Notice) (Response, error) {
	cart, err := h.carts.Cart(ctx, userID)
	if err != nil {
		return Response{}, err
	}
	return Response{Screen: ScreenCart, Cart: cart, Notice: notice}, nil
}

// cartMutation redraws the cart after a line change; rule rejections are
// shown over the refreshed cart
func (h *Handler) cartMutation(ctx context.Context, userID uuid.UUID, err error) (Response, error) {
	notice := NoticeNone
	if err != nil {
		var ok bool
		if notice, ok = noticeFor(err); !ok {
			return Response{}, err
		}
	}
	return h.cart(ctx, userID, notice)
}

func (h *Handler) confirm(ctx context.Context, customer *domain.User) (Response, error) {
	order, err := h.checkout.Confirm(ctx, customer)
	if err == nil {
		return Response{Screen: ScreenOrderPlaced, Order: order}, nil
	}

	if notice, ok := noticeFor(err); ok {
		h.logger.Info("Order rejected",
			zap.Stringer("user_id", customer.ID),
			zap.Error(err),
		)
		// The cart no longer matches the preview; show it again
		resp, cartErr := h.cart(ctx, customer.ID, notice)
		if cartErr != nil {
			return Response{}, cartErr
		}
		return resp, nil
	}
	if errors.Is(err, service.ErrOrderCreationFailed) {
		h.logger.Error("Order creation failed", zap.Stringer("user_id", customer.ID), zap.Error(err))
		return Response{KeepScreen: true, Notice: NoticeFailed}, nil
	}
	return Response{}, err
}

func (h *Handler) admin(ctx context.Context, customer *domain.User) (Response, error) {
	if h.adminID == 0 || customer.TelegramID != h.adminID {
		return Response{Screen: ScreenAccessDenied}, nil
	}
	stats, err := h.orders.Stats(ctx)
	if err != nil {
		return Response{}, err
	}
	return Response{Screen: ScreenAdminStats, Stats: stats}, nil
}
