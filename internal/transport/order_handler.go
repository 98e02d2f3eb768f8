package transport

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UpdateStatusRequest is the payload of PATCH /orders/{id}/status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
}

// OrderHandler exposes the order ledger to the admin console
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers order routes behind the admin middleware chain
func (h *OrderHandler) RegisterRoutes(r chi.Router, adminMiddleware ...func(http.Handler) http.Handler) {
	r.Route("/api/admin/orders", func(r chi.Router) {
		r.Use(adminMiddleware...)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}/status", h.UpdateStatus)
		r.Delete("/{id}", h.Delete)
	})
	r.With(adminMiddleware...).Get("/api/admin/stats", h.Stats)
}

// List returns orders, optionally filtered by ?status=
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListOrders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// Get returns one order with its lines and customer
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), id)
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// UpdateStatus moves an order through its lifecycle
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	change, err := h.orderService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err)
		return
	}

	if !change.Changed {
		middleware.RespondWithMessage(w, http.StatusOK, "order is already "+string(change.To))
		return
	}
	middleware.RespondWithMessage(w, http.StatusOK, "order status changed to "+string(change.To))
}

// Delete removes an order and its lines
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.orderService.DeleteOrder(r.Context(), id); err != nil {
		middleware.RespondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithMessage(w, http.StatusOK, "order deleted")
}

// Stats returns counts per status and revenue
func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orderService.Stats(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, stats)
}
