package transport

import (
	"net/http"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LoginRequest represents the admin login payload
type LoginRequest struct {
	TelegramID int64  `json:"telegram_id" validate:"required,gt=0"`
	Password   string `json:"password" validate:"required"`
}

// LoginResponse carries the issued access token
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AdminProfile describes the authenticated caller
type AdminProfile struct {
	TelegramID int64  `json:"telegram_id"`
	Role       string `json:"role"`
}

// AdminHandler handles admin authentication
type AdminHandler struct {
	adminService service.AdminService
	logger       *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(adminService service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		logger:       logger,
	}
}

// RegisterRoutes registers the login endpoint and the protected profile endpoint
func (h *AdminHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/api/admin/login", h.Login)
	r.With(authMiddleware).Get("/api/admin/me", h.Me)
}

// Login exchanges the admin Telegram id and password for a token
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	token, expiresAt, err := h.adminService.Login(r.Context(), req.TelegramID, req.Password)
	if err != nil {
		h.logger.Warn("Admin login failed", zap.Int64("telegram_id", req.TelegramID), zap.Error(err))
		middleware.RespondWithServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Admin logged in", zap.Int64("telegram_id", req.TelegramID))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	})
}

// Me returns the caller's identity
func (h *AdminHandler) Me(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetAdminID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	role, _ := middleware.GetUserRole(r.Context())
	middleware.RespondWithJSON(w, http.StatusOK, AdminProfile{TelegramID: adminID, Role: role})
}
