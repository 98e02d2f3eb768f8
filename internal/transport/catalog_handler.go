package transport

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest is the create and update payload for a product
type ProductRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url,max=500"`
	IsActive    *bool           `json:"is_active"`
	CategoryID  string          `json:"category_id" validate:"required,uuid"`
	BrandID     string          `json:"brand_id" validate:"required,uuid"`
}

func (req ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		ImageURL:    req.ImageURL,
		IsActive:    req.IsActive == nil || *req.IsActive,
		CategoryID:  uuid.MustParse(req.CategoryID),
		BrandID:     uuid.MustParse(req.BrandID),
	}
}

// GroupRequest is the create and update payload for a category or brand
type GroupRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
	IsActive    *bool  `json:"is_active"`
}

func (req GroupRequest) input() service.GroupInput {
	return service.GroupInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
}

// CatalogHandler is the admin inventory API
type CatalogHandler struct {
	inventory service.InventoryService
	logger    *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(inventory service.InventoryService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		inventory: inventory,
		logger:    logger,
	}
}

// RegisterRoutes registers product, category and brand routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router, adminMiddleware ...func(http.Handler) http.Handler) {
	r.Route("/api/admin/products", func(r chi.Router) {
		r.Use(adminMiddleware...)
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Get("/{id}", h.GetProduct)
		r.Put("/{id}", h.UpdateProduct)
		r.Delete("/{id}", h.DeleteProduct)
	})
	r.Route("/api/admin/categories", func(r chi.Router) {
		r.Use(adminMiddleware...)
		r.Get("/", h.ListCategories)
		r.Post("/", h.CreateCategory)
		r.Put("/{id}", h.UpdateCategory)
		r.Delete("/{id}", h.DeleteCategory)
	})
	r.Route("/api/admin/brands", func(r chi.Router) {
		r.Use(adminMiddleware...)
		r.Get("/", h.ListBrands)
		r.Post("/", h.CreateBrand)
		r.Put("/{id}", h.UpdateBrand)
		r.Delete("/{id}", h.DeleteBrand)
	})
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.inventory.ListProducts(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	product, err := h.inventory.GetProduct(r.Context(), id)
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	product, err := h.inventory.CreateProduct(r.Context(), req.input())
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Product created", zap.Stringer("product_id", product.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ProductRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	if _, err := h.inventory.UpdateProduct(r.Context(), id, req.input()); err != nil {
		middleware.RespondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithMessage(w, http.StatusOK, "product updated")
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.inventory.DeleteProduct(r.Context(), id); err != nil {
		middleware.RespondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithMessage(w, http.StatusOK, "product deleted")
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.inventory.ListCategories(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req GroupRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	category, err := h.inventory.CreateCategory(r.Context(), req.input())
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req GroupRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	if _, err := h.inventory.UpdateCategory(r.Context(), id, req.input()); err != nil {
		middleware.RespondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithMessage(w, http.StatusOK, "category updated")
}

func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.inventory.DeleteCategory(r.Context(), id); err != nil {
		middleware.RespondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithMessage(w, http.StatusOK, "category deleted")
}

func (h *CatalogHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.inventory.ListBrands(r.Context())
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, brands)
}

func (h *CatalogHandler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var req GroupRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	brand, err := h.inventory.CreateBrand(r.Context(), req.input())
	if err != nil {
		middleware.RespondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, brand)
}

func (h *CatalogHandler) UpdateBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req GroupRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	if _, err := h.inventory.UpdateBrand(r.Context(), id, req.input()); err != nil {
		middleware.RespondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithMessage(w, http.StatusOK, "brand updated")
}

func (h *CatalogHandler) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.inventory.DeleteBrand(r.Context(), id); err != nil {
		middleware.RespondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithMessage(w, http.StatusOK, "brand deleted")
}
