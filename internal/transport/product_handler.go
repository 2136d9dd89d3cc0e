package transport

import (
	"net/http"

	"partforge/internal/domain"
	"partforge/internal/middleware"
	"partforge/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest represents the create/update product payload.
type ProductRequest struct {
	SKU      string          `json:"sku" validate:"required,min=1,max=64"`
	Name     string          `json:"name" validate:"required,min=1,max=255"`
	Category string          `json:"category" validate:"required"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock" validate:"gte=0"`
	Spec     string          `json:"spec"`
}

// StockRequest represents the stock update payload.
type StockRequest struct {
	Stock int `json:"stock" validate:"gte=0"`
}

// ProductResponse represents a catalogue product.
type ProductResponse struct {
	ID       string          `json:"id"`
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Spec     string          `json:"spec,omitempty"`
}

func toProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:       p.ID.String(),
		SKU:      p.SKU,
		Name:     p.Name,
		Category: string(p.Category),
		Price:    p.Price,
		Stock:    p.Stock,
		Spec:     p.Spec,
	}
}

// ProductHandler handles HTTP requests for catalogue operations.
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes. Reads are public, mutations
// require the ADMIN role.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(adminMiddleware)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
			r.Patch("/{id}/stock", h.UpdateStock)
		})
	})
}

func (h *ProductHandler) productInput(w http.ResponseWriter, r *http.Request) (service.ProductInput, bool) {
	var req ProductRequest
	if !decodeBody(w, r, h.logger, &req) {
		return service.ProductInput{}, false
	}

	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return service.ProductInput{}, false
	}

	if req.Price.IsNegative() {
		middleware.RespondWithError(w, http.StatusBadRequest, "price must not be negative")
		return service.ProductInput{}, false
	}

	return service.ProductInput{
		SKU:      req.SKU,
		Name:     req.Name,
		Category: category,
		Price:    req.Price,
		Stock:    req.Stock,
		Spec:     req.Spec,
	}, true
}

// Create handles product creation.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.productInput(w, r)
	if !ok {
		return
	}

	product, err := h.productService.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, toProductResponse(product))
}

// Get returns one product.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}

// List returns catalogue products, optionally filtered by the category and
// name query parameters.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	var category *domain.Category
	if raw := r.URL.Query().Get("category"); raw != "" {
		parsed, err := domain.ParseCategory(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		category = &parsed
	}

	products, err := h.productService.List(r.Context(), category, r.URL.Query().Get("name"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	responses := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		responses = append(responses, toProductResponse(p))
	}
	middleware.RespondWithJSON(w, http.StatusOK, responses)
}

// Update replaces a product's writable fields.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	input, ok := h.productInput(w, r)
	if !ok {
		return
	}

	product, err := h.productService.Update(r.Context(), id, input)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}

// Delete removes a product from the catalogue.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// UpdateStock sets a product's stock level.
func (h *ProductHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req StockRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	product, err := h.productService.UpdateStock(r.Context(), id, req.Stock)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(product))
}
