package transport

import (
	"net/http"
	"time"

	"partforge/internal/domain"
	"partforge/internal/middleware"
	"partforge/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UpdateStatusRequest represents the status transition payload.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderItemResponse represents one line of an order with its frozen price.
type OrderItemResponse struct {
	ID        string           `json:"id"`
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	Product   *ProductResponse `json:"product,omitempty"`
}

// OrderResponse represents an order with its items.
type OrderResponse struct {
	ID         string              `json:"id"`
	OwnerID    string              `json:"owner_id"`
	Status     string              `json:"status"`
	TotalPrice decimal.Decimal     `json:"total_price"`
	Version    int64               `json:"version"`
	CreatedAt  time.Time           `json:"created_at"`
	Items      []OrderItemResponse `json:"items"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for i := range o.Items {
		item := OrderItemResponse{
			ID:        o.Items[i].ID.String(),
			ProductID: o.Items[i].ProductID.String(),
			Quantity:  o.Items[i].Quantity,
			UnitPrice: o.Items[i].UnitPrice,
		}
		if o.Items[i].Product != nil {
			p := toProductResponse(o.Items[i].Product)
			item.Product = &p
		}
		items = append(items, item)
	}

	return OrderResponse{
		ID:         o.ID.String(),
		OwnerID:    o.OwnerID.String(),
		Status:     string(o.Status),
		TotalPrice: o.TotalPrice,
		Version:    o.Version,
		CreatedAt:  o.CreatedAt,
		Items:      items,
	}
}

// OrderHandler handles HTTP requests for order operations.
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers owner-scoped order routes plus the admin surface.
// Admin bypasses ownership only; the status transition table still applies.
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/items", h.AddItem)
		r.Delete("/{id}/items/{itemId}", h.RemoveItem)
		r.Put("/{id}/status", h.UpdateStatus)
	})

	r.Route("/api/admin/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(adminMiddleware)

		r.Get("/", h.ListAll)
		r.Get("/{id}", h.GetAny)
		r.Put("/{id}/status", h.UpdateStatusAdmin)
	})
}

// Create opens an empty NEW order for the caller.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(w, r, h.logger)
	if !ok {
		return
	}

	order, err := h.orderService.Create(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("owner_id", userID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, toOrderResponse(order))
}

// List returns the caller's orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.orderService.List(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toOrderResponses(orders))
}

// Get returns one of the caller's orders.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(w, r, h.logger)
	if !ok {
		return
	}
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orderService.Get(r.Context(), userID, orderID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toOrderResponse(order))
}

// AddItem adds a product to a NEW order.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(w, r, h.logger)
	if !ok {
		return
	}
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req AddItemRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	productID, ok := parseBodyUUID(w, req.ProductID)
	if !ok {
		return
	}

	order, err := h.orderService.AddItem(r.Context(), userID, orderID, productID, req.Quantity)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toOrderResponse(order))
}

// RemoveItem removes one line from a NEW order.
func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(w, r, h.logger)
	if !ok {
		return
	}
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemId")
	if !ok {
		return
	}

	if err := h.orderService.RemoveItem(r.Context(), userID, orderID, itemID); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateStatus applies a status transition to the caller's order.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(w, r, h.logger)
	if !ok {
		return
	}
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	status, ok := h.statusFromBody(w, r)
	if !ok {
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), userID, orderID, status)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, toOrderResponse(order))
}

// ListAll returns every order in the system.
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListAll(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toOrderResponses(orders))
}

// GetAny returns any order regardless of owner.
func (h *OrderHandler) GetAny(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetAny(r.Context(), orderID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toOrderResponse(order))
}

// UpdateStatusAdmin applies a status transition to any order.
func (h *OrderHandler) UpdateStatusAdmin(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	status, ok := h.statusFromBody(w, r)
	if !ok {
		return
	}

	order, err := h.orderService.UpdateStatusAdmin(r.Context(), orderID, status)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Order status updated by admin",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) statusFromBody(w http.ResponseWriter, r *http.Request) (domain.OrderStatus, bool) {
	var req UpdateStatusRequest
	if !decodeBody(w, r, h.logger, &req) {
		return "", false
	}

	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return "", false
	}

	return status, true
}

func toOrderResponses(orders []*domain.Order) []OrderResponse {
	responses := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		responses = append(responses, toOrderResponse(o))
	}
	return responses
}
