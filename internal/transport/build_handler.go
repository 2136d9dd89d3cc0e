package transport

import (
	"net/http"

	"partforge/internal/domain"
	"partforge/internal/middleware"
	"partforge/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateBuildRequest represents the build creation payload.
type CreateBuildRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// AddItemRequest represents the add-item payload shared by builds and orders.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// BuildItemResponse represents one line of a build.
type BuildItemResponse struct {
	ID       string           `json:"id"`
	Quantity int              `json:"quantity"`
	Product  *ProductResponse `json:"product,omitempty"`
}

// BuildResponse represents a build with its items.
type BuildResponse struct {
	ID      string              `json:"id"`
	Name    string              `json:"name"`
	OwnerID string              `json:"owner_id"`
	Version int64               `json:"version"`
	Items   []BuildItemResponse `json:"items"`
}

func toBuildResponse(b *domain.Build) BuildResponse {
	items := make([]BuildItemResponse, 0, len(b.Items))
	for i := range b.Items {
		item := BuildItemResponse{
			ID:       b.Items[i].ID.String(),
			Quantity: b.Items[i].Quantity,
		}
		if b.Items[i].Product != nil {
			p := toProductResponse(b.Items[i].Product)
			item.Product = &p
		}
		items = append(items, item)
	}

	return BuildResponse{
		ID:      b.ID.String(),
		Name:    b.Name,
		OwnerID: b.OwnerID.String(),
		Version: b.Version,
		Items:   items,
	}
}

// BuildHandler handles HTTP requests for build operations.
type BuildHandler struct {
	buildService service.BuildService
	logger       *zap.Logger
}

// NewBuildHandler creates a new BuildHandler.
func NewBuildHandler(buildService service.BuildService, logger *zap.Logger) *BuildHandler {
	return &BuildHandler{
		buildService: buildService,
		logger:       logger,
	}
}

// RegisterRoutes registers all build routes. Everything is owner-scoped and
// requires authentication.
func (h *BuildHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/builds", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/items", h.AddItem)
		r.Delete("/{id}/items/{itemId}", h.RemoveItem)
		r.Get("/{id}/compatibility", h.CheckCompatibility)
		r.Get("/{id}/validate", h.Validate)
		r.Get("/{id}/summary", h.Summary)
		r.Post("/{id}/checkout", h.Checkout)
	})
}

// Create handles build creation.
func (h *BuildHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateBuildRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	build, err := h.buildService.Create(r.Context(), userID, req.Name)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Build created",
		zap.String("build_id", build.ID.String()),
		zap.String("owner_id", userID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, toBuildResponse(build))
}

// List returns the caller's builds.
func (h *BuildHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(w, r, h.logger)
	if !ok {
		return
	}

	builds, err := h.buildService.List(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	responses := make([]BuildResponse, 0, len(builds))
	for _, b := range builds {
		responses = append(responses, toBuildResponse(b))
	}
	middleware.RespondWithJSON(w, http.StatusOK, responses)
}

// Get returns one of the caller's builds.
func (h *BuildHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(w, r, h.logger)
	if !ok {
		return
	}
	buildID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	build, err := h.buildService.Get(r.Context(), userID, buildID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toBuildResponse(build))
}

// AddItem adds a product to the build, merging quantities for products
// already present.
func (h *BuildHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(w, r, h.logger)
	if !ok {
		return
	}
	buildID, ok := pathUUID(w, r, "id")
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

	build, err := h.buildService.AddItem(r.Context(), userID, buildID, productID, req.Quantity)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toBuildResponse(build))
}

// RemoveItem removes one line from the build.
func (h *BuildHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(w, r, h.logger)
	if !ok {
		return
	}
	buildID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemId")
	if !ok {
		return
	}

	if err := h.buildService.RemoveItem(r.Context(), userID, buildID, itemID); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CheckCompatibility returns the advisory compatibility report.
func (h *BuildHandler) CheckCompatibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(w, r, h.logger)
	if !ok {
		return
	}
	buildID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	report, err := h.buildService.CheckCompatibility(r.Context(), userID, buildID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, report)
}

// Validate returns the blocking pass/fail verdict as data.
func (h *BuildHandler) Validate(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(w, r, h.logger)
	if !ok {
		return
	}
	buildID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	validation, err := h.buildService.Validate(r.Context(), userID, buildID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, validation)
}

// Summary returns the condensed per-build view.
func (h *BuildHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(w, r, h.logger)
	if !ok {
		return
	}
	buildID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	summary, err := h.buildService.Summary(r.Context(), userID, buildID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, summary)
}

// Checkout converts the build into a NEW order in one transaction.
func (h *BuildHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(w, r, h.logger)
	if !ok {
		return
	}
	buildID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.buildService.Checkout(r.Context(), userID, buildID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Build checked out",
		zap.String("build_id", buildID.String()),
		zap.String("order_id", order.ID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, toOrderResponse(order))
}
