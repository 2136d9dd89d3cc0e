package transport

import (
	"errors"
	"net/http"

	"partforge/internal/middleware"
	"partforge/internal/repository"
	"partforge/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// decodeBody decodes and validates a JSON request body, writing the error
// response itself. Returns false when the request is already answered.
func decodeBody(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v interface{}) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request body validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// authUserID resolves the authenticated caller's UUID from the request
// context, answering with 401 when it is absent or malformed.
func authUserID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		logger.Error("User ID not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		logger.Error("Invalid user ID in context", zap.Error(err))
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}

	return userID, true
}

// pathUUID parses a UUID URL parameter, answering with 400 on garbage.
func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

// parseBodyUUID parses a UUID taken from a request body field.
func parseBodyUUID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product_id")
		return uuid.Nil, false
	}
	return id, true
}

// respondServiceError maps service and repository errors onto the HTTP
// status taxonomy: missing entities 404, identity problems 401, domain
// conflicts 409 with a details payload, everything else 500.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var buildValidation *service.BuildValidationError
	var outOfStock *service.OutOfStockError
	var orderState *service.OrderStateError

	switch {
	case errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrBuildNotFound),
		errors.Is(err, repository.ErrBuildItemNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrOrderItemNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, service.ErrUnauthenticated):
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")

	case errors.Is(err, service.ErrQuantityNotPositive):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())

	case errors.As(err, &buildValidation):
		middleware.RespondWithErrorDetails(w, http.StatusConflict, "build validation failed",
			map[string]interface{}{"reasons": buildValidation.Reasons})

	case errors.As(err, &outOfStock):
		middleware.RespondWithErrorDetails(w, http.StatusConflict, err.Error(),
			map[string]interface{}{
				"product_id": outOfStock.ProductID.String(),
				"requested":  outOfStock.Requested,
				"available":  outOfStock.Available,
			})

	case errors.As(err, &orderState):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())

	case errors.Is(err, service.ErrBuildEmpty),
		errors.Is(err, repository.ErrDuplicateSKU),
		errors.Is(err, repository.ErrUserAlreadyExists),
		errors.Is(err, repository.ErrVersionConflict):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())

	default:
		logger.Error("Unhandled service error", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
