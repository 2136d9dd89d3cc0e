package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"partforge/internal/domain"
	"partforge/internal/middleware"
	"partforge/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubOrderService struct {
	updateStatusFn      func(ctx context.Context, ownerID, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
	updateStatusAdminFn func(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
	listAllFn           func(ctx context.Context) ([]*domain.Order, error)
}

func (s *stubOrderService) Create(ctx context.Context, ownerID uuid.UUID) (*domain.Order, error) {
	return nil, nil
}

func (s *stubOrderService) Get(ctx context.Context, ownerID, orderID uuid.UUID) (*domain.Order, error) {
	return nil, nil
}

func (s *stubOrderService) GetAny(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return nil, nil
}

func (s *stubOrderService) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Order, error) {
	return nil, nil
}

func (s *stubOrderService) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return s.listAllFn(ctx)
}

func (s *stubOrderService) AddItem(ctx context.Context, ownerID, orderID, productID uuid.UUID, quantity int) (*domain.Order, error) {
	return nil, nil
}

func (s *stubOrderService) RemoveItem(ctx context.Context, ownerID, orderID, itemID uuid.UUID) error {
	return nil
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, ownerID, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	return s.updateStatusFn(ctx, ownerID, orderID, status)
}

func (s *stubOrderService) UpdateStatusAdmin(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	return s.updateStatusAdminFn(ctx, orderID, status)
}

func orderRouter(svc service.OrderService, userID uuid.UUID, role string) chi.Router {
	r := chi.NewRouter()
	h := NewOrderHandler(svc, zap.NewNop())

	auth := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID.String())
			ctx = context.WithValue(ctx, middleware.UserRoleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
	h.RegisterRoutes(r, auth, middleware.RequireAdmin(zap.NewNop()))
	return r
}

func statusBody(t *testing.T, status string) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(map[string]string{"status": status})
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestOrderHandler_UpdateStatusMapsStateErrorTo409(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrderService{
		updateStatusFn: func(ctx context.Context, ownerID, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
			return nil, &service.OrderStateError{From: domain.OrderStatusShipped, To: status}
		},
	}
	router := orderRouter(svc, userID, domain.RoleUser)

	req := httptest.NewRequest("PUT", "/api/orders/"+uuid.New().String()+"/status", statusBody(t, "PAID"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestOrderHandler_UpdateStatusRejectsUnknownStatus(t *testing.T) {
	router := orderRouter(&stubOrderService{}, uuid.New(), domain.RoleUser)

	req := httptest.NewRequest("PUT", "/api/orders/"+uuid.New().String()+"/status", statusBody(t, "REFUNDED"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_AdminRoutesRejectPlainUsers(t *testing.T) {
	router := orderRouter(&stubOrderService{}, uuid.New(), domain.RoleUser)

	req := httptest.NewRequest("GET", "/api/admin/orders", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOrderHandler_AdminRoutesAllowAdmins(t *testing.T) {
	svc := &stubOrderService{
		listAllFn: func(ctx context.Context) ([]*domain.Order, error) {
			return []*domain.Order{}, nil
		},
	}
	router := orderRouter(svc, uuid.New(), domain.RoleAdmin)

	req := httptest.NewRequest("GET", "/api/admin/orders", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp)
}

func TestOrderHandler_AdminStatusUpdateStillWalksTheTable(t *testing.T) {
	svc := &stubOrderService{
		updateStatusAdminFn: func(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
			return nil, &service.OrderStateError{From: domain.OrderStatusCancelled, To: status}
		},
	}
	router := orderRouter(svc, uuid.New(), domain.RoleAdmin)

	req := httptest.NewRequest("PUT", "/api/admin/orders/"+uuid.New().String()+"/status", statusBody(t, "PAID"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}
