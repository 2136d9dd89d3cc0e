package service

import (
	"context"
	"time"

	"partforge/internal/domain"
	"partforge/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderService defines the order business logic: the status machine and the
// NEW-only item mutation window. Admin variants bypass the ownership check
// and nothing else — the transition table applies to everyone.
type OrderService interface {
	Create(ctx context.Context, ownerID uuid.UUID) (*domain.Order, error)
	Get(ctx context.Context, ownerID, orderID uuid.UUID) (*domain.Order, error)
	GetAny(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.Order, error)
	AddItem(ctx context.Context, ownerID, orderID, productID uuid.UUID, quantity int) (*domain.Order, error)
	RemoveItem(ctx context.Context, ownerID, orderID, itemID uuid.UUID) error
	UpdateStatus(ctx context.Context, ownerID, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
	UpdateStatusAdmin(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	tx          repository.Transactor
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	tx repository.Transactor,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		tx:          tx,
	}
}

func (s *orderService) Create(ctx context.Context, ownerID uuid.UUID) (*domain.Order, error) {
	order := &domain.Order{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Status:     domain.OrderStatusNew,
		TotalPrice: decimal.Zero,
		Version:    0,
		CreatedAt:  time.Now().UTC(),
		Items:      []domain.OrderItem{},
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

func (s *orderService) Get(ctx context.Context, ownerID, orderID uuid.UUID) (*domain.Order, error) {
	return s.orderRepo.FindByIDForOwner(ctx, orderID, ownerID)
}

func (s *orderService) GetAny(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.orderRepo.FindByID(ctx, orderID)
}

func (s *orderService) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Order, error) {
	return s.orderRepo.ListByOwner(ctx, ownerID)
}

func (s *orderService) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return s.orderRepo.ListAll(ctx)
}

// AddItem adds a product to a NEW order, merging quantities when the product
// is already present. A merged line keeps the unit price frozen when it was
// first added; only a brand-new line captures the current catalogue price.
func (s *orderService) AddItem(ctx context.Context, ownerID, orderID, productID uuid.UUID, quantity int) (*domain.Order, error) {
	if quantity <= 0 {
		return nil, ErrQuantityNotPositive
	}

	var result *domain.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := s.orderRepo.FindByIDForOwner(ctx, orderID, ownerID)
		if err != nil {
			return err
		}

		if order.Status != domain.OrderStatusNew {
			return &OrderStateError{OrderID: order.ID, From: order.Status}
		}

		product, err := s.productRepo.FindByID(ctx, productID)
		if err != nil {
			return err
		}

		merged := false
		for i := range order.Items {
			if order.Items[i].ProductID == productID {
				order.Items[i].Quantity += quantity
				if err := s.orderRepo.UpdateItemQuantity(ctx, order.Items[i].ID, order.Items[i].Quantity); err != nil {
					return err
				}
				merged = true
				break
			}
		}

		if !merged {
			item := domain.OrderItem{
				ID:        uuid.New(),
				OrderID:   order.ID,
				ProductID: product.ID,
				Quantity:  quantity,
				UnitPrice: product.Price,
				Product:   product,
			}
			if err := s.orderRepo.InsertItem(ctx, &item); err != nil {
				return err
			}
			order.Items = append(order.Items, item)
		}

		order.RecalcTotal()
		if err := s.orderRepo.UpdateTotal(ctx, order.ID, order.TotalPrice, order.Version); err != nil {
			return err
		}
		order.Version++

		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *orderService) RemoveItem(ctx context.Context, ownerID, orderID, itemID uuid.UUID) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := s.orderRepo.FindByIDForOwner(ctx, orderID, ownerID)
		if err != nil {
			return err
		}

		if order.Status != domain.OrderStatusNew {
			return &OrderStateError{OrderID: order.ID, From: order.Status}
		}

		remaining := order.Items[:0]
		found := false
		for _, item := range order.Items {
			if item.ID == itemID {
				found = true
				continue
			}
			remaining = append(remaining, item)
		}
		if !found {
			return repository.ErrOrderItemNotFound
		}
		order.Items = remaining

		if err := s.orderRepo.DeleteItem(ctx, itemID); err != nil {
			return err
		}

		order.RecalcTotal()
		return s.orderRepo.UpdateTotal(ctx, order.ID, order.TotalPrice, order.Version)
	})
}

func (s *orderService) UpdateStatus(ctx context.Context, ownerID, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	order, err := s.orderRepo.FindByIDForOwner(ctx, orderID, ownerID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, status)
}

func (s *orderService) UpdateStatusAdmin(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, status)
}

func (s *orderService) transition(ctx context.Context, order *domain.Order, to domain.OrderStatus) (*domain.Order, error) {
	if !order.Status.CanTransitionTo(to) {
		return nil, &OrderStateError{OrderID: order.ID, From: order.Status, To: to}
	}

	if err := s.orderRepo.UpdateStatus(ctx, order.ID, to, order.Version); err != nil {
		return nil, err
	}

	order.Status = to
	order.Version++
	return order, nil
}
