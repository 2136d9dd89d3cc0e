package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"partforge/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderItemNotFound = errors.New("order item not found")
)

// OrderRepository defines the interface for order data access. FindByID and
// ListAll are the admin escape hatches; everything else is owner-scoped.
type OrderRepository interface {
	// Create persists the order together with its items as one write set.
	Create(ctx context.Context, order *domain.Order) error
	FindByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.Order, error)
	// UpdateStatus and UpdateTotal are optimistic-version-checked writes;
	// a stale expectedVersion yields ErrVersionConflict.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, expectedVersion int64) error
	UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal, expectedVersion int64) error
	InsertItem(ctx context.Context, item *domain.OrderItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, owner_id, status, total_price, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	q := querier(ctx, r.db)
	_, err := q.ExecContext(
		ctx,
		query,
		order.ID,
		order.OwnerID,
		order.Status,
		order.TotalPrice,
		order.Version,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for i := range order.Items {
		if err := r.InsertItem(ctx, &order.Items[i]); err != nil {
			return err
		}
	}

	return nil
}

func (r *orderRepository) FindByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Order, error) {
	query := `
		SELECT id, owner_id, status, total_price, version, created_at
		FROM orders
		WHERE id = $1 AND owner_id = $2
	`
	return r.findOne(ctx, query, id, ownerID)
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `
		SELECT id, owner_id, status, total_price, version, created_at
		FROM orders
		WHERE id = $1
	`
	return r.findOne(ctx, query, id)
}

func (r *orderRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Order, error) {
	order := &domain.Order{}
	err := querier(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(
		&order.ID,
		&order.OwnerID,
		&order.Status,
		&order.TotalPrice,
		&order.Version,
		&order.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Order, error) {
	query := `
		SELECT id, owner_id, status, total_price, version, created_at
		FROM orders
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, ownerID)
}

func (r *orderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	query := `
		SELECT id, owner_id, status, total_price, version, created_at
		FROM orders
		ORDER BY created_at DESC
	`
	return r.list(ctx, query)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := querier(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order := &domain.Order{}
		err := rows.Scan(
			&order.ID,
			&order.OwnerID,
			&order.Status,
			&order.TotalPrice,
			&order.Version,
			&order.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	for _, order := range orders {
		items, err := r.loadItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}

	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, expectedVersion int64) error {
	query := `UPDATE orders SET status = $2, version = version + 1 WHERE id = $1 AND version = $3`

	result, err := querier(ctx, r.db).ExecContext(ctx, query, id, status, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrVersionConflict
	}

	return nil
}

func (r *orderRepository) UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal, expectedVersion int64) error {
	query := `UPDATE orders SET total_price = $2, version = version + 1 WHERE id = $1 AND version = $3`

	result, err := querier(ctx, r.db).ExecContext(ctx, query, id, total, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update order total: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrVersionConflict
	}

	return nil
}

func (r *orderRepository) InsertItem(ctx context.Context, item *domain.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := querier(ctx, r.db).ExecContext(ctx, query, item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice)
	if err != nil {
		return fmt.Errorf("failed to insert order item: %w", err)
	}

	return nil
}

func (r *orderRepository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	query := `UPDATE order_items SET quantity = $2 WHERE id = $1`

	result, err := querier(ctx, r.db).ExecContext(ctx, query, itemID, quantity)
	if err != nil {
		return fmt.Errorf("failed to update order item quantity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderItemNotFound
	}

	return nil
}

func (r *orderRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	result, err := querier(ctx, r.db).ExecContext(ctx, `DELETE FROM order_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete order item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderItemNotFound
	}

	return nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price,
		       p.id, p.sku, p.name, p.category, p.price, p.stock, p.spec, p.created_at, p.updated_at
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`

	rows, err := querier(ctx, r.db).QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		item := domain.OrderItem{Product: &domain.Product{}}
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.Product.ID,
			&item.Product.SKU,
			&item.Product.Name,
			&item.Product.Category,
			&item.Product.Price,
			&item.Product.Stock,
			&item.Product.Spec,
			&item.Product.CreatedAt,
			&item.Product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}
