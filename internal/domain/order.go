package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "NEW"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus converts a string into a known OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderStatusNew, OrderStatusPaid, OrderStatusShipped, OrderStatusCancelled:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// CanTransitionTo reports whether the status machine allows moving from s to
// the target status. SHIPPED and CANCELLED are terminal; no self-loops.
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	switch s {
	case OrderStatusNew:
		return to == OrderStatusPaid || to == OrderStatusCancelled
	case OrderStatusPaid:
		return to == OrderStatusShipped || to == OrderStatusCancelled
	default:
		return false
	}
}

// Order is a checked-out (or manually created) purchase. TotalPrice is
// derived from the items and recomputed from scratch after every mutation.
// Version guards against lost updates under concurrent modification.
type Order struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	OwnerID    uuid.UUID       `json:"owner_id" db:"owner_id"`
	Status     OrderStatus     `json:"status" db:"status"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
	Version    int64           `json:"version" db:"version"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	Items      []OrderItem     `json:"items"`
}

// OrderItem is one order line. UnitPrice is frozen at the moment the item
// was added or checked out and never tracks later catalogue price changes.
type OrderItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`

	Product *Product `json:"product,omitempty"`
}

// RecalcTotal recomputes TotalPrice as Σ quantity × unit price over the
// current items. Always a full recomputation, never incremental.
func (o *Order) RecalcTotal() {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	o.TotalPrice = total
}
