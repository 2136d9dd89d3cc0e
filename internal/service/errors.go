package service

import (
	"errors"
	"fmt"
	"strings"

	"partforge/internal/domain"

	"github.com/google/uuid"
)

var (
	// ErrBuildEmpty rejects checkout of a build with no items.
	ErrBuildEmpty = errors.New("build is empty")

	// ErrQuantityNotPositive rejects item mutations with quantity <= 0.
	ErrQuantityNotPositive = errors.New("quantity must be > 0")

	// ErrUnauthenticated means the caller's identity could not be resolved.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// BuildValidationError carries the full reason list of a failed validation.
// It is raised by the checkout path and by item-add limit enforcement; the
// read-only validation report returns the same reasons as data instead.
type BuildValidationError struct {
	Reasons []string
}

func (e *BuildValidationError) Error() string {
	return "build validation failed: " + strings.Join(e.Reasons, "; ")
}

// OutOfStockError reports a stock shortfall detected during checkout.
type OutOfStockError struct {
	ProductID uuid.UUID
	Requested int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("not enough stock for product %s (requested %d, available %d)",
		e.ProductID, e.Requested, e.Available)
}

// OrderStateError reports an illegal status transition or an item mutation
// outside the NEW window. From is always set; To is empty for mutations.
type OrderStateError struct {
	OrderID uuid.UUID
	From    domain.OrderStatus
	To      domain.OrderStatus
}

func (e *OrderStateError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("order %s cannot be modified when status is %s", e.OrderID, e.From)
	}
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}
