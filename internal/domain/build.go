package domain

import (
	"time"

	"github.com/google/uuid"
)

// Build is a user's in-progress component cart. Version is an optimistic
// concurrency counter: every write carries the expected version and bumps it.
type Build struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	Name      string      `json:"name" db:"name"`
	OwnerID   uuid.UUID   `json:"owner_id" db:"owner_id"`
	Version   int64       `json:"version" db:"version"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	Items     []BuildItem `json:"items"`
}

// BuildItem is one line of a build. A build holds at most one item per
// product; adding the same product again merges quantities.
type BuildItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	BuildID   uuid.UUID `json:"build_id" db:"build_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`

	// Product is the joined catalogue row, populated on load.
	Product *Product `json:"product,omitempty"`
}

// QuantityByCategory sums item quantities for one category across the build.
func (b *Build) QuantityByCategory(c Category) int {
	total := 0
	for _, it := range b.Items {
		if it.Product != nil && it.Product.Category == c {
			total += it.Quantity
		}
	}
	return total
}

// FirstItemByCategory returns the first item of the given category, or nil.
func (b *Build) FirstItemByCategory(c Category) *BuildItem {
	for i := range b.Items {
		if b.Items[i].Product != nil && b.Items[i].Product.Category == c {
			return &b.Items[i]
		}
	}
	return nil
}

// TotalQuantity sums the quantities of all items.
func (b *Build) TotalQuantity() int {
	total := 0
	for _, it := range b.Items {
		total += it.Quantity
	}
	return total
}
