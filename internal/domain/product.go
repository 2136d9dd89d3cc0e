package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category classifies a product as a PC component type.
type Category string

const (
	CategoryCPU     Category = "CPU"
	CategoryMB      Category = "MB"
	CategoryRAM     Category = "RAM"
	CategoryGPU     Category = "GPU"
	CategoryCase    Category = "CASE"
	CategoryPSU     Category = "PSU"
	CategoryStorage Category = "STORAGE"
	CategoryCooler  Category = "COOLER"
	CategoryOther   Category = "OTHER"
)

var categories = map[Category]struct{}{
	CategoryCPU:     {},
	CategoryMB:      {},
	CategoryRAM:     {},
	CategoryGPU:     {},
	CategoryCase:    {},
	CategoryPSU:     {},
	CategoryStorage: {},
	CategoryCooler:  {},
	CategoryOther:   {},
}

// ParseCategory converts a string into a known Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := categories[c]; !ok {
		return "", fmt.Errorf("unknown product category %q", s)
	}
	return c, nil
}

// Product is a purchasable hardware component. Spec holds free-form JSON
// attributes (socket, tdp, wattage, ...) that the compatibility estimator
// reads; an empty or malformed blob is advisory only and never blocks
// catalogue operations.
type Product struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	SKU       string          `json:"sku" db:"sku"`
	Name      string          `json:"name" db:"name"`
	Category  Category        `json:"category" db:"category"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Stock     int             `json:"stock" db:"stock"`
	Spec      string          `json:"spec" db:"spec"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
