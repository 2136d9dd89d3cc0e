package repository

import (
	"context"
	"testing"

	"partforge/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(t *testing.T, sku string, category domain.Category, stock int) *domain.Product {
	t.Helper()
	return &domain.Product{
		ID:       uuid.New(),
		SKU:      sku,
		Name:     "test " + sku,
		Category: category,
		Price:    decimal.RequireFromString("129.99"),
		Stock:    stock,
		Spec:     `{"socket":"AM5","tdp":65}`,
	}
}

func TestProductRepository_CreateAndFind(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	p := testProduct(t, "CPU-CF-"+uuid.New().String()[:8], domain.CategoryCPU, 5)
	require.NoError(t, repo.Create(ctx, p))

	found, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, p.SKU, found.SKU)
	assert.Equal(t, p.Category, found.Category)
	assert.Equal(t, p.Stock, found.Stock)
	assert.True(t, found.Price.Equal(p.Price))
	assert.Equal(t, p.Spec, found.Spec)
}

func TestProductRepository_DuplicateSKU(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	sku := "CPU-DUP-" + uuid.New().String()[:8]
	require.NoError(t, repo.Create(ctx, testProduct(t, sku, domain.CategoryCPU, 5)))

	err := repo.Create(ctx, testProduct(t, sku, domain.CategoryCPU, 5))
	assert.ErrorIs(t, err, ErrDuplicateSKU)
}

func TestProductRepository_FindMissing(t *testing.T) {
	repo := NewProductRepository(testDB)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductRepository_ListFilters(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	marker := uuid.New().String()[:8]
	cpu := testProduct(t, "CPU-LF-"+marker, domain.CategoryCPU, 5)
	cpu.Name = "Ryzen " + marker
	gpu := testProduct(t, "GPU-LF-"+marker, domain.CategoryGPU, 5)
	gpu.Name = "Radeon " + marker
	require.NoError(t, repo.Create(ctx, cpu))
	require.NoError(t, repo.Create(ctx, gpu))

	category := domain.CategoryCPU
	cpus, err := repo.List(ctx, &category, marker)
	require.NoError(t, err)
	require.Len(t, cpus, 1)
	assert.Equal(t, cpu.SKU, cpus[0].SKU)

	both, err := repo.List(ctx, nil, marker)
	require.NoError(t, err)
	assert.Len(t, both, 2)
}

func TestProductRepository_DecrementStockGuard(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	p := testProduct(t, "RAM-DS-"+uuid.New().String()[:8], domain.CategoryRAM, 3)
	require.NoError(t, repo.Create(ctx, p))

	ok, err := repo.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	// Only one unit left; asking for two must fail without touching the row.
	ok, err = repo.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Stock)
}

func TestProductRepository_UpdateAndDelete(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	p := testProduct(t, "PSU-UD-"+uuid.New().String()[:8], domain.CategoryPSU, 5)
	require.NoError(t, repo.Create(ctx, p))

	p.Name = "renamed"
	p.Stock = 9
	require.NoError(t, repo.Update(ctx, p))

	found, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", found.Name)
	assert.Equal(t, 9, found.Stock)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
