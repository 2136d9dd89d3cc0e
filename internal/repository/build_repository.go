package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"partforge/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrBuildNotFound     = errors.New("build not found")
	ErrBuildItemNotFound = errors.New("build item not found")
)

// BuildRepository defines the interface for build (cart) data access. All
// reads are owner-scoped: a build that exists but belongs to someone else is
// indistinguishable from a missing one.
type BuildRepository interface {
	Create(ctx context.Context, build *domain.Build) error
	FindByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Build, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Build, error)
	// BumpVersion applies the optimistic-concurrency write: it increments the
	// version only when the stored version still equals expectedVersion, and
	// returns ErrVersionConflict otherwise.
	BumpVersion(ctx context.Context, id uuid.UUID, expectedVersion int64) error
	InsertItem(ctx context.Context, item *domain.BuildItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
}

type buildRepository struct {
	db *sql.DB
}

// NewBuildRepository creates a new instance of BuildRepository.
func NewBuildRepository(db *sql.DB) BuildRepository {
	return &buildRepository{db: db}
}

func (r *buildRepository) Create(ctx context.Context, build *domain.Build) error {
	query := `
		INSERT INTO builds (id, name, owner_id, version, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := querier(ctx, r.db).ExecContext(
		ctx,
		query,
		build.ID,
		build.Name,
		build.OwnerID,
		build.Version,
		build.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create build: %w", err)
	}

	return nil
}

func (r *buildRepository) FindByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Build, error) {
	query := `
		SELECT id, name, owner_id, version, created_at
		FROM builds
		WHERE id = $1 AND owner_id = $2
	`

	build := &domain.Build{}
	err := querier(ctx, r.db).QueryRowContext(ctx, query, id, ownerID).Scan(
		&build.ID,
		&build.Name,
		&build.OwnerID,
		&build.Version,
		&build.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBuildNotFound
		}
		return nil, fmt.Errorf("failed to find build by ID: %w", err)
	}

	items, err := r.loadItems(ctx, build.ID)
	if err != nil {
		return nil, err
	}
	build.Items = items

	return build, nil
}

func (r *buildRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Build, error) {
	query := `
		SELECT id, name, owner_id, version, created_at
		FROM builds
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := querier(ctx, r.db).QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer rows.Close()

	builds := []*domain.Build{}
	for rows.Next() {
		build := &domain.Build{}
		if err := rows.Scan(&build.ID, &build.Name, &build.OwnerID, &build.Version, &build.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		builds = append(builds, build)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating builds: %w", err)
	}

	for _, build := range builds {
		items, err := r.loadItems(ctx, build.ID)
		if err != nil {
			return nil, err
		}
		build.Items = items
	}

	return builds, nil
}

func (r *buildRepository) BumpVersion(ctx context.Context, id uuid.UUID, expectedVersion int64) error {
	query := `UPDATE builds SET version = version + 1 WHERE id = $1 AND version = $2`

	result, err := querier(ctx, r.db).ExecContext(ctx, query, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to bump build version: %w", err)
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

func (r *buildRepository) InsertItem(ctx context.Context, item *domain.BuildItem) error {
	query := `
		INSERT INTO build_items (id, build_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
	`

	_, err := querier(ctx, r.db).ExecContext(ctx, query, item.ID, item.BuildID, item.ProductID, item.Quantity)
	if err != nil {
		return fmt.Errorf("failed to insert build item: %w", err)
	}

	return nil
}

func (r *buildRepository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	query := `UPDATE build_items SET quantity = $2 WHERE id = $1`

	result, err := querier(ctx, r.db).ExecContext(ctx, query, itemID, quantity)
	if err != nil {
		return fmt.Errorf("failed to update build item quantity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrBuildItemNotFound
	}

	return nil
}

func (r *buildRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	result, err := querier(ctx, r.db).ExecContext(ctx, `DELETE FROM build_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete build item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrBuildItemNotFound
	}

	return nil
}

// loadItems fetches the build's items joined with their catalogue rows, in
// insertion order.
func (r *buildRepository) loadItems(ctx context.Context, buildID uuid.UUID) ([]domain.BuildItem, error) {
	query := `
		SELECT bi.id, bi.build_id, bi.product_id, bi.quantity,
		       p.id, p.sku, p.name, p.category, p.price, p.stock, p.spec, p.created_at, p.updated_at
		FROM build_items bi
		JOIN products p ON p.id = bi.product_id
		WHERE bi.build_id = $1
		ORDER BY bi.id
	`

	rows, err := querier(ctx, r.db).QueryContext(ctx, query, buildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load build items: %w", err)
	}
	defer rows.Close()

	items := []domain.BuildItem{}
	for rows.Next() {
		item := domain.BuildItem{Product: &domain.Product{}}
		err := rows.Scan(
			&item.ID,
			&item.BuildID,
			&item.ProductID,
			&item.Quantity,
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
			return nil, fmt.Errorf("failed to scan build item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating build items: %w", err)
	}

	return items, nil
}
