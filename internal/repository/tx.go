package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrVersionConflict is returned when an optimistic-version-checked write
// observes a stale version. The caller retries from fresh state.
var ErrVersionConflict = errors.New("concurrent modification detected, retry with fresh state")

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories run against whichever the context carries.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txContextKey struct{}

// Transactor opens a transaction boundary. Everything the callback does
// through the returned context runs inside one transaction: commit on nil,
// rollback on error. There is no automatic retry here.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type sqlTransactor struct {
	db *sql.DB
}

// NewTransactor creates a Transactor over the given database.
func NewTransactor(db *sql.DB) Transactor {
	return &sqlTransactor{db: db}
}

func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// querier resolves the executor for the current context: the enclosing
// transaction when present, the plain connection pool otherwise.
func querier(ctx context.Context, db *sql.DB) DBTX {
	if tx, ok := ctx.Value(txContextKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}
