package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	contactNotFoundMsg = "Contact not found"
	noticeNotFoundMsg  = "Notice not found"
)

// querier is the part of pgxpool.Pool and pgx.Tx the repository needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides PostgreSQL persistence for notices and expert contacts.
type Repository struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

var _ TxStore = (*Repository)(nil)

// New creates a new investigations repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, q: pool}
}

// WithinTx runs fn inside a transaction and commits when fn returns nil.
// Nested calls reuse the outer transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(Store) error) error {
	if r.inTx {
		return fn(r)
	}
	if r.pool == nil {
		return errors.New("investigations repository not configured")
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&Repository{pool: r.pool, q: tx, inTx: true})
	})
}

// lockClause makes contact reads inside a transaction take the row lock.
func (r *Repository) lockClause() string {
	if r.inTx {
		return " FOR UPDATE"
	}
	return ""
}

func wrapQueryErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
