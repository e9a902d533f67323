// Package storage is the Postgres persistence of the facility service.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/teampro-ai/teampro/libs/db"
	"github.com/teampro-ai/teampro/services/facility-service/internal/outbox"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// DBTX is satisfied by both the pool and a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries runs statements against the pool or, inside InTx, a transaction.
// Methods that lock rows only make sense inside InTx.
type Queries struct {
	db     DBTX
	outbox *outbox.Repository
}

type Store struct {
	*Queries
	pool *db.Pool
}

func New(pool *db.Pool) *Store {
	return &Store{
		Queries: &Queries{db: pool, outbox: outbox.NewRepository()},
		pool:    pool,
	}
}

func (s *Store) InTx(ctx context.Context, fn func(*Queries) error) error {
	return s.pool.InTx(ctx, func(tx pgx.Tx) error {
		return fn(&Queries{db: tx, outbox: s.outbox})
	})
}

// Emit writes evt to the outbox alongside the current statements.
func (q *Queries) Emit(ctx context.Context, evt outbox.Event) error {
	return q.outbox.Insert(ctx, q.db, evt)
}

// classify maps driver errors onto the package sentinels. A malformed uuid is
// reported as not found.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsNoRows(err), db.HasCode(err, db.CodeInvalidText):
		return ErrNotFound
	case db.HasCode(err, db.CodeUniqueViolation):
		return ErrDuplicate
	}
	return err
}

// Zero bounds are open-ended.
func lowerBound(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{InfinityModifier: pgtype.NegativeInfinity, Valid: true}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func upperBound(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{InfinityModifier: pgtype.Infinity, Valid: true}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
