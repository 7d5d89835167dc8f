// Package postgres implements store.Store on PostgreSQL through a pgx pool.
//
// Update runs at READ COMMITTED. Resolution is a conditional
// UPDATE ... WHERE status = 'pending', so of two racing resolvers the second
// blocks on the row lock, re-checks the predicate after the first commits and
// affects no rows. Visitor reads inside Update take FOR UPDATE so check-out,
// edit and soft delete always start from the latest committed row. A partial
// unique index backs the one-pending-per-type rule.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
)

//go:embed schema.sql
var schema string

type Store struct {
	pool *pgxpool.Pool
}

// Open connects, pings and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := New(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Close() { s.pool.Close() }

// Pool exposes the underlying pool for tests and admin tooling.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) View(ctx context.Context, fn store.TxFn) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("begin read tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	return fn(ctx, &pgTx{tx: tx})
}

func (s *Store) Update(ctx context.Context, fn store.TxFn) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &pgTx{tx: tx, write: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type pgTx struct {
	tx    pgx.Tx
	write bool
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// filter builds a WHERE clause with numbered placeholders. Every "?" in a
// condition refers to the single argument passed with it.
type filter struct {
	conds []string
	args  []any
}

func (f *filter) add(cond string, arg any) {
	f.args = append(f.args, arg)
	f.conds = append(f.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(f.args))))
}

func (f *filter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

// page appends LIMIT/OFFSET. LIMIT NULL means no limit.
func (f *filter) page(limit, offset int) string {
	var l any
	if limit > 0 {
		l = limit
	}
	f.args = append(f.args, l, max(offset, 0))
	n := len(f.args)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n-1, n)
}

type rowScanner interface {
	Scan(dest ...any) error
}
