package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	dbpkg "github.com/zhank48/ultfpeb-sub004/internal/db"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
)

// Store implements store.Store on SQLite. Writes run on the single writer
// goroutine of a db.Worker; reads open their own transaction on db.
type Store struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func New(db *sql.DB, writer *dbpkg.Worker) *Store {
	return &Store{db: db, writer: writer}
}

func (s *Store) View(ctx context.Context, fn store.TxFn) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("View begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	return fn(ctx, &sqlTx{tx: tx})
}

func (s *Store) Update(ctx context.Context, fn store.TxFn) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &sqlTx{tx: tx})
	})
}

// sqlTx adapts *sql.Tx to store.Tx.
type sqlTx struct {
	tx *sql.Tx
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	// Without extended result codes only the primary code is set.
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}

// pageClause returns a LIMIT/OFFSET suffix and its args. A zero limit means
// no limit.
func pageClause(limit, offset int) (string, []any) {
	if limit <= 0 && offset <= 0 {
		return "", nil
	}
	if limit <= 0 {
		limit = -1
	}
	return " LIMIT ? OFFSET ?", []any{limit, max(offset, 0)}
}

func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
