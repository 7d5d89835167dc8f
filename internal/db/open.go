package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Config struct {
	Path string // e.g. "./data/frontdesk.db"
	Env  string // "dev" | "prod"
}

// Per-connection PRAGMAs: WAL so readers do not block the writer, NORMAL
// sync, and a busy timeout so short lock waits do not fail with SQLITE_BUSY.
const pragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"

// Open opens the database file, creating its directory, and applies pending
// migrations.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Path == "" {
		cfg.Path = "./data/frontdesk.db"
	}
	if cfg.Env == "" {
		cfg.Env = "dev"
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	return open(ctx, fmt.Sprintf("file:%s?%s", cfg.Path, pragmas))
}

// OpenMemory opens a private in-memory database with the production schema.
// Distinct names give distinct databases.
func OpenMemory(ctx context.Context, name string) (*sql.DB, error) {
	// The shared-cache URI keeps the database alive for as long as the pool
	// holds a connection.
	return open(ctx, fmt.Sprintf("file:%s?mode=memory&cache=shared&%s", name, pragmas))
}

func open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	// Single connection: every write goes through one Worker anyway, and
	// reads then never see a half-applied transaction from another conn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
