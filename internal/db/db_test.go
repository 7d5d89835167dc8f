package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	name := "dbtest_" + strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := OpenMemory(context.Background(), name)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// ── Migrations ───────────────────────────────────────────────────────────────

func TestMigrate_Idempotent(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, conn))

	st, err := Status(ctx, conn)
	require.NoError(t, err)
	require.NotEmpty(t, st)
	assert.Equal(t, 1, st[0].Version)
	assert.Equal(t, "0001_init.sql", st[0].Name)
	assert.NotNil(t, st[0].AppliedAt)

	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, len(st), n)
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "frontdesk.db")

	conn, err := Open(context.Background(), Config{Path: path})
	require.NoError(t, err)
	defer conn.Close()

	var name string
	require.NoError(t, conn.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'visitors'`).Scan(&name))
	assert.Equal(t, "visitors", name)
}

func TestLoadMigrations_OrderAndDuplicates(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0002_b.sql": {Data: []byte("SELECT 2;")},
		"migrations/0001_a.sql": {Data: []byte("SELECT 1;")},
		"migrations/README.md":  {Data: []byte("ignored")},
	}
	ms, err := loadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "0001_a.sql", ms[0].name)
	assert.Equal(t, 2, ms[1].version)

	fsys["migrations/0002_c.sql"] = &fstest.MapFile{Data: []byte("SELECT 3;")}
	_, err = loadMigrations(fsys)
	assert.ErrorContains(t, err, "duplicate migration version 2")
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("0007_add_index.sql")
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = parseVersion("init.sql")
	assert.Error(t, err)
	_, err = parseVersion("x1_init.sql")
	assert.Error(t, err)
}

// ── Seed ─────────────────────────────────────────────────────────────────────

func TestSeedDev_Idempotent(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, SeedDev(ctx, conn, SeedDevOptions{}))
	require.NoError(t, SeedDev(ctx, conn, SeedDevOptions{}))

	var visitors, audit int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM visitors`).Scan(&visitors))
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM audit_log`).Scan(&audit))
	assert.Equal(t, 1, visitors)
	assert.Equal(t, 1, audit)
}

// ── Worker ───────────────────────────────────────────────────────────────────

func TestWorker_CommitAndRollback(t *testing.T) {
	conn := openTestDB(t)
	w := NewWorker(conn)
	defer w.Close()
	ctx := context.Background()

	_, err := conn.Exec(`CREATE TABLE kv (k TEXT PRIMARY KEY, v INTEGER)`)
	require.NoError(t, err)

	require.NoError(t, w.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO kv VALUES ('a', 1)`)
		return err
	}))

	boom := errors.New("boom")
	err = w.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO kv VALUES ('b', 2)`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestWorker_SerializesConcurrentWrites(t *testing.T) {
	conn := openTestDB(t)
	w := NewWorker(conn)
	defer w.Close()
	ctx := context.Background()

	_, err := conn.Exec(`CREATE TABLE counter (n INTEGER NOT NULL)`)
	require.NoError(t, err)
	_, err = conn.Exec(`INSERT INTO counter VALUES (0)`)
	require.NoError(t, err)

	const writers = 20
	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, w.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
				var n int
				if err := tx.QueryRowContext(ctx, `SELECT n FROM counter`).Scan(&n); err != nil {
					return err
				}
				_, err := tx.ExecContext(ctx, `UPDATE counter SET n = ?`, n+1)
				return err
			}))
		}()
	}
	wg.Wait()

	var n int
	require.NoError(t, conn.QueryRow(`SELECT n FROM counter`).Scan(&n))
	assert.Equal(t, writers, n)
}

func TestWorker_ClosedAndCancelled(t *testing.T) {
	conn := openTestDB(t)
	w := NewWorker(conn)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.Do(ctx, func(context.Context, *sql.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)

	w.Close()
	w.Close()
	err = w.Do(context.Background(), func(context.Context, *sql.Tx) error { return nil })
	assert.ErrorIs(t, err, ErrWorkerClosed)
}
