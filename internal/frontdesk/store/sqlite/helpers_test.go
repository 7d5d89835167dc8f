package sqlite_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zhank48/ultfpeb-sub004/internal/db"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/store/sqlite"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production. It is closed when the test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	name := "test_" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := db.OpenMemory(context.Background(), name)
	require.NoError(t, err, "openTestDB")

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn. It is closed when the
// test finishes, before the connection.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

func newTestStore(t *testing.T) (*sqlite.Store, *sql.DB) {
	t.Helper()
	conn := openTestDB(t)
	return sqlite.New(conn, newTestWriter(t, conn)), conn
}

// at returns a millisecond-precision UTC time, which round-trips exactly.
func at(minute int) time.Time {
	return time.Date(2026, 3, 1, 9, minute, 0, 0, time.UTC)
}

func sampleVisitor(id int64, name string) types.Visitor {
	return types.Visitor{
		ID:          id,
		Name:        name,
		Email:       strings.ToLower(name) + "@example.com",
		Institution: "Acme",
		HostName:    "Dana",
		Status:      types.StatusCheckedIn,
		CheckInTime: at(0),
		CheckedInBy: "desk-1",
		UpdatedAt:   at(0),
	}
}

func mustUpdate(t *testing.T, s store.Store, fn store.TxFn) {
	t.Helper()
	require.NoError(t, s.Update(context.Background(), fn))
}
