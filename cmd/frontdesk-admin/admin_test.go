package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func useSQLite(t *testing.T) {
	t.Helper()
	t.Setenv("FRONTDESK_STORE", "sqlite")
	t.Setenv("FRONTDESK_DB_PATH", filepath.Join(t.TempDir(), "admin.db"))
	t.Setenv("FRONTDESK_ENV", "dev")
}

func TestMigrate_ReportsAppliedMigrations(t *testing.T) {
	useSQLite(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)

	var got migrateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "sqlite", got.Store)
	require.NotEmpty(t, got.Migrations)
	assert.NotNil(t, got.Migrations[0].AppliedAt)
}

func TestSeedDevThenScan_Clean(t *testing.T) {
	useSQLite(t)

	_, err := run(t, "seed-dev")
	require.NoError(t, err)
	_, err = run(t, "seed-dev")
	require.NoError(t, err, "seeding twice is a no-op")

	out, err := run(t, "scan", "--fail-on-anomaly")
	require.NoError(t, err)

	var rep types.ScanReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 0, rep.Total)
}

func TestSeedDev_RefusesProd(t *testing.T) {
	useSQLite(t)
	t.Setenv("FRONTDESK_ENV", "prod")
	t.Setenv("FRONTDESK_JWT_SECRET", "s")

	_, err := run(t, "seed-dev")
	assert.Error(t, err)
}

func TestSeedDev_Memory(t *testing.T) {
	t.Setenv("FRONTDESK_STORE", "memory")

	_, err := run(t, "seed-dev")
	assert.NoError(t, err)
}
