package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	c, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, ":9090", c.GRPCAddr)
	assert.Equal(t, EnvDev, c.Env)
	assert.Equal(t, StoreSQLite, c.Store)
	assert.Equal(t, "./data/frontdesk.db", c.DBPath)
	assert.Equal(t, []string{"admin"}, c.AdminRoles)
	assert.Equal(t, 15, c.HealthIntervalSeconds)
	assert.Equal(t, 300, c.ScanIntervalSeconds)
	assert.False(t, c.RequirePhoto)
}

func TestFromEnv_UnknownEnvFallsBackToDev(t *testing.T) {
	t.Setenv("FRONTDESK_ENV", "staging")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, EnvDev, c.Env)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("FRONTDESK_STORE", "Memory")
	t.Setenv("FRONTDESK_ADMIN_ROLES", " admin , supervisor ,")
	t.Setenv("FRONTDESK_REQUIRE_PHOTO", "true")
	t.Setenv("FRONTDESK_SCAN_INTERVAL_SECONDS", "0")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, c.Store)
	assert.Equal(t, []string{"admin", "supervisor"}, c.AdminRoles)
	assert.True(t, c.RequirePhoto)
	assert.Equal(t, 0, c.ScanIntervalSeconds)
	assert.True(t, c.IsAdminRole("Supervisor"))
	assert.False(t, c.IsAdminRole("operator"))
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown store":        {"FRONTDESK_STORE": "mongo"},
		"postgres without url": {"FRONTDESK_STORE": "postgres"},
		"prod without secret":  {"FRONTDESK_ENV": "prod"},
		"bad int":              {"FRONTDESK_SCAN_INTERVAL_SECONDS": "soon"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadEnv_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("FRONTDESK_TEST_ONLY_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("FRONTDESK_TEST_ONLY_VALUE") })

	n, err := LoadEnv([]string{path, filepath.Join(dir, ".env.local")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "from-file", os.Getenv("FRONTDESK_TEST_ONLY_VALUE"))
}
