package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedilo/storefront/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "123456")
	t.Setenv("DB_NAME", "storefront")
}

// chdir switches the working directory for the test and restores it on
// cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestNewConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	setRequiredEnv(t)

	cfg, err := config.NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
	assert.Equal(t, int32(10), cfg.Postgres.MaxConns)
	assert.Equal(t, 30*time.Minute, cfg.Postgres.MaxConnLifetime)
	assert.Equal(t, 5, cfg.Checkout.OrderCodeAttempts)
	assert.False(t, cfg.Postgres.AutoMigrate)
}

func TestNewConfig_MissingRequired(t *testing.T) {
	chdir(t, t.TempDir())
	setRequiredEnv(t)
	t.Setenv("DB_HOST", "")

	cfg, err := config.NewConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "DB_HOST is required")
}

func TestNewConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	setRequiredEnv(t)

	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  port: "9090"
  log_level: debug
postgres:
  max_conns: 20
  auto_migrate: true
checkout:
  order_code_attempts: 3
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("APP_PORT", "7070")

	cfg, err := config.NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.App.Port, "env must override the file")
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, int32(20), cfg.Postgres.MaxConns)
	assert.True(t, cfg.Postgres.AutoMigrate)
	assert.Equal(t, 3, cfg.Checkout.OrderCodeAttempts)
}

func TestNewConfig_InvalidNumbers(t *testing.T) {
	chdir(t, t.TempDir())
	setRequiredEnv(t)
	t.Setenv("DB_MAX_CONNS", "many")

	_, err := config.NewConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_MAX_CONNS")
}

func TestNewConfig_PoolBounds(t *testing.T) {
	chdir(t, t.TempDir())
	setRequiredEnv(t)
	t.Setenv("DB_MIN_CONNS", "8")
	t.Setenv("DB_MAX_CONNS", "4")

	_, err := config.NewConfig()
	require.Error(t, err)
}
