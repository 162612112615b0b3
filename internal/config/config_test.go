package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvStoreDriver, EnvStoreDSN, EnvRedisAddr, EnvLogLevel, EnvSkipConstraints, EnvRefreshTimeout} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvStoreDriver, "sqlite")
	t.Setenv(EnvStoreDSN, "file:models.db")
	t.Setenv(EnvRedisAddr, "localhost:6379")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvSkipConstraints, "true")
	t.Setenv(EnvRefreshTimeout, "5s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, &Config{
		StoreDriver:     "sqlite",
		StoreDSN:        "file:models.db",
		RedisAddr:       "localhost:6379",
		LogLevel:        "debug",
		SkipConstraints: true,
		RefreshTimeout:  5 * time.Second,
	}, cfg)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvSkipConstraints, "maybe"},
		{EnvRefreshTimeout, "soon"},
		{EnvRefreshTimeout, "-1s"},
		{EnvStoreDriver, "mongo"},
		{EnvStoreDriver, "postgres"},
		{EnvLogLevel, "chatty"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoadFileOverlay(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvRedisAddr, "redis:6379")
	path := filepath.Join(t.TempDir(), "dictionary.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store_driver: postgres
store_dsn: postgres://localhost/dictionary
refresh_timeout: 1m
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, "postgres://localhost/dictionary", cfg.StoreDSN)
	assert.Equal(t, time.Minute, cfg.RefreshTimeout)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "INFO", cfg.LogLevel)
}

func TestLoadFileErrors(t *testing.T) {
	clearEnv(t)
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store_driver: [a"), 0o600))
	_, err = LoadFile(path)
	require.Error(t, err)
}
