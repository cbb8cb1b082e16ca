package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets key for the duration of the test.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func noEnvFile(t *testing.T) string {
	return "-env-file=" + filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t, "CATALOG_PORT", "CATALOG_ENV", "CATALOG_DB_DSN", "CATALOG_LIMITER_RPS", "CATALOG_SESSION_LIFETIME")

	cfg, err := Load([]string{noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 25, cfg.DB.MaxOpenConns)
	assert.Equal(t, 15*time.Minute, cfg.DB.MaxIdleTime)
	assert.Equal(t, 2.0, cfg.Limiter.RPS)
	assert.True(t, cfg.Limiter.Enabled)
	assert.Equal(t, 336*time.Hour, cfg.Session.Lifetime)
	assert.NotEmpty(t, cfg.DB.DSN)
}

func TestLoad_FlagBeatsEnvironment(t *testing.T) {
	t.Setenv("CATALOG_PORT", "5000")
	t.Setenv("CATALOG_ENV", "staging")

	cfg, err := Load([]string{noEnvFile(t), "-port=6000"})
	require.NoError(t, err)

	assert.Equal(t, 6000, cfg.Port)
	assert.Equal(t, "staging", cfg.Environment)
}

func TestLoad_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t, "CATALOG_LIMITER_BURST")
	t.Setenv("CATALOG_PORT", "7000")

	path := filepath.Join(t.TempDir(), ".env")
	content := "CATALOG_PORT=8000\nCATALOG_LIMITER_BURST=9\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load([]string{"-env-file=" + path})
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, 9, cfg.Limiter.Burst)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"non-numeric port", []string{"-port=abc"}},
		{"port out of range", []string{"-port=70000"}},
		{"unknown environment", []string{"-env=test"}},
		{"bad duration", []string{"-session-lifetime=forever"}},
		{"unknown flag", []string{"-nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t, "CATALOG_PORT", "CATALOG_ENV", "CATALOG_SESSION_LIFETIME")
			_, err := Load(append([]string{noEnvFile(t)}, tt.args...))
			assert.Error(t, err)
		})
	}
}

func TestValidate_Limiter(t *testing.T) {
	cfg := &Config{
		Port:        4000,
		Environment: "production",
		LogLevel:    "warn",
		DB:          DBConfig{DSN: "postgres://x"},
		Limiter:     LimiterConfig{Enabled: true, RPS: 0, Burst: 4},
		Session:     SessionConfig{Lifetime: time.Hour},
	}
	assert.Error(t, cfg.Validate())

	cfg.Limiter.Enabled = false
	assert.NoError(t, cfg.Validate())
}
