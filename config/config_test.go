package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noDotEnv(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "ADDR", "DATABASE_URL", "REDIS_URL", "SESSION_TTL", "COOKIE_SECURE", "BCRYPT_COST", "LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load(noDotEnv(t))
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "sqlite://catalog.db", cfg.DatabaseURL)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://catalog@localhost/catalog")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("BCRYPT_COST", "12")

	cfg, err := Load(noDotEnv(t))
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres://catalog@localhost/catalog", cfg.DatabaseURL)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 12, cfg.BcryptCost)
}

func TestLoadReadsDotEnv(t *testing.T) {
	t.Setenv("ADDR", "")
	os.Unsetenv("ADDR")
	t.Setenv("APP_ENV", "")
	os.Unsetenv("APP_ENV")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ADDR=:9090\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("ADDR") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bcrypt cost too low", "BCRYPT_COST", "2"},
		{"bcrypt cost too high", "BCRYPT_COST", "40"},
		{"non positive ttl", "SESSION_TTL", "0s"},
		{"unparsable ttl", "SESSION_TTL", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load(noDotEnv(t))
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(Config{AppEnv: "production", LogLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger, err = NewLogger(Config{AppEnv: "development", LogLevel: "info"})
	require.NoError(t, err)
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	_, err = NewLogger(Config{LogLevel: "loud"})
	assert.Error(t, err)
}
