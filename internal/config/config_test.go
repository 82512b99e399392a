package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelichko/go-taskboard/internal/config"
)

func TestEnvReaderDefaults(t *testing.T) {
	t.Setenv("ENV", "local")

	cfg, err := config.NewEnvReader().Read()
	require.NoError(t, err)

	assert.Equal(t, config.EnvLocal, cfg.Env)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "web", cfg.HTTP.ClientDir)
	assert.Equal(t, ":memory:", cfg.Store.DSN)
	assert.True(t, cfg.Store.Seed)
}

func TestEnvReaderOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORE_DSN", "file:board.db")
	t.Setenv("STORE_SEED", "false")

	cfg, err := config.NewEnvReader().Read()
	require.NoError(t, err)

	assert.Equal(t, config.EnvProd, cfg.Env)
	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, "file:board.db", cfg.Store.DSN)
	assert.False(t, cfg.Store.Seed)
}

func TestEnvReaderRequiresEnv(t *testing.T) {
	// ENV carries env-required and has no default. Setenv first
	// so the test cleanup restores whatever was there.
	t.Setenv("ENV", "local")
	require.NoError(t, os.Unsetenv("ENV"))

	_, err := config.NewEnvReader().Read()
	assert.Error(t, err)
}
