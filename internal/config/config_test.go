package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, int64(1<<20), cfg.HTTP.MaxBodyBytes)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "http://localhost:8000", cfg.Engine.URL)
	assert.Equal(t, 5*time.Second, cfg.Engine.HealthTimeout)
	assert.True(t, cfg.Synthesis.DefaultNoisy)
	assert.Nil(t, cfg.Synthesis.ForceGPU)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("ENGINE_URL", "http://engine:9000/")
	t.Setenv("SYNTH_FORCE_GPU", "true")
	t.Setenv("ENGINE_HEALTH_TIMEOUT", "2s")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.NotEmpty(t, cfg.Database.DSN)
	assert.Equal(t, "http://engine:9000", cfg.Engine.URL)
	require.NotNil(t, cfg.Synthesis.ForceGPU)
	assert.True(t, *cfg.Synthesis.ForceGPU)
	assert.Equal(t, 2*time.Second, cfg.Engine.HealthTimeout)
}

func TestParseRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")

	_, err := Parse()
	assert.Error(t, err)
}
