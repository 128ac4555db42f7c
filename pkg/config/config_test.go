package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "https://api.audible", cfg.APIOrigin)
	assert.Equal(t, 12*time.Second, cfg.SourceTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.SweepPace)
	assert.Empty(t, cfg.AdminSecret)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AUDIOHUB_LISTEN_ADDR", ":9999")
	t.Setenv("AUDIOHUB_API_ORIGIN", "http://127.0.0.1:4567")
	t.Setenv("AUDIOHUB_SOURCE_TIMEOUT", "3s")
	t.Setenv("AUDIOHUB_ADMIN_SECRET", "hunter2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "http://127.0.0.1:4567", cfg.APIOrigin)
	assert.Equal(t, 3*time.Second, cfg.SourceTimeout)
	assert.Equal(t, "hunter2", cfg.AdminSecret)
}
