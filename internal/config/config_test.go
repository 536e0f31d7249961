package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.DBPath)
	assert.Equal(t, "http://localhost:8080", cfg.ServerURL)
	assert.Equal(t, 8765, cfg.DashboardPort)
	assert.Equal(t, 30*time.Second, cfg.FlushInterval)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	content := []byte("server_url: https://data.example.org\ndashboard_port: 9000\nflush_interval: 1m\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "klimat.yaml"), content, 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://data.example.org", cfg.ServerURL)
	assert.Equal(t, 9000, cfg.DashboardPort)
	assert.Equal(t, time.Minute, cfg.FlushInterval)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("KLIMAT_SERVER_URL", "https://env.example.org")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.org", cfg.ServerURL)
}
