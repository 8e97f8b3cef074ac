package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
api:
  base_url: https://api.example.com
storage:
  type: memory
session:
  refresh_window_minutes: 45
activity:
  poll_interval: 2m
logging:
  level: debug
`)

	cfg, err := NewFileLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, 45, cfg.Session.RefreshWindowMinutes)
	assert.Equal(t, "debug", cfg.Logging.Level)

	poll, err := cfg.Activity.GetPollInterval()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, poll)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "api": {"base_url": "https://api.example.com"},
  "storage": {"type": "memory"}
}`)

	cfg, err := NewFileLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
api:
  base_url: https://api.example.com
`)

	cfg, err := NewFileLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Session.RefreshWindowMinutes)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.Activity.MarkerPath)

	poll, _ := cfg.Activity.GetPollInterval()
	assert.Equal(t, 5*time.Minute, poll)
	watch, _ := cfg.Activity.GetWatchInterval()
	assert.Equal(t, time.Minute, watch)
	inactivity, _ := cfg.Activity.GetInactivityTimeout()
	assert.Equal(t, 30*time.Minute, inactivity)
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("JOBSWIPE_API_URL", "https://staging.example.com")

	path := writeConfig(t, "config.yaml", `
api:
  base_url: ${JOBSWIPE_API_URL}
logging:
  level: ${JOBSWIPE_LOG_LEVEL:-warn}
`)

	cfg, err := NewFileLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.com", cfg.API.BaseURL)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		content     string
		errContains string
	}{
		{
			name:        "missing base url",
			file:        "config.yaml",
			content:     "storage:\n  type: memory\n",
			errContains: "base_url is required",
		},
		{
			name:        "bad duration",
			file:        "config.yaml",
			content:     "api:\n  base_url: https://x\nactivity:\n  poll_interval: soonish\n",
			errContains: "invalid duration",
		},
		{
			name:        "unsupported extension",
			file:        "config.toml",
			content:     "whatever",
			errContains: "unsupported file format",
		},
		{
			name:        "invalid yaml",
			file:        "config.yaml",
			content:     "api: [unclosed",
			errContains: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			_, err := NewFileLoader(path).Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := NewFileLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load()
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}
