package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("VERITAB_MODEL", "")
	t.Setenv("VERITAB_DB_PATH", "")
	t.Setenv("VERITAB_MAX_RETRIES", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "gemini-1.5-flash-latest", cfg.AI.Model)
	assert.Equal(t, 5, cfg.AI.MaxRetries)
	assert.Equal(t, 50, cfg.History.KeepRuns)
	assert.Equal(t, "auto", cfg.Theme)
}

func TestLoadParsesFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("VERITAB_MODEL", "")
	t.Setenv("VERITAB_DB_PATH", "")
	t.Setenv("VERITAB_MAX_RETRIES", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `ai:
  model: gemini-1.5-pro
  max_retries: 2
history:
  keep_runs: 10
theme: dark
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini-1.5-pro", cfg.AI.Model)
	assert.Equal(t, 2, cfg.AI.MaxRetries)
	assert.Equal(t, 10, cfg.History.KeepRuns)
	assert.Equal(t, "dark", cfg.Theme)
	// Unset fields keep their defaults.
	assert.Equal(t, "120s", cfg.AI.Timeout)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ai: [not a mapping"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("VERITAB_MODEL", "")
	t.Setenv("VERITAB_DB_PATH", "")
	t.Setenv("VERITAB_MAX_RETRIES", "")

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.AI.Model = "gemini-2.0-flash"
	cfg.History.KeepRuns = 7
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", loaded.AI.Model)
	assert.Equal(t, 7, loaded.History.KeepRuns)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("VERITAB_MODEL", "gemini-env")
	t.Setenv("VERITAB_DB_PATH", "/tmp/env.db")
	t.Setenv("VERITAB_MAX_RETRIES", "3")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.AI.APIKey)
	assert.Equal(t, "gemini-env", cfg.AI.Model)
	assert.Equal(t, "/tmp/env.db", cfg.History.DatabasePath)
	assert.Equal(t, 3, cfg.AI.MaxRetries)
}

func TestEnvOverridesIgnoreBadRetries(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("VERITAB_MODEL", "")
	t.Setenv("VERITAB_DB_PATH", "")
	t.Setenv("VERITAB_MAX_RETRIES", "not-a-number")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.AI.MaxRetries)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	bad := DefaultConfig()
	bad.AI.MaxRetries = -1
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.AI.Timeout = "soon"
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.Theme = "sepia"
	assert.Error(t, bad.Validate())
}

func TestDurationHelpers(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 120*time.Second, cfg.GetAITimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.GetDebounce())

	cfg.AI.Timeout = "5s"
	cfg.Watch.Debounce = "1s"
	assert.Equal(t, 5*time.Second, cfg.GetAITimeout())
	assert.Equal(t, time.Second, cfg.GetDebounce())

	// Unparseable values fall back to defaults.
	cfg.AI.Timeout = "bogus"
	cfg.Watch.Debounce = "bogus"
	assert.Equal(t, 120*time.Second, cfg.GetAITimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.GetDebounce())
}
