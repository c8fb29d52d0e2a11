// Package config loads and persists veritab configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all veritab configuration.
type Config struct {
	// AI assistant (Gemini) configuration
	AI AIConfig `yaml:"ai"`

	// Validation run history
	History HistoryConfig `yaml:"history"`

	// Watch mode
	Watch WatchConfig `yaml:"watch"`

	// Theme for terminal output ("light", "dark", "auto")
	Theme string `yaml:"theme"`
}

// AIConfig configures the Gemini-backed suggestion engine.
type AIConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	MaxRetries int    `yaml:"max_retries"`
	Timeout    string `yaml:"timeout"`
}

// HistoryConfig configures the validation run store.
type HistoryConfig struct {
	DatabasePath string `yaml:"database_path"`
	KeepRuns     int    `yaml:"keep_runs"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		AI: AIConfig{
			Model:      "gemini-1.5-flash-latest",
			MaxRetries: 5,
			Timeout:    "120s",
		},
		History: HistoryConfig{
			DatabasePath: filepath.Join(Dir(), "history.db"),
			KeepRuns:     50,
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Theme: "auto",
	}
}

// Dir returns the veritab configuration directory (~/.veritab).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".veritab"
	}
	return filepath.Join(home, ".veritab")
}

// File returns the default configuration file path.
func File() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load loads configuration from a YAML file. A missing file is not an
// error: defaults (plus environment overrides) are returned instead.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.AI.APIKey = key
	}
	if model := os.Getenv("VERITAB_MODEL"); model != "" {
		c.AI.Model = model
	}
	if path := os.Getenv("VERITAB_DB_PATH"); path != "" {
		c.History.DatabasePath = path
	}
	if retries := os.Getenv("VERITAB_MAX_RETRIES"); retries != "" {
		if n, err := strconv.Atoi(retries); err == nil && n >= 0 {
			c.AI.MaxRetries = n
		}
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.AI.Model == "" {
		return fmt.Errorf("ai.model must not be empty")
	}
	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("ai.max_retries must not be negative")
	}
	if c.History.KeepRuns < 0 {
		return fmt.Errorf("history.keep_runs must not be negative")
	}
	if _, err := time.ParseDuration(c.AI.Timeout); c.AI.Timeout != "" && err != nil {
		return fmt.Errorf("ai.timeout is not a valid duration: %w", err)
	}
	if _, err := time.ParseDuration(c.Watch.Debounce); c.Watch.Debounce != "" && err != nil {
		return fmt.Errorf("watch.debounce is not a valid duration: %w", err)
	}
	switch c.Theme {
	case "", "light", "dark", "auto":
	default:
		return fmt.Errorf("theme must be one of light, dark, auto")
	}
	return nil
}

// GetAITimeout returns the AI request timeout as a duration.
func (c *Config) GetAITimeout() time.Duration {
	d, err := time.ParseDuration(c.AI.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetDebounce returns the watch-mode debounce window as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}
