package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"lactate-lab/internal/threshold"
)

// Config represents the application configuration
type Config struct {
	Engine  EngineConfig  `json:"engine"`
	Display DisplayConfig `json:"display"`
	Log     LogConfig     `json:"log"`
	Storage StorageConfig `json:"storage"`
}

// EngineConfig holds threshold analysis settings
type EngineConfig struct {
	DefaultMethod        string  `json:"default_method"`
	StageDurationMinutes float64 `json:"stage_duration_minutes"` // used when a test file gives none
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	LoadUnit string `json:"load_unit"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	DBPath string `json:"db_path"` // empty means ~/.lactate/data.db
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			DefaultMethod:        string(threshold.MethodMader),
			StageDurationMinutes: 3,
		},
		Display: DisplayConfig{
			LoadUnit: "watts",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration from ~/.lactate/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()
	if cfg.Engine.DefaultMethod == "" {
		cfg.Engine.DefaultMethod = defaults.Engine.DefaultMethod
	}
	if cfg.Engine.StageDurationMinutes == 0 {
		cfg.Engine.StageDurationMinutes = defaults.Engine.StageDurationMinutes
	}
	if cfg.Display.LoadUnit == "" {
		cfg.Display.LoadUnit = defaults.Display.LoadUnit
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}

	return &cfg, nil
}

// Save writes the configuration to ~/.lactate/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	return Save(&example)
}

// Validate checks that every configured value is usable
func (c *Config) Validate() error {
	if c.Engine.DefaultMethod != "" {
		if _, err := threshold.ParseMethod(c.Engine.DefaultMethod); err != nil {
			return fmt.Errorf("engine.default_method: %w", err)
		}
	}
	if c.Engine.StageDurationMinutes < 0 {
		return fmt.Errorf("engine.stage_duration_minutes must not be negative, got %v", c.Engine.StageDurationMinutes)
	}

	if c.Display.LoadUnit != "" && c.Display.LoadUnit != "watts" && c.Display.LoadUnit != "kmh" {
		return fmt.Errorf("display.load_unit must be \"watts\" or \"kmh\", got %q", c.Display.LoadUnit)
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	if c.Log.Format != "" && c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be \"text\" or \"json\", got %q", c.Log.Format)
	}

	return nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".lactate"), nil
}
