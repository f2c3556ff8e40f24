// Package config provides configuration types and defaults for goldcheck.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config holds all runtime options for a validation run.
type Config struct {
	// GoldenPath is the accepted-as-correct reference product.
	GoldenPath string `mapstructure:"golden"`
	// TestPath is the newly produced product under validation.
	TestPath string `mapstructure:"test"`
	// DBPath is the run-history database location. Empty disables the
	// history store.
	DBPath string `mapstructure:"db"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
	// Trace enables otel span export to stdout.
	Trace bool `mapstructure:"trace"`
	// Watch re-runs the comparison whenever the test product changes.
	Watch bool `mapstructure:"watch"`
	// Concurrency bounds parallel dataset validation. Zero means one
	// worker per CPU, resolved at run time.
	Concurrency int `mapstructure:"concurrency"`

	Policy Policy `mapstructure:",squash"`
}

// Default returns the configuration used before flags and config files
// are applied.
func Default() Config {
	return Config{
		DBPath:   DefaultDBPath(),
		LogLevel: "info",
		Policy:   DefaultPolicy(),
	}
}

// Validate checks that required paths are set and exist.
func (c *Config) Validate() error {
	if c.GoldenPath == "" {
		return fmt.Errorf("golden product path is required")
	}
	if c.TestPath == "" {
		return fmt.Errorf("test product path is required")
	}
	if _, err := os.Stat(c.GoldenPath); err != nil {
		return fmt.Errorf("golden product: %w", err)
	}
	if _, err := os.Stat(c.TestPath); err != nil {
		return fmt.Errorf("test product: %w", err)
	}
	return nil
}

// DefaultDBPath returns ~/.goldcheck/goldcheck.db, falling back to the
// working directory when the home directory cannot be resolved.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "goldcheck.db"
	}
	return filepath.Join(home, ".goldcheck", "goldcheck.db")
}
