// Package config loads console configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the environment-driven configuration of the console.
// Per-invocation settings stay on flags in cmd.
type Config struct {
	// APIBaseURL is the remote service base URL.
	APIBaseURL string `env:"LOCADMIN_API_URL" envDefault:"http://localhost:8000"`

	// StateDir overrides where the session record is persisted.
	// Empty means the user config dir (~/.config/locadmin).
	StateDir string `env:"LOCADMIN_STATE_DIR"`

	// RequestTimeout bounds each HTTP call.
	RequestTimeout time.Duration `env:"LOCADMIN_TIMEOUT" envDefault:"30s"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.StateDir == "" {
		cfg.StateDir = defaultStateDir()
	}
	return cfg, nil
}

func defaultStateDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "locadmin")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "locadmin")
}
