package config

import (
	"os"
	"testing"
	"time"
)

// unsetenv clears a variable while keeping t.Setenv's restore-on-cleanup.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoad_Defaults(t *testing.T) {
	unsetenv(t, "LOCADMIN_API_URL")
	unsetenv(t, "LOCADMIN_STATE_DIR")
	unsetenv(t, "LOCADMIN_TIMEOUT")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8000" {
		t.Fatalf("APIBaseURL=%q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("RequestTimeout=%v", cfg.RequestTimeout)
	}
	if cfg.StateDir == "" {
		t.Fatalf("StateDir should default to a config dir")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LOCADMIN_API_URL", "https://loc.example.com")
	t.Setenv("LOCADMIN_STATE_DIR", "/tmp/locadmin-test")
	t.Setenv("LOCADMIN_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "https://loc.example.com" {
		t.Fatalf("APIBaseURL=%q", cfg.APIBaseURL)
	}
	if cfg.StateDir != "/tmp/locadmin-test" {
		t.Fatalf("StateDir=%q", cfg.StateDir)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("RequestTimeout=%v", cfg.RequestTimeout)
	}
}
