package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9000"
  api_key: "secret"
database:
  path: "`+filepath.Join(t.TempDir(), "test.db")+`"
redis:
  enabled: true
  address: "localhost:6379"
  cache_ttl_seconds: 120
booking:
  min_advance_minutes: 30
  max_advance_days: 14
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Address != ":9000" {
		t.Errorf("server.address = %q, want :9000", cfg.Server.Address)
	}
	if cfg.Server.APIKey != "secret" {
		t.Errorf("server.api_key = %q, want secret", cfg.Server.APIKey)
	}
	if cfg.CacheTTL() != 120*time.Second {
		t.Errorf("CacheTTL() = %v, want 120s", cfg.CacheTTL())
	}
	if cfg.BookingMinAdvance() != 30*time.Minute {
		t.Errorf("BookingMinAdvance() = %v, want 30m", cfg.BookingMinAdvance())
	}
	if cfg.BookingMaxAdvance() != 14*24*time.Hour {
		t.Errorf("BookingMaxAdvance() = %v, want 336h", cfg.BookingMaxAdvance())
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "`+filepath.Join(t.TempDir(), "test.db")+`"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Address != ":8080" {
		t.Errorf("server.address = %q, want :8080", cfg.Server.Address)
	}
	if cfg.CacheTTL() != 60*time.Second {
		t.Errorf("CacheTTL() = %v, want 60s", cfg.CacheTTL())
	}
	if cfg.BookingMinAdvance() != time.Hour {
		t.Errorf("BookingMinAdvance() = %v, want 1h", cfg.BookingMinAdvance())
	}
	if cfg.BookingMaxAdvance() != 30*24*time.Hour {
		t.Errorf("BookingMaxAdvance() = %v, want 720h", cfg.BookingMaxAdvance())
	}
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("TEST_API_KEY", "from-env")

	path := writeConfig(t, `
server:
  api_key: "${TEST_API_KEY}"
database:
  path: "`+filepath.Join(t.TempDir(), "test.db")+`"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.APIKey != "from-env" {
		t.Errorf("server.api_key = %q, want from-env", cfg.Server.APIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() on missing file should fail")
	}
}
