package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`base_url: https://api.trovka.example
token_store_path: /tmp/trovka-test.db
request_timeout: 30s
rate_per_second: 5
rate_burst: 2
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://api.trovka.example" {
		t.Fatalf("unexpected base URL: %q", cfg.BaseURL)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Timeout())
	}
	if cfg.RatePerSecond != 5 || cfg.RateBurst != 2 {
		t.Fatalf("unexpected rate settings: %+v", cfg)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("base_url: https://from-file\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(envBaseURL, "https://from-env")
	t.Setenv(envTimeout, "5s")
	t.Setenv(envRateBurst, "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://from-env" {
		t.Fatalf("env should win: %q", cfg.BaseURL)
	}
	if cfg.Timeout() != 5*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Timeout())
	}
	if cfg.RateBurst != 3 {
		t.Fatalf("unexpected rate burst: %d", cfg.RateBurst)
	}
}

func TestBadRateBurstRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("rate_burst: 2\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(envRateBurst, "many")
	if _, err := Load(path); err == nil {
		t.Fatal("expected rate burst parse error")
	}
}

func TestExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for explicitly named missing file")
	}
}

func TestBadDurationRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("request_timeout: soon\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected duration parse error")
	}
}
