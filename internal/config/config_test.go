package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Remote.Timeout != 90*time.Second {
		t.Fatalf("default timeout = %v", cfg.Remote.Timeout)
	}
	if cfg.History.Path == "" {
		t.Fatalf("default history path empty")
	}
}

func TestLoadFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("remote:\n  endpoint: https://example.test\n  model: test-model\n  timeout: 10s\nhistory:\n  path: /tmp/h.db\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Remote.Endpoint != "https://example.test" || cfg.Remote.Model != "test-model" {
		t.Fatalf("unexpected remote config: %+v", cfg.Remote)
	}
	if cfg.Remote.Timeout != 10*time.Second {
		t.Fatalf("timeout = %v", cfg.Remote.Timeout)
	}
	if cfg.History.Path != "/tmp/h.db" {
		t.Fatalf("history path = %q", cfg.History.Path)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SKETCHSIM_API_KEY", "env-key")
	t.Setenv("SKETCHSIM_MODEL", "env-model")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("remote:\n  api_key: file-key\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Remote.APIKey != "env-key" {
		t.Fatalf("api key = %q", cfg.Remote.APIKey)
	}
	if cfg.Remote.Model != "env-model" {
		t.Fatalf("model = %q", cfg.Remote.Model)
	}
}
