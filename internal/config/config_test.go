package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Backend.Model != "deepseek-chat" {
		t.Errorf("backend model = %q, want default", cfg.Backend.Model)
	}
	if cfg.Snapshot.Addr != "localhost:6379" {
		t.Errorf("snapshot addr = %q, want default", cfg.Snapshot.Addr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want info", cfg.LogLevel)
	}
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("backend:\n  model: other-model\nlog_level: debug\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Backend.Model != "other-model" {
		t.Errorf("backend model = %q, want other-model", cfg.Backend.Model)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.LogLevel)
	}
	// Untouched sections keep their defaults.
	if cfg.Backend.BaseURL != "https://api.deepseek.com" {
		t.Errorf("base URL = %q, want default", cfg.Backend.BaseURL)
	}
}

func TestLoadAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv("MINDFLOW_API_KEY", "env-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.APIKey != "env-key" {
		t.Errorf("API key = %q, want env-key", cfg.Backend.APIKey)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("malformed config did not fail")
	}
}
