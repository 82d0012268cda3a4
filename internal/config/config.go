// Package config loads the application configuration from YAML with
// sensible defaults for every section.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mindflow/mindflow/internal/inference"
	"github.com/mindflow/mindflow/internal/store"
)

// StoreConfig holds filesystem locations for the embedded stores.
type StoreConfig struct {
	AuditPath  string `yaml:"audit_path"`
	ArchiveDir string `yaml:"archive_dir"`
}

// Config is the full application configuration.
type Config struct {
	Backend  inference.Config     `yaml:"backend"`
	Store    StoreConfig          `yaml:"store"`
	Snapshot store.SnapshotConfig `yaml:"snapshot"`
	LogLevel string               `yaml:"log_level"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	dataDir := defaultDataDir()
	return Config{
		Backend: inference.DefaultConfig(),
		Store: StoreConfig{
			AuditPath:  filepath.Join(dataDir, "audit.db"),
			ArchiveDir: filepath.Join(dataDir, "archive"),
		},
		Snapshot: store.DefaultSnapshotConfig(),
		LogLevel: "info",
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mindflow"
	}
	return filepath.Join(home, ".mindflow")
}

// Load reads the configuration at path, layering it over defaults. A
// missing file returns the defaults; an empty path checks the standard
// location.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join(defaultDataDir(), "config.yaml")
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return Config{}, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	}

	// The API key is never stored in the file by default.
	if key := os.Getenv("MINDFLOW_API_KEY"); key != "" {
		cfg.Backend.APIKey = key
	}

	return cfg, nil
}
