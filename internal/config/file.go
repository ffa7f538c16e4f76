package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFilePath returns ~/.config/deskflow/config.yaml, or "" if the
// home directory cannot be resolved.
func DefaultFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "deskflow", "config.yaml")
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current values.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Load builds the effective configuration: defaults, then the config file
// (DESKFLOW_CONFIG or the default path, skipped when absent), then the
// environment. The result is validated.
func Load() (*Config, error) {
	cfg := Default()

	path := os.Getenv("DESKFLOW_CONFIG")
	explicit := path != ""
	if !explicit {
		path = DefaultFilePath()
	}

	if path != "" {
		if err := LoadFile(cfg, path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	LoadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
