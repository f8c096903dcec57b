// Package config holds the server configuration, read from an optional YAML
// file with CLI flags layered on top.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration.
type Config struct {
	// ListenAddr is the HTTP listen address (default ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// RequirementsPath is the programme requirements table. A missing file is
	// not an error; the matcher runs with an empty index.
	RequirementsPath string `yaml:"requirements_path"`

	// StaticDir serves a frontend bundle when set.
	StaticDir string `yaml:"static_dir"`

	// LogLevel is a zap level name: debug, info, warn, error (default "info").
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ListenAddr: ":8080",
		LogLevel:   "info",
	}
}

// Load reads a YAML configuration file, filling unset fields with defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %q: %w", path, err)
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}
