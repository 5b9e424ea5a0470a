package app

import (
	"errors"
	"fmt"
	"path/filepath"
)

// DefaultConfigFile is the project configuration file looked up in the root.
const DefaultConfigFile = "vyperpp.hcl"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Root        string   // project root
	ConfigPaths []string // hcl files or directories, relative to Root

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills in defaults. Root is made absolute.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Root == "" {
		return nil, errors.New("Root is a required configuration field and cannot be empty")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", cfg.Root, err)
	}
	cfg.Root = root

	if len(cfg.ConfigPaths) == 0 {
		cfg.ConfigPaths = []string{DefaultConfigFile}
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, ok := parseLevel(cfg.LogLevel); !ok {
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	return &cfg, nil
}
