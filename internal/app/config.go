package app

import "errors"

// Config holds everything one App instance needs to run a batch import.
type Config struct {
	// Items are the import sources: archives, directories, manifest files,
	// or dotted module names.
	Items []string
	// BaseDir resolves relative manifest file paths.
	BaseDir string
	// WorkDir overrides the configured scratch root when non-empty.
	WorkDir string
	// ConfigPath points at store.toml; empty means built-in defaults.
	ConfigPath string

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Items) == 0 {
		return nil, errors.New("at least one import item is required")
	}
	return &cfg, nil
}
