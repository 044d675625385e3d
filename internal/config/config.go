package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Server is the decoded store.toml.
type Server struct {
	ODB    ODB    `toml:"odb"`
	Broker Broker `toml:"broker"`
	Deploy Deploy `toml:"deploy"`
}

// ODB selects and configures the durable deployment ledger.
type ODB struct {
	// Driver is "memory" or "postgres".
	Driver string `toml:"driver"`
	// URL is the postgres connection string; unused by the memory driver.
	URL             string   `toml:"url"`
	MaxOpenConns    int      `toml:"max_open_conns"`
	MaxIdleConns    int      `toml:"max_idle_conns"`
	ConnMaxLifetime duration `toml:"conn_max_lifetime"`
}

// Broker configures the deployment announcer.
type Broker struct {
	Enabled   bool   `toml:"enabled"`
	URL       string `toml:"url"`
	Namespace string `toml:"namespace"`
}

// Deploy configures the import pipeline itself.
type Deploy struct {
	// WorkDir is the writable root for archive scratch directories.
	WorkDir string `toml:"work_dir"`
	// ModulePaths are the search roots for dotted module names.
	ModulePaths []string `toml:"module_paths"`
	// HashMethod selects the provenance digest algorithm:
	// "SHA-256" (default) or "BLAKE3-256".
	HashMethod string `toml:"hash_method"`
}

// duration lets TOML carry values like "30m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the configuration used when no file is given: an
// in-memory ledger, no broker, SHA-256 digests.
func Default() *Server {
	return &Server{
		ODB:    ODB{Driver: "memory"},
		Deploy: Deploy{HashMethod: "SHA-256"},
	}
}

// Load reads and validates a store.toml. Missing fields keep their
// defaults.
func Load(path string) (*Server, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load server config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the bootstrap could not act on.
func (s *Server) Validate() error {
	switch s.ODB.Driver {
	case "memory":
	case "postgres":
		if s.ODB.URL == "" {
			return errors.New("odb.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown odb.driver %q", s.ODB.Driver)
	}

	switch s.Deploy.HashMethod {
	case "SHA-256", "BLAKE3-256":
	default:
		return fmt.Errorf("unknown deploy.hash_method %q", s.Deploy.HashMethod)
	}

	if s.Broker.Enabled && s.Broker.URL == "" {
		return errors.New("broker.url is required when the broker is enabled")
	}
	return nil
}
