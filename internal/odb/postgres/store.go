// Package postgres provides the production odb.Store backed by PostgreSQL
// through the pgx stdlib driver.
//
// Registration is a single upsert keyed by identity: the first insert
// activates the service, later re-registrations refresh the deployment
// metadata while preserving the stored activation flag, so the same
// identity can be re-imported any number of times.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vk/svcstorego/internal/odb"
	"github.com/vk/svcstorego/internal/provenance"
)

// Config carries the connection settings, typically decoded from the
// server's store.toml.
type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Schema is the DDL for the deployment ledger. Applied out of band; kept
// here so the table definition lives next to the queries that use it.
const Schema = `
CREATE TABLE IF NOT EXISTS deployed_services (
	id              BIGSERIAL PRIMARY KEY,
	identity        TEXT NOT NULL UNIQUE,
	name            TEXT NOT NULL,
	is_internal     BOOLEAN NOT NULL,
	is_active       BOOLEAN NOT NULL DEFAULT TRUE,
	deployed_at     TEXT NOT NULL,
	deployment_info JSONB NOT NULL,
	source          BYTEA,
	source_path     TEXT,
	source_hash     TEXT,
	hash_method     TEXT
);`

// Store is the PostgreSQL ledger.
type Store struct {
	db *sql.DB
}

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open odb connection: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping odb: %w", err)
	}
	return &Store{db: db}, nil
}

// AddService upserts one deployment row and returns the durable id and the
// stored activation flag.
func (s *Store) AddService(ctx context.Context, name, identity string, isInternal bool,
	timestamp string, deploymentInfo []byte, prov provenance.Provenance) (int64, bool, error) {

	var (
		id       int64
		isActive bool
	)
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO deployed_services (
			identity, name, is_internal, deployed_at, deployment_info,
			source, source_path, source_hash, hash_method
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (identity) DO UPDATE SET
			name            = EXCLUDED.name,
			is_internal     = EXCLUDED.is_internal,
			deployed_at     = EXCLUDED.deployed_at,
			deployment_info = EXCLUDED.deployment_info,
			source          = EXCLUDED.source,
			source_path     = EXCLUDED.source_path,
			source_hash     = EXCLUDED.source_hash,
			hash_method     = EXCLUDED.hash_method
		RETURNING id, is_active`,
		identity, name, isInternal, timestamp, deploymentInfo,
		prov.Source, prov.Path, prov.Hash, prov.HashMethod,
	).Scan(&id, &isActive)
	if err != nil {
		return 0, false, fmt.Errorf("failed to record deployment of %q: %w", identity, err)
	}

	return id, isActive, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ odb.Store = (*Store)(nil)
