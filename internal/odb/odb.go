// Package odb defines the durable deployment ledger boundary.
//
// The registry never decides activation itself: whatever Store implementation
// is wired in answers authoritatively whether a registered service is active.
// Implementations must be idempotent-safe under re-registration of the same
// identity.
package odb

import (
	"context"

	"github.com/vk/svcstorego/internal/provenance"
)

// Store is the durable system of record for deployments.
type Store interface {
	// AddService persists one deployment and returns the durable id together
	// with the authoritative activation flag. Re-registering an identity must
	// return the same id and preserve its activation state.
	AddService(ctx context.Context, name, identity string, isInternal bool,
		timestamp string, deploymentInfo []byte, prov provenance.Provenance) (id int64, isActive bool, err error)

	// Close releases the store's resources.
	Close() error
}
