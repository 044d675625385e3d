// Package memory provides an ephemeral, thread-safe odb.Store for local
// runs and tests. Records live only as long as the process; activation is
// always granted on first registration and preserved afterwards.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/vk/svcstorego/internal/odb"
	"github.com/vk/svcstorego/internal/provenance"
)

// record is one ledger row.
type record struct {
	id             int64
	name           string
	isInternal     bool
	isActive       bool
	timestamp      string
	deploymentInfo []byte
	hash           string
	hashMethod     string
	path           string
}

// Store is the in-memory ledger. A sync.Map keyed by identity gives
// lock-free reads for the common re-registration path; id assignment uses
// an atomic counter.
type Store struct {
	records sync.Map // identity -> *record
	nextID  atomic.Int64
}

// New creates an empty in-memory ledger.
func New() *Store {
	return &Store{}
}

// AddService records one deployment. Re-registering an identity keeps its id
// and activation flag while refreshing the deployment metadata.
func (s *Store) AddService(ctx context.Context, name, identity string, isInternal bool,
	timestamp string, deploymentInfo []byte, prov provenance.Provenance) (int64, bool, error) {

	fresh := &record{
		name:           name,
		isInternal:     isInternal,
		isActive:       true,
		timestamp:      timestamp,
		deploymentInfo: deploymentInfo,
		hash:           prov.Hash,
		hashMethod:     prov.HashMethod,
		path:           prov.Path,
	}

	if existing, ok := s.records.Load(identity); ok {
		prev := existing.(*record)
		fresh.id = prev.id
		fresh.isActive = prev.isActive
	} else {
		fresh.id = s.nextID.Add(1)
	}
	s.records.Store(identity, fresh)

	return fresh.id, fresh.isActive, nil
}

// SetActive flips the activation flag for an identity, mimicking an
// administrator toggling a deployment in the ledger. Unknown identities are
// ignored.
func (s *Store) SetActive(identity string, active bool) {
	if existing, ok := s.records.Load(identity); ok {
		prev := existing.(*record)
		updated := *prev
		updated.isActive = active
		s.records.Store(identity, &updated)
	}
}

// Len reports how many distinct identities the ledger holds.
func (s *Store) Len() int {
	n := 0
	s.records.Range(func(any, any) bool { n++; return true })
	return n
}

// Close implements odb.Store.
func (s *Store) Close() error { return nil }

var _ odb.Store = (*Store)(nil)
