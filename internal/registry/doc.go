// Package registry is the central store of deployable services.
//
// The Registry maps the handler names used in service manifests to the
// compiled Go constructors that implement them, and maps each deployed
// service's stable identity to its descriptor (deployment metadata,
// provenance, activation flag). ImportFrom is the façade over the whole
// deployment pipeline: locate sources, load units, filter eligible
// declarations, capture provenance, write the durable ledger, and record
// the descriptor.
//
// The registry holds constructors, never instances; NewInstance is the only
// place service instances are created.
package registry
