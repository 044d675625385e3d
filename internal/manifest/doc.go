// Package manifest loads service manifest files, the platform's code units.
//
// A manifest is an HCL file declaring zero or more `service` blocks, each of
// which binds a service identity to a compiled-in Go handler. Loading always
// re-parses the file from current disk contents with a fresh parser, so a
// unit can never be served from a cached parse of an earlier revision.
package manifest
