// Package locator resolves heterogeneous import items into loadable unit
// sources.
//
// An item may be a package archive, a directory tree, a single manifest
// file, or a dotted module name resolved against the configured module
// search paths. Whatever the shape, resolution yields a flat list of
// manifest file paths, each tagged with whether it belongs to the platform's
// own namespace.
package locator
