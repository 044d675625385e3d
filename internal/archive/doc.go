// Package archive decompresses supported package archives into freshly
// named scratch directories.
//
// Every extraction gets its own directory combining a filesystem-safe
// timestamp with a random hex suffix, so concurrent extractions of the same
// archive (even across processes) can never collide or merge into a
// pre-existing tree. Scratch directories are never cleaned up here; the
// caller owns them once Extract returns.
package archive
