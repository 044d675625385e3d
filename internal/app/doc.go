// Package app wires configuration, the durable ledger, the broker link and
// the compiled-in service modules into a ready Registry, decoupled from any
// specific entrypoint like the CLI.
package app
