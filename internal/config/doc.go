// Package config loads the server configuration file (store.toml) that
// wires the durable ledger, the broker link, and the deployment defaults.
package config
