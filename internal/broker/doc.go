// Package broker connects the registry to the outside world: a generic
// (re-)connection state machine for links to external resources, a
// socket.io announcer that broadcasts deployments, and a starter for
// standalone connector processes.
package broker
