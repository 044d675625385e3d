// Package service defines the platform's service capability contract and the
// sentinel identities excluded from deployment.
//
// The original design detected deployable implementations by walking type
// hierarchies at import time. Here conformance is explicit: a candidate
// qualifies only if the value produced by its registered handler constructor
// satisfies the Service interface, and exclusion is a static identity set
// rather than an inheritance-chain walk.
package service
