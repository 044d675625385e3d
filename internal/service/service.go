package service

import "context"

// Service is the capability contract every deployable implementation must
// satisfy. The registry only ever stores constructors for conforming types;
// instances are created on demand through Registry.NewInstance.
type Service interface {
	// Handle processes one invocation. The request and response payloads are
	// opaque to the deployment machinery.
	Handle(ctx context.Context, request []byte) ([]byte, error)
}

// BeforeDeployHook is an optional hook invoked on a probe instance right
// before its descriptor is written to the durable store. Hook errors are
// logged and swallowed; they never fail a deployment.
type BeforeDeployHook interface {
	BeforeDeploy(ctx context.Context) error
}

// AfterDeployHook is the post-registration counterpart of BeforeDeployHook.
type AfterDeployHook interface {
	AfterDeploy(ctx context.Context) error
}

// Sentinel identities that can never be deployed, no matter what a manifest
// declares. The base entries exist so manifests can reference the shared
// no-op handlers without accidentally deploying them.
const (
	BaseIdentity      = "service.base"
	AdminBaseIdentity = "service.admin.base"
)

// ExcludedIdentities is the static marker set consulted by the eligibility
// filter.
var ExcludedIdentities = map[string]struct{}{
	BaseIdentity:      {},
	AdminBaseIdentity: {},
}

// Excluded reports whether identity is one of the sentinel identities.
func Excluded(identity string) bool {
	_, ok := ExcludedIdentities[identity]
	return ok
}

// Base is the shared no-op implementation referenced by the base sentinel
// handlers. It conforms to Service so manifests can alias it, but the
// sentinel identity check keeps it out of every deployment.
type Base struct{}

// Handle implements Service with a no-op.
func (Base) Handle(ctx context.Context, request []byte) ([]byte, error) {
	return nil, nil
}
