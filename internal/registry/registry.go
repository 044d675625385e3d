package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vk/svcstorego/internal/locator"
	"github.com/vk/svcstorego/internal/odb"
	"github.com/vk/svcstorego/internal/provenance"
	"github.com/vk/svcstorego/internal/service"
)

// ErrNotFound is returned by Get and NewInstance for unknown identities.
var ErrNotFound = errors.New("service not found")

// Module is the interface all compiled-in service modules implement to be
// registered at startup.
type Module interface {
	Register(r *Registry)
}

// RegisteredHandler holds the compiled Go constructor backing a manifest
// handler name. New returns an untyped value; eligibility checks whether it
// conforms to the service capability contract.
type RegisteredHandler struct {
	New func() any
}

// Descriptor is the registry's unit of record for one deployed service.
type Descriptor struct {
	// Identity is the stable registry key.
	Identity string
	// Handler names the registered constructor backing the service.
	Handler string
	// New constructs fresh implementation instances. The registry stores
	// the constructor, never an instance.
	New func() any
	// DeploymentInfo is the serialized human-readable deployment record.
	DeploymentInfo []byte
	// DeployedAt is the UTC ISO-8601 deployment timestamp.
	DeployedAt string
	// Provenance records source bytes, digest, algorithm, and origin path.
	// It may be empty when the source could not be read.
	Provenance provenance.Provenance
	// IsInternal is true for platform-namespace deployments.
	IsInternal bool
	// IsActive is the activation flag as answered by the durable store.
	IsActive bool
}

// ItemError reports one failed item of a batch import.
type ItemError struct {
	Item string
	Err  error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Item, e.Err)
}

// Batch reports the outcome of one ImportFrom call. It is transient; the
// registry does not retain it.
type Batch struct {
	// Deployed lists the descriptors recorded by this call, in deployment
	// order.
	Deployed []*Descriptor
	// Errors lists the items (or individual units) that failed, without
	// having aborted the rest of the batch.
	Errors []ItemError
}

// Notifier announces successful deployments to interested collaborators.
// Announcement is best effort; errors are logged and swallowed.
type Notifier interface {
	ServiceDeployed(ctx context.Context, desc *Descriptor) error
}

// Registry is the in-memory service store and the deployment façade.
type Registry struct {
	handlers map[string]*RegisteredHandler
	services map[string]*Descriptor

	locator  *locator.Locator
	recorder *provenance.Recorder
	store    odb.Store
	notifier Notifier
}

// New creates a Registry wired to its collaborators.
func New(store odb.Store, loc *locator.Locator, recorder *provenance.Recorder) *Registry {
	return &Registry{
		handlers: make(map[string]*RegisteredHandler),
		services: make(map[string]*Descriptor),
		locator:  loc,
		recorder: recorder,
		store:    store,
	}
}

// SetNotifier wires an optional deployment announcer.
func (r *Registry) SetNotifier(n Notifier) {
	r.notifier = n
}

// RegisterHandler registers a Go constructor under a manifest handler name.
// Double registration is a programmer error.
func (r *Registry) RegisterHandler(name string, handler *RegisteredHandler) {
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("service handler with name '%s' already registered", name))
	}
	slog.Debug("Registering service handler.", "name", name)
	r.handlers[name] = handler
}

// Handler looks up a registered handler by name.
func (r *Registry) Handler(name string) (*RegisteredHandler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Get returns the descriptor stored under identity.
func (r *Registry) Get(identity string) (*Descriptor, error) {
	desc, ok := r.services[identity]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, identity)
	}
	return desc, nil
}

// Len reports how many identities the registry holds.
func (r *Registry) Len() int {
	return len(r.services)
}

// NewInstance constructs a fresh instance of the implementation registered
// under identity. This is the only place instances are created.
func (r *Registry) NewInstance(identity string) (service.Service, error) {
	desc, err := r.Get(identity)
	if err != nil {
		return nil, err
	}
	svc, ok := desc.New().(service.Service)
	if !ok {
		// Unreachable for descriptors admitted by the eligibility filter.
		return nil, fmt.Errorf("handler %q no longer conforms to the service contract", desc.Handler)
	}
	return svc, nil
}
