package registry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vk/svcstorego/internal/ctxlog"
	"github.com/vk/svcstorego/internal/manifest"
	"github.com/vk/svcstorego/internal/service"
)

// deploymentInfo is the human-readable deployment record serialized into
// every descriptor and ledger row.
type deploymentInfo struct {
	Component string `json:"component"`
	Identity  string `json:"identity"`
	Handler   string `json:"handler"`
	Details   string `json:"details,omitempty"`
	Timestamp string `json:"timestamp_utc"`
	Location  string `json:"fs_location"`
}

// ImportFrom imports services from any of the supported sources: archives,
// directories, individual manifest files, or dotted module names.
//
// Every resolved item is attempted to completion; a failing item is recorded
// in the returned Batch.Errors and never prevents deployment of the others.
// Durable-store writes are per identity with no spanning transaction, so a
// mid-batch failure leaves earlier identities registered.
func (r *Registry) ImportFrom(ctx context.Context, items []string, baseDir, workDir string) (*Batch, error) {
	logger := ctxlog.FromContext(ctx)
	batch := &Batch{}

	for _, item := range items {
		logger.Debug("About to import services.", "item", item)

		sources, err := r.locator.Resolve(ctx, item, baseDir, workDir)
		if err != nil {
			logger.Warn("Skipping unresolvable import item.", "item", item, "error", err)
			batch.Errors = append(batch.Errors, ItemError{Item: item, Err: err})
			continue
		}

		for _, src := range sources {
			unit, err := manifest.Load(ctx, src.Path)
			if err != nil {
				logger.Warn("Skipping unit that failed to load.", "path", src.Path, "error", err)
				batch.Errors = append(batch.Errors, ItemError{Item: src.Path, Err: err})
				continue
			}
			r.visitUnit(ctx, unit, src.Internal, batch)
		}
	}

	logger.Info("Batch import finished.", "deployed", len(batch.Deployed), "failed_items", len(batch.Errors))
	return batch, nil
}

// visitUnit walks every declaration a unit exposes and deploys the eligible
// ones.
func (r *Registry) visitUnit(ctx context.Context, unit *manifest.Unit, isInternal bool, batch *Batch) {
	logger := ctxlog.FromContext(ctx)

	for _, decl := range unit.Services {
		identity := decl.Identity(unit.Name)
		if !r.shouldDeploy(ctx, identity, decl) {
			continue
		}

		handler := r.handlers[decl.Handler]
		timestamp := time.Now().UTC().Format(time.RFC3339Nano)

		name := decl.Name
		if name == "" {
			name = decl.Label
		}

		info, err := json.Marshal(deploymentInfo{
			Component: "ServiceRegistry",
			Identity:  identity,
			Handler:   decl.Handler,
			Details:   decl.Description,
			Timestamp: timestamp,
			Location:  unit.Path,
		})
		if err != nil {
			// Marshal of the struct above cannot fail; keep the descriptor
			// usable regardless.
			info = nil
		}

		probe := handler.New()
		r.invokeHook(ctx, identity, probe, hookBeforeDeploy)

		prov := r.recorder.Capture(ctx, unit.Path)

		_, isActive, err := r.store.AddService(ctx, name, identity, isInternal, timestamp, info, prov)
		if err != nil {
			logger.Error("Durable store rejected deployment.", "identity", identity, "error", err)
			batch.Errors = append(batch.Errors, ItemError{Item: identity, Err: err})
			continue
		}

		desc := &Descriptor{
			Identity:       identity,
			Handler:        decl.Handler,
			New:            handler.New,
			DeploymentInfo: info,
			DeployedAt:     timestamp,
			Provenance:     prov,
			IsInternal:     isInternal,
			IsActive:       isActive,
		}
		// Later deployments of the same identity overwrite earlier ones.
		r.services[identity] = desc
		batch.Deployed = append(batch.Deployed, desc)

		r.invokeHook(ctx, identity, probe, hookAfterDeploy)

		if r.notifier != nil {
			if err := r.notifier.ServiceDeployed(ctx, desc); err != nil {
				logger.Warn("Deployment announcement failed.", "identity", identity, "error", err)
			}
		}

		logger.Info("Service deployed.", "identity", identity, "handler", decl.Handler, "active", isActive, "internal", isInternal)
	}
}

// shouldDeploy is the eligibility filter: a declaration qualifies only if
// its handler's constructor produces a value conforming to the service
// capability contract, its identity is not a sentinel, and it carries no
// opt-out marker. Non-conforming declarations are skipped with a trace, not
// treated as errors, since units may expose helper content alongside services.
func (r *Registry) shouldDeploy(ctx context.Context, identity string, decl *manifest.ServiceDecl) bool {
	logger := ctxlog.FromContext(ctx)

	if decl.DontDeploy {
		logger.Debug("Skipping declaration with do-not-deploy marker.", "identity", identity)
		return false
	}
	if service.Excluded(identity) {
		logger.Debug("Skipping sentinel identity.", "identity", identity)
		return false
	}

	handler, ok := r.handlers[decl.Handler]
	if !ok {
		logger.Debug("Skipping declaration with unregistered handler.", "identity", identity, "handler", decl.Handler)
		return false
	}
	if _, ok := handler.New().(service.Service); !ok {
		logger.Debug("Skipping declaration whose handler does not conform to the service contract.",
			"identity", identity, "handler", decl.Handler)
		return false
	}

	return true
}
