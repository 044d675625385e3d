// Package admin provides the platform's internal administrative services.
// Their manifests live in the platform namespace, so deployments are marked
// internal in provenance metadata.
package admin

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/vk/svcstorego/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// PingService answers liveness checks.
type PingService struct{}

// Handle implements service.Service.
func (s *PingService) Handle(ctx context.Context, request []byte) ([]byte, error) {
	return []byte("pong"), nil
}

// InfoService reports basic process facts for diagnostics.
type InfoService struct {
	started time.Time
}

// Handle implements service.Service.
func (s *InfoService) Handle(ctx context.Context, request []byte) ([]byte, error) {
	host, _ := os.Hostname()
	return json.Marshal(map[string]any{
		"hostname":   host,
		"pid":        os.Getpid(),
		"started_at": s.started.UTC().Format(time.RFC3339),
	})
}

// BeforeDeploy implements the optional pre-deployment hook.
func (s *InfoService) BeforeDeploy(ctx context.Context) error {
	s.started = time.Now()
	return nil
}

// Register registers the handlers with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("AdminPing", &registry.RegisteredHandler{
		New: func() any { return &PingService{} },
	})
	r.RegisterHandler("AdminInfo", &registry.RegisteredHandler{
		New: func() any { return &InfoService{} },
	})
}
