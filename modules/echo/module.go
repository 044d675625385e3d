// Package echo provides the simplest deployable service: it answers every
// request with the request itself. Useful for smoke-testing a deployment
// end to end.
package echo

import (
	"context"

	"github.com/vk/svcstorego/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Service echoes request payloads back unchanged.
type Service struct{}

// Handle implements service.Service.
func (s *Service) Handle(ctx context.Context, request []byte) ([]byte, error) {
	return request, nil
}

// Register registers the handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("Echo", &registry.RegisteredHandler{
		New: func() any { return &Service{} },
	})
}
