// Package httpcheck provides a deployable service that probes an HTTP
// endpoint and reports its status.
package httpcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vk/svcstorego/internal/ctxlog"
	"github.com/vk/svcstorego/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// httpClient is shared across instances to reuse TCP connections.
var httpClient = &http.Client{Timeout: 10 * time.Second}

// request is the expected invocation payload.
type request struct {
	URL string `json:"url"`
}

// response is the probe result.
type response struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	DurationMS int64  `json:"duration_ms"`
}

// Service probes the URL named in the request payload with a GET.
type Service struct{}

// Handle implements service.Service.
func (s *Service) Handle(ctx context.Context, raw []byte) ([]byte, error) {
	logger := ctxlog.FromContext(ctx).With("service", "httpcheck")

	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("invalid httpcheck request: %w", err)
	}
	if req.URL == "" {
		return nil, fmt.Errorf("httpcheck request is missing 'url'")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build probe request: %w", err)
	}

	start := time.Now()
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("probe of %s failed: %w", req.URL, err)
	}
	resp.Body.Close()

	logger.Debug("Probe finished.", "url", req.URL, "status", resp.StatusCode)
	return json.Marshal(response{
		URL:        req.URL,
		StatusCode: resp.StatusCode,
		DurationMS: time.Since(start).Milliseconds(),
	})
}

// Register registers the handler with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("HTTPCheck", &registry.RegisteredHandler{
		New: func() any { return &Service{} },
	})
}
