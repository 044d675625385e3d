package broker

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/svcstorego/internal/ctxlog"
	"github.com/vk/svcstorego/internal/registry"
)

// DeployedEvent is the event name emitted for every successful deployment.
const DeployedEvent = "service_deployed"

// AnnouncerConfig configures the deployment announcer.
type AnnouncerConfig struct {
	// URL is the broker endpoint, e.g. http://broker:8080/socket.io.
	URL string
	// Namespace is the socket.io namespace to join; "/" when empty.
	Namespace string
	// ConnectTimeout bounds a single connection attempt. Defaults to 10s.
	ConnectTimeout time.Duration
}

// Announcer broadcasts deployments over a socket.io connection. It
// implements registry.Notifier; announcement failures are reported to the
// registry, which logs and swallows them.
type Announcer struct {
	cfg AnnouncerConfig

	conn    *Connection
	manager *socket.Manager
	io      *socket.Socket
}

// NewAnnouncer creates an unconnected Announcer.
func NewAnnouncer(cfg AnnouncerConfig) *Announcer {
	if cfg.Namespace == "" {
		cfg.Namespace = "/"
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	return &Announcer{cfg: cfg}
}

// Connect establishes the broker link, retrying recoverable failures
// through the shared reconnection loop.
func (a *Announcer) Connect(ctx context.Context) error {
	a.conn = &Connection{
		Info: fmt.Sprintf("broker at %s%s", a.cfg.URL, a.cfg.Namespace),
		Dial: a.dial,
		// socket.io wraps transport errors beyond errno recognition; every
		// failed attempt against a live config is worth retrying.
		Recoverable: func(error) bool { return true },
	}
	return a.conn.Establish(ctx)
}

// Connected reports whether the broker link is up.
func (a *Announcer) Connected() bool {
	return a.conn != nil && a.conn.Connected()
}

// dial performs one socket.io connection attempt.
func (a *Announcer) dial(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	parsedURL, err := url.Parse(a.cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to parse broker URL: %w", err)
	}
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(a.cfg.Namespace, opts)

	result := make(chan error, 1)
	io.On(types.EventName("connect"), func(...any) {
		result <- nil
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				result <- e
				return
			}
		}
		result <- fmt.Errorf("broker connection refused")
	})

	io.Connect()

	dialCtx, cancel := context.WithTimeout(ctx, a.cfg.ConnectTimeout)
	defer cancel()

	select {
	case <-dialCtx.Done():
		io.Disconnect()
		return fmt.Errorf("timed out connecting to broker at %s: %w", a.cfg.URL, dialCtx.Err())
	case err := <-result:
		if err != nil {
			io.Disconnect()
			return err
		}
	}

	a.manager = manager
	a.io = io
	logger.Info("Connected to broker.", "url", a.cfg.URL, "namespace", a.cfg.Namespace, "sid", a.io.Id())
	return nil
}

// ServiceDeployed implements registry.Notifier by emitting the deployment
// event with the descriptor's audit fields.
func (a *Announcer) ServiceDeployed(ctx context.Context, desc *registry.Descriptor) error {
	if !a.Connected() {
		return fmt.Errorf("announcer is not connected")
	}

	payload := map[string]any{
		"identity":    desc.Identity,
		"handler":     desc.Handler,
		"deployed_at": desc.DeployedAt,
		"is_internal": desc.IsInternal,
		"is_active":   desc.IsActive,
	}
	if !desc.Provenance.Empty() {
		payload["source_hash"] = desc.Provenance.Hash
		payload["hash_method"] = desc.Provenance.HashMethod
		payload["source_path"] = desc.Provenance.Path
	}

	return a.io.Emit(DeployedEvent, payload)
}

// Close tears the broker link down.
func (a *Announcer) Close() {
	if a.io != nil {
		a.io.Disconnect()
		a.io = nil
		a.manager = nil
	}
	if a.conn != nil {
		a.conn.Reset()
	}
}

var _ registry.Notifier = (*Announcer)(nil)
