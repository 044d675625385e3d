// Package testutil provides shared fixtures for registry and pipeline
// tests: manifest writers, conforming and non-conforming handlers, and a
// notifier capture.
package testutil

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/svcstorego/internal/locator"
	"github.com/vk/svcstorego/internal/odb/memory"
	"github.com/vk/svcstorego/internal/provenance"
	"github.com/vk/svcstorego/internal/registry"
)

// WriteManifest writes contents into dir/name and returns the full path.
func WriteManifest(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

// ZipFiles writes a zip archive at path containing the given entries and
// returns path.
func ZipFiles(t *testing.T, path string, entries map[string]string) string {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, contents := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(contents))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

// NoopService conforms to the service contract and does nothing beyond
// counting its invocations, so tests can observe per-instance state.
type NoopService struct {
	Calls int
}

// Handle implements service.Service.
func (s *NoopService) Handle(ctx context.Context, request []byte) ([]byte, error) {
	s.Calls++
	return nil, nil
}

// HookFailService conforms to the contract and fails both lifecycle hooks.
type HookFailService struct{}

// Handle implements service.Service.
func (s *HookFailService) Handle(ctx context.Context, request []byte) ([]byte, error) {
	return nil, nil
}

// BeforeDeploy always fails.
func (s *HookFailService) BeforeDeploy(ctx context.Context) error {
	return errors.New("before-deploy hook failed")
}

// AfterDeploy always fails.
func (s *HookFailService) AfterDeploy(ctx context.Context) error {
	return errors.New("after-deploy hook failed")
}

// NonConforming does not satisfy the service contract.
type NonConforming struct{}

// NewRegistry builds a registry wired to a fresh in-memory ledger with the
// standard test handlers registered: "Noop" (conforming), "HookFail"
// (conforming, failing hooks), and "Helper" (non-conforming).
func NewRegistry(t *testing.T, modulePaths ...string) (*registry.Registry, *memory.Store) {
	t.Helper()

	store := memory.New()
	reg := registry.New(store, locator.New(modulePaths...), provenance.NewRecorder(provenance.AlgoSHA256))

	reg.RegisterHandler("Noop", &registry.RegisteredHandler{
		New: func() any { return &NoopService{} },
	})
	reg.RegisterHandler("HookFail", &registry.RegisteredHandler{
		New: func() any { return &HookFailService{} },
	})
	reg.RegisterHandler("Helper", &registry.RegisteredHandler{
		New: func() any { return &NonConforming{} },
	})

	return reg, store
}

// CaptureNotifier records every announced descriptor and can be told to
// fail.
type CaptureNotifier struct {
	mu       sync.Mutex
	Deployed []*registry.Descriptor
	Err      error
}

// ServiceDeployed implements registry.Notifier.
func (n *CaptureNotifier) ServiceDeployed(ctx context.Context, desc *registry.Descriptor) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Deployed = append(n.Deployed, desc)
	return n.Err
}

// Count returns how many deployments were announced.
func (n *CaptureNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Deployed)
}
