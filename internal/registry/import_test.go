package registry_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/svcstorego/internal/registry"
	"github.com/vk/svcstorego/internal/testutil"
)

func TestImportFrom_SingleFileWithTwoServicesAndHelper(t *testing.T) {
	reg, store := testutil.NewRegistry(t)
	dir := t.TempDir()
	path := testutil.WriteManifest(t, dir, "billing.hcl", `
service "invoice" {
  handler = "Noop"
}

service "refund" {
  handler = "Noop"
}

# Helper content alongside the services; never deployed, never an error.
settings "defaults" {
  currency = "EUR"
}
`)

	batch, err := reg.ImportFrom(context.Background(), []string{path}, "", t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, batch.Errors)
	require.Len(t, batch.Deployed, 2)
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, 2, store.Len())

	for _, desc := range batch.Deployed {
		assert.NotEmpty(t, desc.Provenance.Hash, "deployed descriptors carry a digest")
		assert.True(t, desc.IsActive, "the memory ledger activates first registrations")
	}

	invoice, err := reg.Get("billing.invoice")
	require.NoError(t, err)
	assert.Equal(t, "Noop", invoice.Handler)
	assert.NotEmpty(t, invoice.DeployedAt)
	assert.NotEmpty(t, invoice.DeploymentInfo)
}

func TestImportFrom_IdempotentReimport(t *testing.T) {
	reg, store := testutil.NewRegistry(t)
	dir := t.TempDir()
	path := testutil.WriteManifest(t, dir, "svc.hcl", `service "a" { handler = "Noop" }`)

	ctx := context.Background()
	_, err := reg.ImportFrom(ctx, []string{path}, "", t.TempDir())
	require.NoError(t, err)
	_, err = reg.ImportFrom(ctx, []string{path}, "", t.TempDir())
	require.NoError(t, err)

	// The second import overwrites, never duplicates.
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, 1, store.Len())
}

func TestImportFrom_ReimportAfterModificationChangesDigest(t *testing.T) {
	reg, _ := testutil.NewRegistry(t)
	dir := t.TempDir()
	path := testutil.WriteManifest(t, dir, "svc.hcl", `service "a" { handler = "Noop" }`)

	ctx := context.Background()
	_, err := reg.ImportFrom(ctx, []string{path}, "", t.TempDir())
	require.NoError(t, err)
	first, err := reg.Get("svc.a")
	require.NoError(t, err)

	testutil.WriteManifest(t, dir, "svc.hcl", `
service "a" {
  handler     = "Noop"
  description = "revised"
}
`)
	_, err = reg.ImportFrom(ctx, []string{path}, "", t.TempDir())
	require.NoError(t, err)
	second, err := reg.Get("svc.a")
	require.NoError(t, err)

	assert.NotEqual(t, first.Provenance.Hash, second.Provenance.Hash)
}

func TestImportFrom_SentinelsAndMarkerNeverRegistered(t *testing.T) {
	reg, _ := testutil.NewRegistry(t)
	dir := t.TempDir()
	path := testutil.WriteManifest(t, dir, "mixed.hcl", `
service "base" {
  name    = "service.base"
  handler = "Noop"
}

service "admin_base" {
  name    = "service.admin.base"
  handler = "Noop"
}

service "optout" {
  handler     = "Noop"
  dont_deploy = true
}

service "real" {
  handler = "Noop"
}
`)

	batch, err := reg.ImportFrom(context.Background(), []string{path}, "", t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, batch.Errors)
	require.Len(t, batch.Deployed, 1)
	assert.Equal(t, "mixed.real", batch.Deployed[0].Identity)

	_, err = reg.Get("service.base")
	assert.ErrorIs(t, err, registry.ErrNotFound)
	_, err = reg.Get("service.admin.base")
	assert.ErrorIs(t, err, registry.ErrNotFound)
	_, err = reg.Get("mixed.optout")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestImportFrom_NonConformingHandlerSkippedSilently(t *testing.T) {
	reg, _ := testutil.NewRegistry(t)
	dir := t.TempDir()
	path := testutil.WriteManifest(t, dir, "svc.hcl", `
service "helper" {
  handler = "Helper"
}

service "unknown" {
  handler = "NoSuchHandler"
}

service "real" {
  handler = "Noop"
}
`)

	batch, err := reg.ImportFrom(context.Background(), []string{path}, "", t.TempDir())
	require.NoError(t, err)

	// Non-conforming and unregistered handlers are skipped, not errors.
	assert.Empty(t, batch.Errors)
	require.Len(t, batch.Deployed, 1)
	assert.Equal(t, "svc.real", batch.Deployed[0].Identity)
}

func TestImportFrom_PartialFailureIsolation(t *testing.T) {
	reg, _ := testutil.NewRegistry(t)
	dir := t.TempDir()
	first := testutil.WriteManifest(t, dir, "first.hcl", `service "a" { handler = "Noop" }`)
	third := testutil.WriteManifest(t, dir, "third.hcl", `service "c" { handler = "Noop" }`)
	missing := filepath.Join(dir, "second.hcl")

	batch, err := reg.ImportFrom(context.Background(), []string{first, missing, third}, "", t.TempDir())
	require.NoError(t, err)

	// The failing middle item is reported without aborting its neighbours.
	require.Len(t, batch.Errors, 1)
	assert.Equal(t, missing, batch.Errors[0].Item)
	require.Len(t, batch.Deployed, 2)
	assert.Equal(t, "first.a", batch.Deployed[0].Identity)
	assert.Equal(t, "third.c", batch.Deployed[1].Identity)
}

func TestImportFrom_MalformedUnitInDirectoryIsIsolated(t *testing.T) {
	reg, _ := testutil.NewRegistry(t)
	dir := t.TempDir()
	testutil.WriteManifest(t, dir, "good.hcl", `service "a" { handler = "Noop" }`)
	testutil.WriteManifest(t, dir, "bad.hcl", `service "b" { handler = `)

	batch, err := reg.ImportFrom(context.Background(), []string{dir}, "", t.TempDir())
	require.NoError(t, err)

	require.Len(t, batch.Errors, 1)
	require.Len(t, batch.Deployed, 1)
	assert.Equal(t, "good.a", batch.Deployed[0].Identity)
}

func TestImportFrom_DirectoryWithNoEligibleTypes(t *testing.T) {
	reg, _ := testutil.NewRegistry(t)
	dir := t.TempDir()
	testutil.WriteManifest(t, dir, "helpers.hcl", `
settings "defaults" {
  currency = "EUR"
}
`)

	batch, err := reg.ImportFrom(context.Background(), []string{dir}, "", t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, batch.Errors)
	assert.Empty(t, batch.Deployed)
	assert.Equal(t, 0, reg.Len())
}

func TestImportFrom_FailingHooksDoNotAbort(t *testing.T) {
	reg, _ := testutil.NewRegistry(t)
	dir := t.TempDir()
	path := testutil.WriteManifest(t, dir, "svc.hcl", `
service "hooked" {
  handler = "HookFail"
}

service "plain" {
  handler = "Noop"
}
`)

	batch, err := reg.ImportFrom(context.Background(), []string{path}, "", t.TempDir())
	require.NoError(t, err)

	// Hook failures are logged and swallowed; both services deploy.
	assert.Empty(t, batch.Errors)
	assert.Len(t, batch.Deployed, 2)
}

func TestImportFrom_NotifierIsBestEffort(t *testing.T) {
	reg, _ := testutil.NewRegistry(t)
	notifier := &testutil.CaptureNotifier{Err: assert.AnError}
	reg.SetNotifier(notifier)

	dir := t.TempDir()
	path := testutil.WriteManifest(t, dir, "svc.hcl", `service "a" { handler = "Noop" }`)

	batch, err := reg.ImportFrom(context.Background(), []string{path}, "", t.TempDir())
	require.NoError(t, err)

	// The announcement failed, the deployment did not.
	assert.Len(t, batch.Deployed, 1)
	assert.Equal(t, 1, notifier.Count())
}

func TestImportFrom_ModuleName(t *testing.T) {
	root := t.TempDir()
	testutil.WriteManifest(t, root, "platform/core.hcl", `
service "ping" {
  name    = "platform.core.ping"
  handler = "Noop"
}
`)

	reg, _ := testutil.NewRegistry(t, root)
	batch, err := reg.ImportFrom(context.Background(), []string{"platform.core"}, "", t.TempDir())
	require.NoError(t, err)

	require.Len(t, batch.Deployed, 1)
	desc := batch.Deployed[0]
	assert.Equal(t, "platform.core.ping", desc.Identity)
	assert.True(t, desc.IsInternal)
}

func TestImportFrom_ArchiveEndToEnd(t *testing.T) {
	reg, _ := testutil.NewRegistry(t)

	// Pack a manifest into a zip and import the archive directly.
	dir := t.TempDir()
	manifestPath := testutil.WriteManifest(t, dir, "packed.hcl", `service "a" { handler = "Noop" }`)
	archivePath := testutil.ZipFiles(t, filepath.Join(dir, "bundle.zip"), map[string]string{
		"packed.hcl": readFile(t, manifestPath),
	})

	workDir := t.TempDir()
	batch, err := reg.ImportFrom(context.Background(), []string{archivePath}, "", workDir)
	require.NoError(t, err)

	assert.Empty(t, batch.Errors)
	require.Len(t, batch.Deployed, 1)
	assert.Equal(t, "packed.a", batch.Deployed[0].Identity)

	// The scratch directory stays behind for inspection.
	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
