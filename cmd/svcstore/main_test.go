package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/svcstorego/internal/cli"
)

func TestRun_LeavesDefaultLoggerAlone(t *testing.T) {
	before := slog.Default()

	dir := t.TempDir()
	manifest := filepath.Join(dir, "demo.hcl")
	require.NoError(t, os.WriteFile(manifest, []byte(`
service "echo" {
  handler = "Echo"
}
`), 0o600))

	var out bytes.Buffer
	require.NoError(t, run(&out, []string{"-work-dir", t.TempDir(), manifest}))

	assert.Same(t, before, slog.Default())
}

func TestRun_HelpExitsCleanly(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"-h"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
}

func TestRun_ParseErrorPropagates(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"-log-level", "trace", "x.hcl"})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRun_DeploysManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "demo.hcl")
	require.NoError(t, os.WriteFile(manifest, []byte(`
service "echo" {
  handler = "Echo"
}
`), 0o600))

	var out bytes.Buffer
	err := run(&out, []string{"-work-dir", t.TempDir(), manifest})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "deployed demo.echo")
}

func TestRun_FailedItemsSetExitCode(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, []string{"-work-dir", t.TempDir(), filepath.Join(t.TempDir(), "absent.hcl")})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
}
