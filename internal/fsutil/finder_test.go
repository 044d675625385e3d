package fsutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.hcl", "b.txt", "nested/c.hcl", "nested/deep/d.hcl"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	}

	files, err := FindFilesByExtension(dir, ".hcl")
	require.NoError(t, err)

	require.Len(t, files, 3)
	for _, f := range files {
		assert.Equal(t, ".hcl", filepath.Ext(f))
	}
}

func TestFindFilesByExtension_EmptyExtensionPanics(t *testing.T) {
	assert.Panics(t, func() {
		FindFilesByExtension(t.TempDir(), "") //nolint:errcheck
	})
}

func TestFindFilesByExtension_MissingRoot(t *testing.T) {
	_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "absent"), ".hcl")
	assert.Error(t, err)
}

func TestSafeNow(t *testing.T) {
	ts := time.Date(2026, 3, 17, 9, 41, 5, 123456789, time.UTC)
	got := SafeNow(ts)

	assert.Equal(t, "20260317094105123456", got)
	assert.Len(t, got, 20)
	assert.NotContains(t, got, ":")
	assert.NotContains(t, got, " ")
}

func TestSafeNow_ConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2026, 3, 17, 11, 41, 5, 0, loc)

	assert.Equal(t, "20260317094105000000", SafeNow(ts))
}
