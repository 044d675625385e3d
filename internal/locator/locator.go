package locator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/svcstorego/internal/archive"
	"github.com/vk/svcstorego/internal/ctxlog"
	"github.com/vk/svcstorego/internal/fsutil"
	"github.com/vk/svcstorego/internal/manifest"
)

// InternalPrefix marks items belonging to the platform's own namespace.
// Internal units differ only in provenance metadata, never in eligibility.
const InternalPrefix = "platform"

// ErrNoSuchSource signals an item that is neither absolute nor resolvable
// relative to the base directory and does not exist on disk. It aborts only
// that item's processing.
var ErrNoSuchSource = errors.New("no such source")

// PackageManifestName is the optional per-package file selecting which
// manifest files a package root contributes.
const PackageManifestName = "package.hcl"

// UnitSource is one resolved, loadable unit origin.
type UnitSource struct {
	// Path points at a manifest file on disk.
	Path string
	// Internal is true when the originating item is namespace-prefixed.
	Internal bool
}

// Locator resolves import items. ModulePaths are the search roots for
// dotted module names, tried in order.
type Locator struct {
	ModulePaths []string
}

// New creates a Locator with the given module search paths.
func New(modulePaths ...string) *Locator {
	return &Locator{ModulePaths: modulePaths}
}

// Resolve maps a single item to its unit sources. Dispatch order, first
// match wins: recognized archive, existing directory, existing manifest
// file, dotted module name.
func (l *Locator) Resolve(ctx context.Context, item, baseDir, workDir string) ([]UnitSource, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving import item.", "item", item)

	internal := strings.HasPrefix(item, InternalPrefix)

	switch {
	case archive.IsArchive(item):
		dir, err := archive.Extract(ctx, item, workDir)
		if err != nil {
			return nil, err
		}
		return l.resolveDirectory(ctx, dir, internal)

	case isDir(item):
		return l.resolveDirectory(ctx, item, internal)

	case manifest.IsManifestFile(item):
		return l.resolveFile(item, baseDir, internal)

	default:
		return l.resolveModule(ctx, item, internal)
	}
}

// resolveFile normalizes a manifest file path against baseDir and verifies
// it exists on disk.
func (l *Locator) resolveFile(item, baseDir string, internal bool) ([]UnitSource, error) {
	path := item
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	path = filepath.Clean(path)

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchSource, path)
	}
	return []UnitSource{{Path: path, Internal: internal}}, nil
}

// packageManifest is the decoded form of a package.hcl file.
type packageManifest struct {
	Files []string `hcl:"files"`
}

// resolveDirectory treats dir as a package root. A package.hcl manifest
// selects the contributed files through relative glob patterns; without one
// every manifest file under the root is visited.
func (l *Locator) resolveDirectory(ctx context.Context, dir string, internal bool) ([]UnitSource, error) {
	logger := ctxlog.FromContext(ctx)

	pkgPath := filepath.Join(dir, PackageManifestName)
	if _, err := os.Stat(pkgPath); err == nil {
		return l.resolveFromPackageManifest(ctx, dir, pkgPath, internal)
	}

	paths, err := fsutil.FindFilesByExtension(dir, manifest.Extension)
	if err != nil {
		return nil, fmt.Errorf("failed to walk package root %s: %w", dir, err)
	}

	var sources []UnitSource
	for _, p := range paths {
		if filepath.Base(p) == PackageManifestName {
			continue
		}
		sources = append(sources, UnitSource{Path: p, Internal: internal})
	}

	logger.Debug("Resolved package root.", "dir", dir, "units", len(sources))
	return sources, nil
}

// resolveFromPackageManifest visits only the files the package manifest
// names.
func (l *Locator) resolveFromPackageManifest(ctx context.Context, dir, pkgPath string, internal bool) ([]UnitSource, error) {
	logger := ctxlog.FromContext(ctx)

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(pkgPath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse package manifest %s: %w", pkgPath, diags)
	}

	var pkg packageManifest
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &pkg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode package manifest %s: %w", pkgPath, diags)
	}

	var sources []UnitSource
	for _, pattern := range pkg.Files {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("bad files pattern %q in %s: %w", pattern, pkgPath, err)
		}
		for _, m := range matches {
			if manifest.IsManifestFile(m) && filepath.Base(m) != PackageManifestName {
				sources = append(sources, UnitSource{Path: m, Internal: internal})
			}
		}
	}

	logger.Debug("Resolved package root from manifest.", "dir", dir, "units", len(sources))
	return sources, nil
}

// resolveModule maps a dotted module name onto the module search paths:
// a.b.c becomes <searchPath>/a/b/c.hcl, first existing hit wins.
func (l *Locator) resolveModule(ctx context.Context, name string, internal bool) ([]UnitSource, error) {
	logger := ctxlog.FromContext(ctx)

	rel := filepath.Join(strings.Split(name, ".")...) + manifest.Extension
	for _, root := range l.ModulePaths {
		candidate := filepath.Join(root, rel)
		if _, err := os.Stat(candidate); err == nil {
			logger.Debug("Resolved module name.", "module", name, "path", candidate)
			return []UnitSource{{Path: candidate, Internal: internal}}, nil
		}
	}

	return nil, fmt.Errorf("%w: module %q not found in search paths %v", ErrNoSuchSource, name, l.ModulePaths)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
