package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/vk/svcstorego/internal/ctxlog"
	"github.com/vk/svcstorego/internal/fsutil"
)

// ErrUnsupportedArchive is returned when a path does not end with one of the
// recognized archive extensions.
var ErrUnsupportedArchive = errors.New("unsupported archive format")

// archiveSuffixes lists the recognized extensions in match order. Compound
// suffixes come first so ".tar.gz" is not matched as ".gz".
var archiveSuffixes = []string{
	".tar.gz", ".tar.zst", ".tar.lz4", ".tar.bz2", ".tgz", ".tar", ".zip",
}

// IsArchive reports whether path looks like a supported package archive.
func IsArchive(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Extract decompresses archivePath into a newly created scratch directory
// under workDir and returns the directory's path.
//
// The scratch directory is named {timestamp}-{6 hex chars}/{archive base
// name}. Creation fails if the final component already exists; collisions
// must never silently merge. Filesystem errors propagate without cleanup of
// whatever was already written.
func Extract(ctx context.Context, archivePath, workDir string) (string, error) {
	logger := ctxlog.FromContext(ctx)

	if !IsArchive(archivePath) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedArchive, archivePath)
	}

	rand := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]

	parent := filepath.Join(workDir, fmt.Sprintf("%s-%s", fsutil.SafeNow(time.Now()), rand))
	dirName := filepath.Join(parent, filepath.Base(archivePath))

	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scratch parent %s: %w", parent, err)
	}
	// os.Mkdir (not MkdirAll) so a pre-existing final component is an error.
	if err := os.Mkdir(dirName, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scratch directory %s: %w", dirName, err)
	}

	logger.Debug("Extracting archive into scratch directory.", "archive", archivePath, "dir", dirName)

	if err := decompress(archivePath, dirName); err != nil {
		return "", fmt.Errorf("failed to extract %s: %w", archivePath, err)
	}

	return dirName, nil
}

// decompress dispatches on the archive's extension.
func decompress(archivePath, destDir string) error {
	name := strings.ToLower(filepath.Base(archivePath))

	if strings.HasSuffix(name, ".zip") {
		return extractZip(archivePath, destDir)
	}

	file, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer file.Close()

	var reader io.Reader
	switch {
	case strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz"):
		gz, err := gzip.NewReader(file)
		if err != nil {
			return err
		}
		defer gz.Close()
		reader = gz
	case strings.HasSuffix(name, ".tar.zst"):
		zr, err := zstd.NewReader(file)
		if err != nil {
			return err
		}
		defer zr.Close()
		reader = zr
	case strings.HasSuffix(name, ".tar.lz4"):
		reader = lz4.NewReader(file)
	case strings.HasSuffix(name, ".tar.bz2"):
		reader = bzip2.NewReader(file)
	case strings.HasSuffix(name, ".tar"):
		reader = file
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedArchive, archivePath)
	}

	return extractTar(reader, destDir)
}

// securePath joins name onto destDir and rejects entries that would escape
// the destination tree.
func securePath(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if target != destDir && !strings.HasPrefix(target, destDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes destination: %q", name)
	}
	return target, nil
}

func extractTar(r io.Reader, destDir string) error {
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := securePath(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, header.FileInfo().Mode()); err != nil {
				return err
			}
		default:
			// Symlinks and specials are not part of the package format.
			continue
		}
	}
}

func extractZip(archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, entry := range zr.File {
		target, err := securePath(destDir, entry.Name)
		if err != nil {
			return err
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return err
		}
		err = writeFile(target, rc, entry.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeFile(target string, src io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	return nil
}
