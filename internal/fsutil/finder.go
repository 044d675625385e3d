// Package fsutil provides small file system helpers shared by the locator
// and the archive extractor.
package fsutil

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// FindFilesByExtension recursively searches rootPath for all regular files
// whose name ends with extension and returns their full paths in walk order.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// SafeNow renders t as a filesystem-safe timestamp with microsecond
// precision (YYYYMMDDHHMMSSffffff), suitable as a directory name component.
func SafeNow(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s%06d", t.Format("20060102150405"), t.Nanosecond()/1000)
}
