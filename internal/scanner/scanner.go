package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"photo-catalog/internal/filesystem"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/mediatypes"
	"photo-catalog/internal/metrics"
)

var (
	// ErrNotFound is returned when the scan root does not exist.
	ErrNotFound = errors.New("scan root not found")

	// ErrNotADirectory is returned when the scan root exists but is not a directory.
	ErrNotADirectory = errors.New("scan root is not a directory")
)

// Scanner walks a directory tree and reports files with an allowed extension.
type Scanner struct {
	allowed mediatypes.ExtensionSet
	retry   filesystem.RetryConfig
}

// New creates a Scanner that keeps files whose extension is in allowed.
func New(allowed mediatypes.ExtensionSet) *Scanner {
	return &Scanner{
		allowed: allowed,
		retry:   filesystem.DefaultRetryConfig(),
	}
}

// Scan is a convenience wrapper for New(allowed).Scan with a background context.
func Scan(root string, allowed mediatypes.ExtensionSet) ([]string, error) {
	return New(allowed).Scan(context.Background(), root)
}

// Scan returns the root-relative, slash-separated paths of every regular file
// under root with an allowed extension, sorted ascending. Entries that cannot
// be read are skipped. The context is checked between entries.
func (s *Scanner) Scan(ctx context.Context, root string) ([]string, error) {
	start := time.Now()

	info, err := filesystem.StatWithRetry(root, s.retry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, root)
		}
		return nil, fmt.Errorf("stat scan root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, root)
	}

	var paths []string
	skipped := 0

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if walkErr != nil {
			if path == root {
				return walkErr
			}
			logging.Debug("Skipping unreadable entry %s: %v", path, walkErr)
			skipped++
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if !s.allowed.Allows(d.Name()) {
			return nil
		}
		if !s.isFile(path, d) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			logging.Debug("Skipping %s: %v", path, err)
			skipped++
			return nil
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	// WalkDir visits in lexical order per directory, which is not the same as
	// lexical order of the joined paths ("a-b/x" vs "a/x").
	sort.Strings(paths)

	metrics.ScanDuration.Observe(time.Since(start).Seconds())
	metrics.ScanFilesFound.Set(float64(len(paths)))
	if skipped > 0 {
		metrics.ScanEntriesSkipped.Add(float64(skipped))
	}

	logging.Debug("Scanned %s: %d matching files, %d skipped in %v", root, len(paths), skipped, time.Since(start))
	return paths, nil
}

// isFile reports whether d is a regular file or a symlink that resolves to one.
func (s *Scanner) isFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := filesystem.StatWithRetry(path, s.retry)
	if err != nil {
		logging.Debug("Skipping dangling link %s: %v", path, err)
		return false
	}
	return info.Mode().IsRegular()
}
