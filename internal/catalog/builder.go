package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"photo-catalog/internal/filesystem"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/mediatypes"
	"photo-catalog/internal/scanner"
	"photo-catalog/internal/workers"
)

// Extractor reads embedded metadata from one file. Implementations must not
// fail; unreadable files produce an empty map.
type Extractor interface {
	Extract(path string) map[string]any
}

// Builder produces the canonical table for a directory tree.
type Builder struct {
	scanner   *scanner.Scanner
	extractor Extractor
	retry     filesystem.RetryConfig
	workers   int
}

// NewBuilder creates a Builder that catalogs files with an allowed extension.
func NewBuilder(allowed mediatypes.ExtensionSet, extractor Extractor) *Builder {
	return &Builder{
		scanner:   scanner.New(allowed),
		extractor: extractor,
		retry:     filesystem.DefaultRetryConfig(),
		workers:   workers.ForIO(0, maxBuildWorkers),
	}
}

// maxBuildWorkers caps concurrent file reads.
const maxBuildWorkers = 16

// SetWorkers sets how many files are read concurrently. Values below 1
// select the automatic count.
func (b *Builder) SetWorkers(n int) {
	b.workers = workers.ForIO(n, maxBuildWorkers)
}

// Build scans root and returns one record per discovered file, in scan
// order. It has no side effects. A file that disappears between the scan and
// its stat is skipped. Files are read concurrently; cancelling ctx stops the
// build before the next file is started.
func (b *Builder) Build(ctx context.Context, root string) ([]Record, error) {
	start := time.Now()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}

	paths, err := b.scanner.Scan(ctx, absRoot)
	if err != nil {
		return nil, err
	}

	built := make([]Record, len(paths))
	found := make([]bool, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, rel := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			built[i], found[i] = b.buildOne(filepath.Join(absRoot, filepath.FromSlash(rel)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build %s: %w", root, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build %s: %w", root, err)
	}

	records := make([]Record, 0, len(paths))
	for i, ok := range found {
		if ok {
			records = append(records, built[i])
		}
	}

	logging.Info("Built catalog for %s: %d records in %v", absRoot, len(records), time.Since(start))
	return records, nil
}

func (b *Builder) buildOne(fullPath string) (Record, bool) {
	info, err := filesystem.StatWithRetry(fullPath, b.retry)
	if err != nil {
		logging.Warn("Skipping %s: %v", fullPath, err)
		return Record{}, false
	}

	fields := b.extractor.Extract(fullPath)
	return NewRecord(fullPath, createdTime(info), fields), true
}
