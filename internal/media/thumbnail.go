package media

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"image/jpeg"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"photo-catalog/internal/filesystem"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/mediatypes"
	"photo-catalog/internal/metrics"
	"photo-catalog/internal/workers"
)

const (
	// ThumbnailSize bounds both thumbnail dimensions.
	ThumbnailSize = 200

	thumbnailQuality = 80

	// How long a computed cache size is reused.
	cacheSizeTTL = 2 * time.Minute

	// maxConcurrentDecodes caps full-size decodes in flight.
	maxConcurrentDecodes = 8
)

var (
	// ErrThumbnailsDisabled is returned when thumbnail generation is turned off.
	ErrThumbnailsDisabled = errors.New("thumbnails disabled")

	// ErrUnsupportedFormat is returned for extensions that cannot be decoded.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// ThumbnailGenerator produces and caches JPEG thumbnails.
type ThumbnailGenerator struct {
	cacheDir string
	enabled  bool
	retry    filesystem.RetryConfig
	group    singleflight.Group
	decodes  chan struct{}

	lastCacheUpdate atomic.Int64
	cachedSize      atomic.Int64
	cachedCount     atomic.Int64
}

// NewThumbnailGenerator creates a generator writing into cacheDir.
func NewThumbnailGenerator(cacheDir string, enabled bool) *ThumbnailGenerator {
	if enabled {
		logging.Debug("ThumbnailGenerator: enabled, cache dir: %s", cacheDir)
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			logging.Warn("ThumbnailGenerator: failed to create cache dir: %v", err)
		}
	} else {
		logging.Debug("ThumbnailGenerator: disabled")
	}
	return &ThumbnailGenerator{
		cacheDir: cacheDir,
		enabled:  enabled,
		retry:    filesystem.DefaultRetryConfig(),
		decodes:  make(chan struct{}, workers.ForCPU(0, maxConcurrentDecodes)),
	}
}

// IsEnabled reports whether thumbnails are generated.
func (t *ThumbnailGenerator) IsEnabled() bool {
	return t.enabled
}

// cacheKey derives the cache file name from the source path and mtime.
func cacheKey(path string, modTime time.Time) string {
	sum := blake2b.Sum256([]byte(path + "\x00" + strconv.FormatInt(modTime.UnixNano(), 10)))
	return hex.EncodeToString(sum[:16]) + ".jpg"
}

// GetThumbnail returns the JPEG thumbnail for the image at path, generating
// and caching it on first use. Concurrent requests for the same image share
// one generation.
func (t *ThumbnailGenerator) GetThumbnail(path string) ([]byte, error) {
	if !t.enabled {
		return nil, ErrThumbnailsDisabled
	}
	if !mediatypes.CanThumbnail(mediatypes.ExtensionOf(path)) {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	info, err := filesystem.StatWithRetry(path, t.retry)
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("file not accessible: %w", err)
	}

	cachePath := filepath.Join(t.cacheDir, cacheKey(path, info.ModTime()))
	if data, err := os.ReadFile(cachePath); err == nil {
		logging.Debug("Thumbnail cache hit: %s", path)
		metrics.ThumbnailGenerationsTotal.WithLabelValues("hit").Inc()
		return data, nil
	}

	v, err, _ := t.group.Do(cachePath, func() (any, error) {
		return t.generate(path, cachePath)
	})
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues("generated").Inc()
	return v.([]byte), nil
}

func (t *ThumbnailGenerator) generate(path, cachePath string) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())
	}()

	t.decodes <- struct{}{}
	defer func() { <-t.decodes }()

	logging.Debug("Thumbnail generating: %s", path)

	img, err := LoadImageConstrained(path, MaxImageDimension, MaxImagePixels)
	if err != nil {
		return nil, fmt.Errorf("thumbnail generation failed: %w", err)
	}

	thumb := imaging.Fit(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	if err := writeAtomic(cachePath, buf.Bytes()); err != nil {
		logging.Warn("Failed to cache thumbnail %s: %v", cachePath, err)
	} else {
		logging.Debug("Thumbnail cached: %s", cachePath)
	}
	return buf.Bytes(), nil
}

// writeAtomic writes through a temp file so readers never see a partial thumbnail.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".thumb-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// GetCacheSize returns the total size and number of cached thumbnails.
// Results are reused for a short while since walking the cache is not free.
func (t *ThumbnailGenerator) GetCacheSize() (int64, int, error) {
	if time.Now().Unix()-t.lastCacheUpdate.Load() < int64(cacheSizeTTL.Seconds()) {
		return t.cachedSize.Load(), int(t.cachedCount.Load()), nil
	}

	var size int64
	var count int
	err := filepath.WalkDir(t.cacheDir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		size += info.Size()
		count++
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	t.cachedSize.Store(size)
	t.cachedCount.Store(int64(count))
	t.lastCacheUpdate.Store(time.Now().Unix())
	return size, count, nil
}

// ClearCache removes every cached thumbnail and returns how many were removed.
func (t *ThumbnailGenerator) ClearCache() (int, error) {
	entries, err := filesystem.ReadDirWithRetry(t.cacheDir, t.retry)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(t.cacheDir, e.Name())); err != nil {
			logging.Warn("Failed to remove cached thumbnail %s: %v", e.Name(), err)
			continue
		}
		removed++
	}
	t.lastCacheUpdate.Store(0)
	logging.Info("Cleared %d cached thumbnails", removed)
	return removed, nil
}
