package handlers

import (
	"context"
	"path/filepath"
	"strings"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/database"
	"photo-catalog/internal/indexer"
	"photo-catalog/internal/startup"
)

// Store is the catalog storage used by the handlers.
type Store interface {
	catalog.EditStore
	GetRecord(ctx context.Context, fullPath string) (*catalog.Record, error)
	Search(ctx context.Context, c database.SearchCriteria) ([]catalog.Record, error)
	ListRecent(ctx context.Context, limit int) ([]catalog.Record, error)
	GetStats(ctx context.Context) (database.Stats, error)
}

// Syncer runs catalog synchronization passes.
type Syncer interface {
	TryTrigger() bool
	IsReady() bool
	GetHealthStatus() indexer.HealthStatus
}

// Thumbnailer produces JPEG thumbnails.
type Thumbnailer interface {
	IsEnabled() bool
	GetThumbnail(path string) ([]byte, error)
}

type Handlers struct {
	store        Store
	editor       *catalog.Editor
	syncer       Syncer
	thumbGen     Thumbnailer
	uploadDir    string
	galleryLimit int
}

func New(store Store, syncer Syncer, thumbs Thumbnailer, config *startup.Config) *Handlers {
	return &Handlers{
		store:        store,
		editor:       catalog.NewEditor(store),
		syncer:       syncer,
		thumbGen:     thumbs,
		uploadDir:    config.UploadDir,
		galleryLimit: config.Gallery.Limit,
	}
}

// resolveUpload maps a slash-separated path relative to the upload folder to
// the absolute path stored in the catalog. ok is false when rel escapes the
// upload folder.
func (h *Handlers) resolveUpload(rel string) (string, bool) {
	rel = strings.TrimLeft(strings.ReplaceAll(rel, "\\", "/"), "/")
	full := filepath.Join(h.uploadDir, filepath.FromSlash(rel))
	if !catalog.Within(h.uploadDir, full) {
		return "", false
	}
	return full, true
}

// relativeUpload is the inverse of resolveUpload. ok is false for records
// outside the upload folder.
func (h *Handlers) relativeUpload(fullPath string) (string, bool) {
	if !catalog.Within(h.uploadDir, fullPath) {
		return "", false
	}
	rel, err := filepath.Rel(h.uploadDir, fullPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
