package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/filesystem"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/media"
	"photo-catalog/internal/mediatypes"
)

// ServeUpload serves an original image from the upload folder.
func (h *Handlers) ServeUpload(w http.ResponseWriter, r *http.Request) {
	fullPath, ok := h.resolveUpload(mux.Vars(r)["path"])
	if !ok || !h.staysInside(fullPath) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	file, err := filesystem.OpenWithRetry(fullPath, filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		logging.Error("Failed to open %s: %v", fullPath, err)
		http.Error(w, "Failed to open file", http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close %s: %v", fullPath, err)
		}
	}()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mediatypes.GetMimeType(filepath.Ext(fullPath)))
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}

// ServeThumbnail serves a cached JPEG thumbnail of an uploaded image.
func (h *Handlers) ServeThumbnail(w http.ResponseWriter, r *http.Request) {
	fullPath, ok := h.resolveUpload(mux.Vars(r)["path"])
	if !ok || !h.staysInside(fullPath) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if h.thumbGen == nil || !h.thumbGen.IsEnabled() {
		http.Error(w, "Thumbnails disabled", http.StatusNotFound)
		return
	}

	data, err := h.thumbGen.GetThumbnail(fullPath)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			http.NotFound(w, r)
		case errors.Is(err, media.ErrUnsupportedFormat):
			http.Error(w, "Unsupported image format", http.StatusUnsupportedMediaType)
		default:
			logging.Warn("Thumbnail for %s failed: %v", fullPath, err)
			http.Error(w, "Failed to generate thumbnail", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(data)
}

// staysInside reports whether fullPath still lies under the upload folder
// after symlinks are resolved. Missing paths pass so the caller can 404.
func (h *Handlers) staysInside(fullPath string) bool {
	resolved, err := filepath.EvalSymlinks(fullPath)
	if err != nil {
		return errors.Is(err, fs.ErrNotExist)
	}
	root, err := filepath.EvalSymlinks(h.uploadDir)
	if err != nil {
		root = h.uploadDir
	}
	return catalog.Within(root, resolved)
}
