package handlers

import (
	"net/http"
	"strings"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/logging"
)

// EditForm applies a tag or metadata edit submitted from the gallery page and
// redirects back to it. Edit failures are logged and do not change the
// response, so a stale form never shows the user an error page.
func (h *Handlers) EditForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	mode := strings.TrimSpace(r.PostForm.Get("mode"))
	if mode == "" {
		mode = "tags"
	}
	file := strings.TrimSpace(r.PostForm.Get("file"))

	fullPath, ok := h.resolveUpload(file)
	if !ok {
		http.Error(w, "Invalid path", http.StatusForbidden)
		return
	}

	switch mode {
	case "tags":
		raw := strings.TrimSpace(r.PostForm.Get("r"))
		var (
			result string
			rows   int64
			err    error
		)
		if strings.TrimSpace(r.PostForm.Get("edit")) == "delete" {
			result, rows, err = h.editor.RemoveTags(r.Context(), fullPath, raw)
		} else {
			result, rows, err = h.editor.AddTags(r.Context(), fullPath, raw)
		}
		if err != nil {
			logging.Warn("Tag edit for %s failed: %v", fullPath, err)
		} else {
			logging.Info("Tags for %s set to %q (%d rows)", fullPath, result, rows)
		}

	case "meta":
		update := catalog.MetadataUpdate{
			CaptureTime: formValue(r, "exif_datetime"),
			Make:        formValue(r, "exif_make"),
			Model:       formValue(r, "exif_model"),
		}
		rows, err := h.editor.EditMetadata(r.Context(), fullPath, update)
		if err != nil {
			logging.Warn("Metadata edit for %s failed: %v", fullPath, err)
		} else {
			logging.Info("Metadata for %s updated (%d rows)", fullPath, rows)
		}

	default:
		http.Error(w, "Invalid mode", http.StatusBadRequest)
		return
	}

	http.Redirect(w, r, "/gallery", http.StatusFound)
}

// formValue returns the trimmed form field, nil when blank.
func formValue(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.PostForm.Get(key))
	if v == "" {
		return nil
	}
	return &v
}
