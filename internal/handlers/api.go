package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/database"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/tags"
)

// Upper bound for ?limit on the image list.
const maxListLimit = 5000

// imageResponse is a record as returned by the API, with its path relative
// to the upload folder.
type imageResponse struct {
	catalog.Record
	RelPath string   `json:"path"`
	Tags    []string `json:"tags"`
}

// TagRequest adds or removes comma-separated tags on one image.
type TagRequest struct {
	Path string `json:"path"`
	Tags string `json:"tags"`
}

// TagResponse reports the stored tags after an edit.
type TagResponse struct {
	Path        string   `json:"path"`
	Tags        []string `json:"tags"`
	Raw         string   `json:"raw"`
	RowsUpdated int64    `json:"rowsUpdated"`
}

// MetadataRequest edits capture time, make and model. Omitted or blank
// fields are left unchanged.
type MetadataRequest struct {
	Path string `json:"path"`
	catalog.MetadataUpdate
}

func (h *Handlers) toResponses(records []catalog.Record) []imageResponse {
	out := make([]imageResponse, 0, len(records))
	for _, rec := range records {
		rel, ok := h.relativeUpload(rec.FullPath)
		if !ok {
			continue
		}
		list := rec.TagList()
		if list == nil {
			list = []string{}
		}
		out = append(out, imageResponse{Record: rec, RelPath: rel, Tags: list})
	}
	return out
}

// ListImages returns the most recent images. ?limit defaults to the gallery limit.
func (h *Handlers) ListImages(w http.ResponseWriter, r *http.Request) {
	limit := h.galleryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}

	records, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		logging.Error("ListImages failed: %v", err)
		writeJSONError(w, "Failed to list images", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponses(records))
}

// SearchImages filters by ?date=YYYY-MM-DD, ?filename= (exact) and ?tag=
// (substring). No filter returns an empty list.
func (h *Handlers) SearchImages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := database.SearchCriteria{
		Date:         strings.TrimSpace(q.Get("date")),
		Filename:     strings.TrimSpace(q.Get("filename")),
		TagSubstring: strings.TrimSpace(q.Get("tag")),
	}
	if criteria.Date != "" && !tags.IsDateString(criteria.Date) {
		writeJSONError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	records, err := h.store.Search(r.Context(), criteria)
	if err != nil {
		logging.Error("SearchImages failed: %v", err)
		writeJSONError(w, "Search failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponses(records))
}

// pathParam resolves the ?path query parameter, writing the error response
// itself when it is missing or invalid.
func (h *Handlers) pathParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	rel := strings.TrimSpace(r.URL.Query().Get("path"))
	return h.requirePath(w, rel)
}

func (h *Handlers) requirePath(w http.ResponseWriter, rel string) (string, bool) {
	if rel == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return "", false
	}
	full, ok := h.resolveUpload(rel)
	if !ok {
		writeJSONError(w, "path is outside the upload folder", http.StatusForbidden)
		return "", false
	}
	return full, true
}

// writeStoreError maps storage errors to API responses.
func writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeJSONError(w, "image not found", http.StatusNotFound)
	case errors.Is(err, catalog.ErrEmptyPath):
		writeJSONError(w, "path is required", http.StatusBadRequest)
	default:
		logging.Error("%s failed: %v", op, err)
		writeJSONError(w, op+" failed", http.StatusInternalServerError)
	}
}

// GetRecord returns one image by ?path.
func (h *Handlers) GetRecord(w http.ResponseWriter, r *http.Request) {
	fullPath, ok := h.pathParam(w, r)
	if !ok {
		return
	}

	rec, err := h.store.GetRecord(r.Context(), fullPath)
	if err != nil {
		writeStoreError(w, "GetRecord", err)
		return
	}

	resp := h.toResponses([]catalog.Record{*rec})
	if len(resp) == 0 {
		writeJSONError(w, "image not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, resp[0])
}

// GetTags returns the tags of the image at ?path.
func (h *Handlers) GetTags(w http.ResponseWriter, r *http.Request) {
	fullPath, ok := h.pathParam(w, r)
	if !ok {
		return
	}

	raw, err := h.store.GetTags(r.Context(), fullPath)
	if err != nil {
		writeStoreError(w, "GetTags", err)
		return
	}

	list := tags.Parse(raw)
	if list == nil {
		list = []string{}
	}
	writeJSON(w, http.StatusOK, TagResponse{
		Path: r.URL.Query().Get("path"),
		Tags: list,
		Raw:  deref(raw),
	})
}

// AddTags merges tags into an image's tags.
func (h *Handlers) AddTags(w http.ResponseWriter, r *http.Request) {
	h.editTags(w, r, h.editor.AddTags)
}

// RemoveTags removes tags from an image's tags.
func (h *Handlers) RemoveTags(w http.ResponseWriter, r *http.Request) {
	h.editTags(w, r, h.editor.RemoveTags)
}

type tagEdit func(ctx context.Context, fullPath, raw string) (string, int64, error)

func (h *Handlers) editTags(w http.ResponseWriter, r *http.Request, apply tagEdit) {
	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	fullPath, ok := h.requirePath(w, strings.TrimSpace(req.Path))
	if !ok {
		return
	}
	if len(tags.SplitInput(req.Tags)) == 0 {
		writeJSONError(w, "tags are required", http.StatusBadRequest)
		return
	}

	result, rows, err := apply(r.Context(), fullPath, req.Tags)
	if err != nil {
		writeStoreError(w, "Tag edit", err)
		return
	}

	list := tags.Parse(&result)
	if list == nil {
		list = []string{}
	}
	writeJSON(w, http.StatusOK, TagResponse{Path: req.Path, Tags: list, Raw: result, RowsUpdated: rows})
}

// UpdateMetadata edits capture time, make and model of one image.
func (h *Handlers) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	var req MetadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	fullPath, ok := h.requirePath(w, strings.TrimSpace(req.Path))
	if !ok {
		return
	}

	rows, err := h.editor.EditMetadata(r.Context(), fullPath, req.MetadataUpdate)
	if err != nil {
		writeStoreError(w, "Metadata edit", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"path": req.Path, "rowsUpdated": rows})
}

// TriggerSync starts a synchronization pass in the background.
func (h *Handlers) TriggerSync(w http.ResponseWriter, _ *http.Request) {
	if !h.syncer.TryTrigger() {
		writeJSONStatus(w, http.StatusConflict, "already_running")
		return
	}
	writeJSONStatus(w, http.StatusAccepted, "started")
}

// GetStats returns catalog-wide counts.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		logging.Error("GetStats failed: %v", err)
		writeJSONError(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
