package catalog

import (
	"context"
	"strings"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
	"photo-catalog/internal/tags"
)

// TagStore reads and writes a record's keyword tags.
type TagStore interface {
	// GetTags returns the stored tags, nil when the column is null, or
	// ErrNotFound when no record has fullPath.
	GetTags(ctx context.Context, fullPath string) (*string, error)
	SetTags(ctx context.Context, fullPath, value string) (int64, error)
}

// MetadataStore updates capture time, make and model with
// coalesce-on-null semantics.
type MetadataStore interface {
	UpdateMetadataFields(ctx context.Context, fullPath string, u MetadataUpdate) (int64, error)
}

// EditStore is the storage needed by Editor.
type EditStore interface {
	TagStore
	MetadataStore
}

// MetadataUpdate carries metadata edits. Nil fields keep the stored value.
type MetadataUpdate struct {
	CaptureTime *string `json:"exif_datetime,omitempty"`
	Make        *string `json:"exif_make,omitempty"`
	Model       *string `json:"exif_model,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u MetadataUpdate) IsEmpty() bool {
	return u.CaptureTime == nil && u.Make == nil && u.Model == nil
}

// Editor applies user edits to persisted records.
type Editor struct {
	store EditStore
}

// NewEditor creates an Editor writing through store.
func NewEditor(store EditStore) *Editor {
	return &Editor{store: store}
}

// AddTags merges the comma-separated tags in raw into the record's tags and
// returns the new tag string with the number of rows updated.
func (e *Editor) AddTags(ctx context.Context, fullPath, raw string) (string, int64, error) {
	return e.editTags(ctx, "add_tags", fullPath, raw, tags.Merge)
}

// RemoveTags removes the comma-separated tags in raw from the record's tags.
func (e *Editor) RemoveTags(ctx context.Context, fullPath, raw string) (string, int64, error) {
	return e.editTags(ctx, "remove_tags", fullPath, raw, tags.Remove)
}

func (e *Editor) editTags(ctx context.Context, kind, fullPath, raw string, apply func(*string, []string) string) (result string, rows int64, err error) {
	defer func() { recordEdit(kind, err) }()

	if strings.TrimSpace(fullPath) == "" {
		return "", 0, ErrEmptyPath
	}

	current, err := e.store.GetTags(ctx, fullPath)
	if err != nil {
		return "", 0, err
	}

	result = apply(current, tags.SplitInput(raw))
	rows, err = e.store.SetTags(ctx, fullPath, result)
	if err != nil {
		return "", 0, err
	}

	logging.Debug("Tags for %s: %q", fullPath, result)
	return result, rows, nil
}

// EditMetadata validates u and applies it. An invalid capture time and blank
// make or model are treated as "not changed". Returns ErrNotFound when no
// record has fullPath.
func (e *Editor) EditMetadata(ctx context.Context, fullPath string, u MetadataUpdate) (rows int64, err error) {
	defer func() { recordEdit("metadata", err) }()

	if strings.TrimSpace(fullPath) == "" {
		return 0, ErrEmptyPath
	}

	clean := MetadataUpdate{}
	if u.CaptureTime != nil {
		if ct, ok := tags.ParseCaptureTime(*u.CaptureTime); ok {
			clean.CaptureTime = &ct
		}
	}
	if u.Make != nil {
		clean.Make = tags.NonEmpty(*u.Make)
	}
	if u.Model != nil {
		clean.Model = tags.NonEmpty(*u.Model)
	}

	if clean.IsEmpty() {
		logging.Debug("Metadata edit for %s changes nothing", fullPath)
		return 0, nil
	}

	rows, err = e.store.UpdateMetadataFields(ctx, fullPath, clean)
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		return 0, ErrNotFound
	}
	return rows, nil
}

// EditMetadataText applies edit text of the form "datetime,make,model".
func (e *Editor) EditMetadataText(ctx context.Context, fullPath, text string) (int64, error) {
	r := tags.ParseReplacements(text)
	return e.EditMetadata(ctx, fullPath, MetadataUpdate{
		CaptureTime: r.CaptureTime,
		Make:        r.Make,
		Model:       r.Model,
	})
}

func recordEdit(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.EditsTotal.WithLabelValues(kind, status).Inc()
}
