package catalog

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"photo-catalog/internal/exifmeta"
	"photo-catalog/internal/tags"
)

var (
	// ErrEmptyPath is returned when an operation needs a path and got "".
	ErrEmptyPath = errors.New("empty path")

	// ErrNotFound is returned when no persisted record has the given path.
	ErrNotFound = errors.New("record not found")
)

// Columns is the fixed column order of the canonical table.
var Columns = []string{
	"full_path",
	"created_time",
	"make",
	"model",
	"capture_time",
	"image_filename",
	"keyword_tags",
}

// CreatedTimeLayout formats Record.CreatedTime.
const CreatedTimeLayout = "2006-01-02T15:04:05"

// exifDateTimeLayout is how EXIF stores DateTime and DateTimeOriginal.
const exifDateTimeLayout = "2006:01:02 15:04:05"

// Record is one image in the catalog. Nil pointer fields are absent values.
type Record struct {
	FullPath      string  `json:"full_path"`
	CreatedTime   string  `json:"created_time"`
	Make          *string `json:"exif_make"`
	Model         *string `json:"exif_model"`
	CaptureTime   *string `json:"exif_datetime"`
	ImageFilename string  `json:"image_filename"`
	KeywordTags   *string `json:"exif_xpkeywords"`
}

// Values returns the record's fields in Columns order. Absent fields are nil.
func (r Record) Values() []any {
	return []any{
		r.FullPath,
		r.CreatedTime,
		deref(r.Make),
		deref(r.Model),
		deref(r.CaptureTime),
		r.ImageFilename,
		deref(r.KeywordTags),
	}
}

// TagList returns the record's keyword tags as tokens.
func (r Record) TagList() []string {
	return tags.Parse(r.KeywordTags)
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// NewRecord assembles a record from a file's absolute path, its creation
// time and the fields extracted from it. Extracted fields outside the
// catalog's column set are dropped.
func NewRecord(fullPath string, created time.Time, fields map[string]any) Record {
	r := Record{
		FullPath:      fullPath,
		CreatedTime:   created.Local().Format(CreatedTimeLayout),
		ImageFilename: filepath.Base(fullPath),
		Make:          stringField(fields, "Make"),
		Model:         stringField(fields, "Model"),
	}

	for _, name := range []string{"DateTime", "DateTimeOriginal"} {
		if raw := stringField(fields, name); raw != nil {
			if ct, ok := captureTime(*raw); ok {
				r.CaptureTime = &ct
				break
			}
		}
	}

	if raw := stringField(fields, "XPKeywords"); raw != nil {
		if canon := tags.Canonical(*raw); canon != "" {
			r.KeywordTags = &canon
		}
	}

	return r
}

// stringField returns the trimmed string form of an extracted field, or nil
// when the field is missing or blank.
func stringField(fields map[string]any, name string) *string {
	v, ok := fields[exifmeta.FieldKey(name)]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
	if s == "" {
		return nil
	}
	return &s
}

// captureTime converts an EXIF timestamp to the stored layout. Values already
// in the stored layout are accepted unchanged; placeholders such as
// "0000:00:00 00:00:00" are rejected.
func captureTime(raw string) (string, bool) {
	if t, err := time.Parse(exifDateTimeLayout, raw); err == nil {
		return t.Format(tags.DateTimeLayout), true
	}
	return tags.ParseCaptureTime(raw)
}
