package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/database"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/tags"
)

//go:embed templates/*.html
var templateFS embed.FS

var galleryTemplate = template.Must(template.ParseFS(templateFS, "templates/gallery.html"))

// galleryImage is one card on the gallery page.
type galleryImage struct {
	RelPath     string
	Filename    string
	CaptureTime string
	Make        string
	Model       string
	Tags        string
}

type galleryPage struct {
	Query      string
	Date       string
	Tag        string
	Filtered   bool
	Thumbnails bool
	Images     []galleryImage
}

// Home links to the gallery.
func (h *Handlers) Home(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(`<a href="/gallery">Open Gallery</a>`))
}

// Gallery renders the image grid. q matches the file name exactly, date the
// capture day and g a tag substring. Without any usable filter the most
// recent images are shown. An unparsable date is ignored.
func (h *Handlers) Gallery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := galleryPage{
		Query: strings.TrimSpace(q.Get("q")),
		Date:  strings.TrimSpace(q.Get("date")),
		Tag:   strings.TrimSpace(q.Get("g")),
	}
	if h.thumbGen != nil {
		page.Thumbnails = h.thumbGen.IsEnabled()
	}

	criteria := database.SearchCriteria{
		Filename:     page.Query,
		TagSubstring: page.Tag,
	}
	if page.Date != "" {
		if tags.IsDateString(page.Date) {
			criteria.Date = page.Date
		} else {
			logging.Debug("Ignoring invalid gallery date %q", page.Date)
		}
	}

	var (
		records []catalog.Record
		err     error
	)
	if criteria.IsEmpty() {
		records, err = h.store.ListRecent(r.Context(), h.galleryLimit)
	} else {
		page.Filtered = true
		records, err = h.store.Search(r.Context(), criteria)
	}
	if err != nil {
		logging.Error("Gallery query failed: %v", err)
		http.Error(w, "Failed to load images", http.StatusInternalServerError)
		return
	}

	page.Images = make([]galleryImage, 0, len(records))
	for _, rec := range records {
		rel, ok := h.relativeUpload(rec.FullPath)
		if !ok {
			continue
		}
		page.Images = append(page.Images, galleryImage{
			RelPath:     rel,
			Filename:    rec.ImageFilename,
			CaptureTime: deref(rec.CaptureTime),
			Make:        deref(rec.Make),
			Model:       deref(rec.Model),
			Tags:        deref(rec.KeywordTags),
		})
	}

	var buf bytes.Buffer
	if err := galleryTemplate.Execute(&buf, page); err != nil {
		logging.Error("Gallery render failed: %v", err)
		http.Error(w, "Failed to render gallery", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
