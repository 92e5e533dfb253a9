package exifmeta

import (
	"fmt"
	"io"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"photo-catalog/internal/filesystem"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
)

// Extractor reads embedded EXIF metadata from image files.
type Extractor struct {
	retry filesystem.RetryConfig
}

// NewExtractor creates an Extractor with the default NFS retry policy.
func NewExtractor() *Extractor {
	return &Extractor{retry: filesystem.DefaultRetryConfig()}
}

// Extract returns the normalized metadata fields of the file at path, keyed
// EXIF_<name>. Files that cannot be opened or decoded, or carry no EXIF
// block, yield an empty map. Extract never fails.
func (e *Extractor) Extract(path string) map[string]any {
	fields := e.extractRaw(path)
	if len(fields) == 0 {
		metrics.ExtractionsTotal.WithLabelValues("empty").Inc()
		return map[string]any{}
	}

	metrics.ExtractionsTotal.WithLabelValues("ok").Inc()
	return NormalizeAll(fields)
}

func (e *Extractor) extractRaw(path string) map[string]any {
	f, err := filesystem.OpenWithRetry(path, e.retry)
	if err != nil {
		logging.Debug("Metadata extraction skipped for %s: %v", path, err)
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		logging.Debug("Metadata extraction skipped for %s: %v", path, err)
		return nil
	}

	fields, err := decodeFields(f, info.Size())
	if err != nil {
		logging.Debug("No usable EXIF data in %s: %v", path, err)
		return nil
	}
	return fields
}

// decodeFields bounds-checks the EXIF block of a JPEG or TIFF stream before
// handing it to the decoder. A partial decode still yields its fields.
func decodeFields(r io.ReaderAt, size int64) (fields map[string]any, err error) {
	defer func() {
		if p := recover(); p != nil {
			fields, err = nil, fmt.Errorf("%w: decoder panic: %v", errMalformed, p)
		}
	}()

	block, blockSize, err := locateTIFF(r, size)
	if err != nil {
		return nil, err
	}
	if err := checkTIFF(block, blockSize); err != nil {
		return nil, err
	}

	x, err := exif.Decode(io.NewSectionReader(block, 0, blockSize))
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil, err
	}
	if err != nil {
		logging.Debug("Partial EXIF data: %v", err)
	}
	return collect(x), nil
}

// collect reads IFD0 by raw tag id first, then adds named fields from the
// Exif and GPS sub-IFDs that IFD0 did not already provide.
func collect(x *exif.Exif) map[string]any {
	fields := make(map[string]any)

	if x.Tiff != nil && len(x.Tiff.Dirs) > 0 {
		for _, tag := range x.Tiff.Dirs[0].Tags {
			fields[FieldKey(TagName(tag.Id))] = rawValue(tag)
		}
	}

	_ = x.Walk(subIFDWalker(fields))
	return fields
}

type subIFDWalker map[string]any

func (w subIFDWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	key := FieldKey(string(name))
	if _, ok := w[key]; !ok {
		w[key] = rawValue(tag)
	}
	return nil
}
