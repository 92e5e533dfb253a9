package mediatypes

import (
	"path/filepath"
	"sort"
	"strings"
)

// ExtensionSet is a set of lower-case file extensions without the leading dot
// (e.g. "jpg").
type ExtensionSet map[string]struct{}

// DefaultImageExtensions lists the extensions catalogued when the
// configuration does not name any.
var DefaultImageExtensions = []string{"jpg", "jpeg", "png", "tif", "tiff", "heic", "webp"}

// MimeTypes maps dot-less extensions to their MIME types.
var MimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"webp": "image/webp",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
	"heic": "image/heic",
	"heif": "image/heif",
}

// thumbnailable lists the formats the thumbnail decoder understands.
var thumbnailable = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"bmp":  true,
	"tif":  true,
	"tiff": true,
	"webp": true,
}

// NormalizeExtension lower-cases ext and strips surrounding whitespace and
// leading dots, so ".JPG", "jpg" and " Jpg" all become "jpg".
func NormalizeExtension(ext string) string {
	return strings.TrimLeft(strings.ToLower(strings.TrimSpace(ext)), ".")
}

// NewExtensionSet builds an ExtensionSet from configuration values.
// Empty entries are ignored.
func NewExtensionSet(exts ...string) ExtensionSet {
	set := make(ExtensionSet, len(exts))
	for _, ext := range exts {
		if n := NormalizeExtension(ext); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// Contains reports whether ext (in any case, with or without dot) is in the set.
func (s ExtensionSet) Contains(ext string) bool {
	_, ok := s[NormalizeExtension(ext)]
	return ok
}

// Allows reports whether the file name has an extension in the set.
func (s ExtensionSet) Allows(name string) bool {
	ext := filepath.Ext(name)
	if ext == "" {
		return false
	}
	return s.Contains(ext)
}

// Sorted returns the extensions in ascending order.
func (s ExtensionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for ext := range s {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// ExtensionOf returns the normalized extension of a file name.
func ExtensionOf(name string) string {
	return NormalizeExtension(filepath.Ext(name))
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[NormalizeExtension(ext)]; ok {
		return mime
	}
	return "application/octet-stream"
}

// CanThumbnail returns true if thumbnails can be generated for the extension.
func CanThumbnail(ext string) bool {
	return thumbnailable[NormalizeExtension(ext)]
}
