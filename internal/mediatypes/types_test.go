package mediatypes

import (
	"reflect"
	"testing"
)

func TestNormalizeExtension(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		want string
	}{
		{name: "lower with dot", ext: ".jpg", want: "jpg"},
		{name: "upper with dot", ext: ".JPG", want: "jpg"},
		{name: "no dot", ext: "Jpeg", want: "jpeg"},
		{name: "whitespace", ext: "  .PNG ", want: "png"},
		{name: "double dot", ext: "..tif", want: "tif"},
		{name: "empty", ext: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeExtension(tt.ext); got != tt.want {
				t.Errorf("NormalizeExtension(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestExtensionSetAllows(t *testing.T) {
	set := NewExtensionSet(".JPG", "png", "", "  ")

	tests := []struct {
		name string
		file string
		want bool
	}{
		{name: "upper case file", file: "IMG_0001.JPG", want: true},
		{name: "lower case file", file: "a/b/c.jpg", want: true},
		{name: "png", file: "scan.png", want: true},
		{name: "not allowed", file: "notes.txt", want: false},
		{name: "no extension", file: "README", want: false},
		{name: "dot file", file: ".jpg", want: true},
		{name: "trailing dot", file: "image.", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := set.Allows(tt.file); got != tt.want {
				t.Errorf("Allows(%q) = %v, want %v", tt.file, got, tt.want)
			}
		})
	}

	if len(set) != 2 {
		t.Errorf("empty entries should be ignored, got %v", set.Sorted())
	}
}

func TestExtensionSetSorted(t *testing.T) {
	set := NewExtensionSet("tif", "JPG", "heic")
	want := []string{"heic", "jpg", "tif"}
	if got := set.Sorted(); !reflect.DeepEqual(got, want) {
		t.Errorf("Sorted() = %v, want %v", got, want)
	}
}

func TestGetMimeType(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{ext: ".jpg", want: "image/jpeg"},
		{ext: "JPEG", want: "image/jpeg"},
		{ext: "png", want: "image/png"},
		{ext: ".heic", want: "image/heic"},
		{ext: ".unknown", want: "application/octet-stream"},
		{ext: "", want: "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := GetMimeType(tt.ext); got != tt.want {
				t.Errorf("GetMimeType(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}

func TestCanThumbnail(t *testing.T) {
	if !CanThumbnail(".JPG") {
		t.Error("jpg should be thumbnailable")
	}
	if CanThumbnail("heic") {
		t.Error("heic has no pure-Go decoder and should not be thumbnailable")
	}
}

func TestDefaultImageExtensionsAreKnown(t *testing.T) {
	for _, ext := range DefaultImageExtensions {
		if GetMimeType(ext) == "application/octet-stream" {
			t.Errorf("default extension %q has no MIME type", ext)
		}
	}
}
