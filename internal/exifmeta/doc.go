// Package exifmeta extracts embedded EXIF metadata from image files and
// normalizes it into values that fit a single database column.
//
// Tags of the primary image directory (IFD0) are read by numeric id and named
// through a static table, falling back to the decimal id for unknown tags.
// Named fields of the Exif and GPS sub-directories are added afterwards
// without overriding IFD0. All keys carry the EXIF_ prefix.
//
// Embedded metadata is written by cameras, phone vendors and editing tools
// and cannot be trusted to have the documented type. [Normalize] guarantees
// that every emitted value is a string, a number, a bool or nil:
//
//   - []byte: decoded as UTF-16LE (Windows XP* tags), invalid sequences replaced
//   - rationals: "num/den"
//   - slices, arrays, maps and structs: their fmt string form
//
// Before decoding, every directory entry is checked against the size of the
// EXIF block. A block whose entries point or extend past its end is treated as
// absent.
//
// Extraction is best effort. A file that is not an image, has no EXIF block
// or cannot be opened produces an empty map and a debug log line.
package exifmeta
