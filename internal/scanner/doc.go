// Package scanner discovers image files under a root directory.
//
// Results are root-relative, forward-slash paths in ascending order, so two
// scans of an unchanged tree return identical slices. Files are matched by
// their lower-cased, dot-less extension against a [mediatypes.ExtensionSet];
// hidden files and directories are not treated specially.
// Unreadable entries are skipped rather than failing the scan; a missing or
// non-directory root fails with [ErrNotFound] or [ErrNotADirectory].
package scanner
