// Package catalog turns a directory tree into catalog records and keeps the
// persisted catalog in step with it.
//
// [Builder] combines the scanner and a metadata [Extractor] into the
// canonical table: one [Record] per image file in scan order, with the fixed
// column set listed in [Columns]. Building has no side effects.
//
// [Synchronizer] compares the canonical table with the paths already stored
// and inserts only the missing records. Paths are compared by [Identity], so
// case, "." and ".." segments and slash direction never cause a second row
// for the same file. Synchronization is additive: files deleted from disk or
// edited after ingestion are not reflected until edited explicitly through
// [Editor].
//
// [Editor] applies tag and metadata edits to a single persisted record.
//
// Record.CreatedTime is platform dependent: the status-change time on Linux
// and macOS, the creation time on Windows and the modification time elsewhere.
package catalog
