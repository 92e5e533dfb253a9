// Package indexer keeps the persisted catalog in step with the upload folder.
//
// An [Indexer] runs passes that build the canonical table and insert the
// records missing from storage. Passes run:
//   - once at startup, when configured
//   - periodically, scheduled with gocron in singleton mode
//   - on demand through TryTrigger or TriggerIndex (the /api/sync endpoint)
//   - after new images appear, when a [Watcher] is attached
//
// Only one pass runs at a time; a pass requested while another is running is
// skipped. Passes are additive: deleted files and metadata changes on disk
// are not propagated to existing rows.
package indexer
