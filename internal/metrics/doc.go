// Package metrics declares the Prometheus metrics exported by the photo
// catalog and a small collector that refreshes catalog-wide gauges.
//
// Metrics are registered with promauto on the default registry and served
// by promhttp on the metrics port. Groups:
//
//   - photo_catalog_http_*: request counts, durations and in-flight requests
//   - photo_catalog_db_*: query counts and durations per storage operation
//   - photo_catalog_scan_*, photo_catalog_extractions_total: catalog build passes
//   - photo_catalog_sync_*: synchronization passes and inserted records
//   - photo_catalog_edits_total: tag and metadata edits
//   - photo_catalog_thumbnail_*: thumbnail cache and generation
//   - photo_catalog_filesystem_retry_*: stale NFS handle retries
//
// Call [InitializeMetrics] once at startup so labelled series exist before
// the first event.
package metrics
