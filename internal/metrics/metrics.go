package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Catalog metrics
var (
	CatalogRecordsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_records_total",
			Help: "Number of records in the persisted catalog",
		},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_scan_duration_seconds",
			Help:    "Duration of a directory scan in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	ScanFilesFound = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_scan_files_found",
			Help: "Number of matching files found by the last scan",
		},
	)

	ScanEntriesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_scan_entries_skipped_total",
			Help: "Directory entries skipped because they could not be read",
		},
	)

	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_extractions_total",
			Help: "Metadata extractions by result (ok, empty)",
		},
		[]string{"result"},
	)
)

// Sync metrics
var (
	SyncRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_sync_runs_total",
			Help: "Total number of synchronization passes",
		},
	)

	SyncRecordsInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_sync_records_inserted_total",
			Help: "Total number of records inserted by synchronization",
		},
	)

	SyncInsertFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_sync_insert_failures_total",
			Help: "Total number of record inserts that failed during synchronization",
		},
	)

	SyncErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_sync_errors_total",
			Help: "Total number of synchronization passes that failed",
		},
	)

	SyncLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_sync_last_run_timestamp",
			Help: "Timestamp of the last synchronization pass",
		},
	)

	SyncLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_sync_last_run_duration_seconds",
			Help: "Duration of the last synchronization pass in seconds",
		},
	)

	SyncIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_sync_running",
			Help: "Whether a synchronization pass is running (1 = running, 0 = idle)",
		},
	)
)

// Tag and metadata edit metrics
var (
	EditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_edits_total",
			Help: "Catalog edits by kind (add_tags, remove_tags, metadata) and status",
		},
		[]string{"kind", "status"},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_thumbnail_generations_total",
			Help: "Thumbnail requests by result (hit, generated, error)",
		},
		[]string{"result"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_thumbnail_generation_duration_seconds",
			Help:    "Time spent decoding, resizing and encoding a thumbnail",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	ThumbnailCacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_thumbnail_cache_bytes",
			Help: "Total size of the on-disk thumbnail cache",
		},
	)

	ThumbnailCacheFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_thumbnail_cache_files",
			Help: "Number of cached thumbnails",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_filesystem_retry_attempts_total",
			Help: "Retries of filesystem operations after stale NFS handles",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_filesystem_retry_success_total",
			Help: "Filesystem operations that succeeded after at least one retry",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_filesystem_retry_failures_total",
			Help: "Filesystem operations that failed after exhausting retries",
		},
		[]string{"operation"},
	)
)

// AppInfo exposes build information as labels.
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "photo_catalog_app_info",
		Help: "Application build information",
	},
	[]string{"version", "commit", "go_version"},
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_watcher_events_total",
			Help: "Filesystem events seen by the upload folder watcher",
		},
		[]string{"type"},
	)

	WatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_watched_directories",
			Help: "Number of directories watched for new images",
		},
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_watcher_errors_total",
			Help: "Errors reported by the filesystem watcher",
		},
	)
)
