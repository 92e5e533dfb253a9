package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, result := range []string{"ok", "empty"} {
		ExtractionsTotal.WithLabelValues(result)
	}

	for _, kind := range []string{"add_tags", "remove_tags", "metadata"} {
		EditsTotal.WithLabelValues(kind, "success")
		EditsTotal.WithLabelValues(kind, "error")
	}

	for _, result := range []string{"hit", "generated", "error"} {
		ThumbnailGenerationsTotal.WithLabelValues(result)
	}

	for _, op := range []string{"stat", "open"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
	}

	for _, op := range []string{"initialize_schema", "list_paths", "insert_record", "get_record",
		"get_tags", "set_tags", "update_metadata", "search", "list_recent", "count_records",
		"get_metadata", "set_metadata", "stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
