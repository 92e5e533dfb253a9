package workers

import "runtime"

// Count returns how many workers to run. A positive configured value wins,
// capped at limit. Otherwise the count is GOMAXPROCS scaled by multiplier,
// which follows container CPU limits, with a floor of 1. A limit of 0 means
// no cap.
func Count(configured int, multiplier float64, limit int) int {
	n := configured
	if n < 1 {
		n = int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	}
	if n < 1 {
		n = 1
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

// ForCPU sizes a pool for CPU-bound work such as decoding and resizing
// images: one worker per available CPU.
func ForCPU(configured, limit int) int {
	return Count(configured, 1.0, limit)
}

// ForIO sizes a pool for work dominated by file reads, such as metadata
// extraction over network mounts: two workers per available CPU.
func ForIO(configured, limit int) int {
	return Count(configured, 2.0, limit)
}
