package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"photo-catalog/internal/logging"
)

// DefaultRatio is the share of the container limit given to the Go heap. The
// rest covers image decode buffers, SQLite page cache and goroutine stacks.
const DefaultRatio = 0.85

// Source names where the applied limit came from.
const (
	SourceEnv    = "GOMEMLIMIT"
	SourceConfig = "memory.limit"
	SourceNone   = "none"
)

// Result describes what Configure did.
type Result struct {
	Configured     bool
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// Configure sets the Go soft memory limit to ratio of containerLimit bytes.
// An explicit GOMEMLIMIT in the environment takes precedence and is only
// reported. A containerLimit of 0 leaves the runtime default in place. Ratios
// outside (0, 1] fall back to DefaultRatio.
func Configure(containerLimit int64, ratio float64) Result {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		result := Result{Source: SourceEnv}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return result
	}

	if containerLimit <= 0 {
		logging.Debug("memory.limit not set, GOMEMLIMIT not configured")
		return Result{Source: SourceNone}
	}

	if ratio <= 0 || ratio > 1 {
		logging.Warn("memory.ratio %.2f out of range (0.0-1.0], using default %.2f", ratio, DefaultRatio)
		ratio = DefaultRatio
	}

	goMemLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		FormatBytes(goMemLimit), ratio*100, FormatBytes(containerLimit))

	return Result{
		Configured:     true,
		Source:         SourceConfig,
		ContainerLimit: containerLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}

// FormatBytes renders b with a binary unit, e.g. "1.5 GiB".
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
