package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"photo-catalog/internal/logging"
)

// RetryConfig bounds how stale-handle failures are retried.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig is tuned for an NFS-mounted photo library: three
// retries, doubling from 50ms up to 500ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// delay returns the wait before retry n (0-based).
func (c RetryConfig) delay(n int) time.Duration {
	d := c.InitialBackoff
	for i := 0; i < n && d < c.MaxBackoff; i++ {
		d *= 2
	}
	return min(d, c.MaxBackoff)
}

// IsStale reports whether err is an NFS stale file handle (ESTALE), the
// only failure these helpers retry.
func IsStale(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.ESTALE
}

func withRetry[T any](op, path string, config RetryConfig, fn func(string) (T, error)) (T, error) {
	result, err := fn(path)
	for n := 0; err != nil && IsStale(err) && n < config.MaxRetries; n++ {
		wait := config.delay(n)
		record(op, outcomeAttempt)
		logging.Debug("Stale file handle on %s %s, retry %d/%d in %v", op, path, n+1, config.MaxRetries, wait)
		time.Sleep(wait)

		if result, err = fn(path); err == nil {
			logging.Info("%s %s recovered after %d retries", op, path, n+1)
			record(op, outcomeSuccess)
			return result, nil
		}
	}

	if err != nil && IsStale(err) {
		logging.Warn("%s %s still stale after %d retries: %v", op, path, config.MaxRetries, err)
		record(op, outcomeFailure)
	}
	return result, err
}

// StatWithRetry is os.Stat retried on stale handles.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, os.Stat)
}

// LstatWithRetry is os.Lstat retried on stale handles.
func LstatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("lstat", path, config, os.Lstat)
}

// OpenWithRetry is os.Open retried on stale handles.
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry("open", path, config, os.Open)
}

// ReadDirWithRetry is os.ReadDir retried on stale handles.
func ReadDirWithRetry(path string, config RetryConfig) ([]os.DirEntry, error) {
	return withRetry("readdir", path, config, os.ReadDir)
}
