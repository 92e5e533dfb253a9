package metrics

import (
	"context"
	"sync"
	"time"

	"photo-catalog/internal/logging"
)

const collectTimeout = 10 * time.Second

// StatsProvider reports catalog-wide counts.
type StatsProvider interface {
	CountRecords(ctx context.Context) (int, error)
}

// CacheSizer reports the size of an on-disk cache.
type CacheSizer interface {
	GetCacheSize() (bytes int64, files int, err error)
}

// poolReporter is implemented by stores that publish connection pool gauges.
type poolReporter interface {
	UpdateDBMetrics()
}

// Collector samples gauges that have no natural update point: the record
// count, the database pool and the thumbnail cache.
type Collector struct {
	stats    StatsProvider
	cache    CacheSizer
	interval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewCollector samples stats every interval once started.
func NewCollector(stats StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		stats:    stats,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// WithCache adds thumbnail cache sampling. Call before Start.
func (c *Collector) WithCache(cache CacheSizer) *Collector {
	c.cache = cache
	return c
}

// Start samples once immediately and then every interval.
func (c *Collector) Start() {
	go func() {
		defer close(c.done)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			c.collect()
			select {
			case <-ticker.C:
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop ends sampling and waits for an in-flight sample. Safe to call twice.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

func (c *Collector) collect() {
	if c.stats != nil {
		ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
		count, err := c.stats.CountRecords(ctx)
		cancel()
		if err != nil {
			logging.Warn("Metrics collection failed: %v", err)
		} else {
			CatalogRecordsTotal.Set(float64(count))
		}

		if p, ok := c.stats.(poolReporter); ok {
			p.UpdateDBMetrics()
		}
	}

	if c.cache != nil {
		size, files, err := c.cache.GetCacheSize()
		if err != nil {
			logging.Debug("Thumbnail cache size unavailable: %v", err)
		} else {
			ThumbnailCacheBytes.Set(float64(size))
			ThumbnailCacheFiles.Set(float64(files))
		}
	}
}
