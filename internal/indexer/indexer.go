package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
)

// Upper bound for one scheduled or triggered pass.
const passTimeout = 2 * time.Hour

// ErrAlreadyRunning is returned by Run when another pass is in progress.
var ErrAlreadyRunning = errors.New("sync already in progress")

// Store is the storage used by a synchronization pass.
type Store interface {
	catalog.SyncStore
	SetLastSync(ctx context.Context, t time.Time) error
}

// Builder produces the canonical table for a root directory.
type Builder interface {
	Build(ctx context.Context, root string) ([]catalog.Record, error)
}

// Indexer runs build+sync passes over the upload folder, on a schedule and
// on demand. Only one pass runs at a time.
type Indexer struct {
	builder  Builder
	store    Store
	root     string
	interval time.Duration

	scheduler gocron.Scheduler
	job       gocron.Job

	mu                 sync.Mutex
	isRunning          bool
	lastRun            time.Time
	lastResult         catalog.SyncResult
	lastErr            error
	initialRunComplete bool
	startTime          time.Time

	// Callback when a pass completes
	onComplete func(catalog.SyncResult, error)
}

// New creates an Indexer. An interval of zero disables periodic passes.
func New(builder Builder, store Store, root string, interval time.Duration) *Indexer {
	return &Indexer{
		builder:   builder,
		store:     store,
		root:      root,
		interval:  interval,
		startTime: time.Now(),
	}
}

// SetOnComplete sets a callback invoked after every pass.
func (idx *Indexer) SetOnComplete(callback func(catalog.SyncResult, error)) {
	idx.onComplete = callback
}

// Start schedules periodic passes. When runNow is set, the first pass starts
// immediately in the background.
func (idx *Indexer) Start(runNow bool) error {
	if idx.interval > 0 {
		s, err := gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}

		opts := []gocron.JobOption{
			gocron.WithName("catalog-sync"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		}
		if runNow {
			opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
		}

		job, err := s.NewJob(
			gocron.DurationJob(idx.interval),
			gocron.NewTask(idx.scheduledRun),
			opts...,
		)
		if err != nil {
			_ = s.Shutdown()
			return fmt.Errorf("schedule sync job: %w", err)
		}

		idx.scheduler = s
		idx.job = job
		s.Start()
		logging.Info("Catalog sync scheduled every %v", idx.interval)
		return nil
	}

	logging.Info("Periodic catalog sync disabled")
	if runNow {
		idx.TriggerIndex()
	}
	return nil
}

// Stop stops the scheduler. A running pass is allowed to finish.
func (idx *Indexer) Stop() {
	if idx.scheduler == nil {
		return
	}
	if err := idx.scheduler.Shutdown(); err != nil {
		logging.Warn("Scheduler shutdown: %v", err)
	}
}

func (idx *Indexer) scheduledRun() {
	ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
	defer cancel()

	logging.Debug("Scheduled catalog sync triggered")
	if _, err := idx.Run(ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
		logging.Error("scheduled catalog sync failed: %v", err)
	}
}

// TriggerIndex starts a pass in the background and returns immediately. It
// does nothing while a pass is running.
func (idx *Indexer) TriggerIndex() {
	if !idx.TryTrigger() {
		logging.Info("Catalog sync already in progress, skipping")
	}
}

// TryTrigger starts a pass in the background and reports whether it did. It
// returns false, without starting anything, while a pass is running.
func (idx *Indexer) TryTrigger() bool {
	if !idx.tryStart() {
		return false
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
		defer cancel()

		if _, err := idx.run(ctx); err != nil {
			logging.Error("manually triggered catalog sync failed: %v", err)
		}
	}()
	return true
}

// Run performs one build+sync pass and returns its result. Per-record insert
// failures are reported in the error but do not stop the pass.
func (idx *Indexer) Run(ctx context.Context) (catalog.SyncResult, error) {
	if !idx.tryStart() {
		logging.Info("Catalog sync already in progress, skipping")
		return catalog.SyncResult{}, ErrAlreadyRunning
	}
	return idx.run(ctx)
}

// run performs a pass already claimed with tryStart.
func (idx *Indexer) run(ctx context.Context) (catalog.SyncResult, error) {
	metrics.SyncIsRunning.Set(1)
	metrics.SyncRunsTotal.Inc()
	start := time.Now()
	logging.Info("Starting catalog sync of %s", idx.root)

	result, err := idx.pass(ctx)

	metrics.SyncIsRunning.Set(0)
	metrics.SyncLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.SyncLastRunDuration.Set(time.Since(start).Seconds())
	if err != nil {
		metrics.SyncErrors.Inc()
	}

	idx.finish(result, err)
	if idx.onComplete != nil {
		idx.onComplete(result, err)
	}
	return result, err
}

func (idx *Indexer) pass(ctx context.Context) (catalog.SyncResult, error) {
	table, err := idx.builder.Build(ctx, idx.root)
	if err != nil {
		return catalog.SyncResult{}, fmt.Errorf("build catalog: %w", err)
	}

	result, syncErr := catalog.SyncWithStore(ctx, idx.store, table)

	if err := idx.store.SetLastSync(ctx, time.Now()); err != nil {
		logging.Warn("Failed to record sync time: %v", err)
	}
	return result, syncErr
}

func (idx *Indexer) tryStart() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.isRunning {
		return false
	}
	idx.isRunning = true
	return true
}

func (idx *Indexer) finish(result catalog.SyncResult, err error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.isRunning = false
	idx.lastRun = time.Now()
	idx.lastResult = result
	idx.lastErr = err
	idx.initialRunComplete = true
}

// IsRunning reports whether a pass is in progress.
func (idx *Indexer) IsRunning() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.isRunning
}

// IsReady reports whether the first pass has completed.
func (idx *Indexer) IsReady() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.initialRunComplete
}

// HealthStatus contains health check information.
type HealthStatus struct {
	Ready      bool                `json:"ready"`
	Syncing    bool                `json:"syncing"`
	StartTime  time.Time           `json:"startTime"`
	Uptime     string              `json:"uptime"`
	LastSync   time.Time           `json:"lastSync,omitempty"`
	NextSync   time.Time           `json:"nextSync,omitempty"`
	LastResult *catalog.SyncResult `json:"lastResult,omitempty"`
	LastError  string              `json:"lastError,omitempty"`
}

// GetHealthStatus returns detailed health information.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	status := HealthStatus{
		Ready:     idx.initialRunComplete,
		Syncing:   idx.isRunning,
		StartTime: idx.startTime,
		Uptime:    time.Since(idx.startTime).Round(time.Second).String(),
		LastSync:  idx.lastRun,
	}

	if idx.initialRunComplete {
		result := idx.lastResult
		status.LastResult = &result
	}
	if idx.lastErr != nil {
		status.LastError = idx.lastErr.Error()
	}
	if idx.job != nil {
		if next, err := idx.job.NextRun(); err == nil {
			status.NextSync = next
		}
	}

	return status
}
