package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
)

// RecordInserter persists one record.
type RecordInserter interface {
	InsertRecord(ctx context.Context, r Record) error
}

// PathLister lists the full_path of every persisted record.
type PathLister interface {
	ListAllPaths(ctx context.Context) ([]string, error)
}

// SyncStore is the storage needed for a full synchronization pass.
type SyncStore interface {
	PathLister
	RecordInserter
}

// SyncResult counts the outcome of one synchronization pass.
type SyncResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Synchronizer inserts canonical records that are missing from storage.
type Synchronizer struct {
	store RecordInserter
}

// NewSynchronizer creates a Synchronizer writing through store.
func NewSynchronizer(store RecordInserter) *Synchronizer {
	return &Synchronizer{store: store}
}

// Sync inserts every record of table whose path identity is not in persisted,
// at most once per identity. Existing rows are never updated or removed.
// A failed insert does not stop the pass; all failures are joined into the
// returned error alongside a result describing what was done.
func (s *Synchronizer) Sync(ctx context.Context, table []Record, persisted []string) (SyncResult, error) {
	var (
		result SyncResult
		errs   []error
	)

	known := IdentitySet(persisted)

	for _, record := range table {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		id := Identity(record.FullPath)
		if id == "" {
			result.Failed++
			errs = append(errs, ErrEmptyPath)
			continue
		}
		if _, ok := known[id]; ok {
			result.Skipped++
			continue
		}

		if err := s.store.InsertRecord(ctx, record); err != nil {
			result.Failed++
			metrics.SyncInsertFailures.Inc()
			logging.Warn("Failed to insert %s: %v", record.FullPath, err)
			errs = append(errs, fmt.Errorf("insert %s: %w", record.FullPath, err))
			continue
		}

		// Marked only after success so a later duplicate can retry the insert.
		known[id] = struct{}{}
		result.Inserted++
		metrics.SyncRecordsInserted.Inc()
	}

	return result, errors.Join(errs...)
}

// SyncWithStore reads the persisted paths from store and synchronizes table
// against them.
func SyncWithStore(ctx context.Context, store SyncStore, table []Record) (SyncResult, error) {
	start := time.Now()

	persisted, err := store.ListAllPaths(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("list persisted paths: %w", err)
	}

	result, err := NewSynchronizer(store).Sync(ctx, table, persisted)
	logging.Info("Sync finished: %d inserted, %d already present, %d failed in %v",
		result.Inserted, result.Skipped, result.Failed, time.Since(start))
	return result, err
}
