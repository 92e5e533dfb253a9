package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/mediatypes"
)

type fakeBuilder struct {
	records []catalog.Record
	err     error
	block   chan struct{}
	calls   int
	mu      sync.Mutex
}

func (f *fakeBuilder) Build(ctx context.Context, _ string) ([]catalog.Record, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.records, f.err
}

func (f *fakeBuilder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeStore struct {
	mu       sync.Mutex
	paths    []string
	lastSync time.Time
}

func (s *fakeStore) ListAllPaths(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...), nil
}

func (s *fakeStore) InsertRecord(_ context.Context, r catalog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, r.FullPath)
	return nil
}

func (s *fakeStore) SetLastSync(_ context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSync = t
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestRun(t *testing.T) {
	t.Parallel()

	builder := &fakeBuilder{records: []catalog.Record{{FullPath: "/p/a.jpg"}, {FullPath: "/p/b.jpg"}}}
	store := &fakeStore{}
	idx := New(builder, store, "/p", 0)

	if idx.IsReady() {
		t.Error("indexer should not be ready before the first pass")
	}

	result, err := idx.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Inserted != 2 {
		t.Errorf("Inserted = %d, want 2", result.Inserted)
	}

	result, err = idx.Run(context.Background())
	if err != nil || result.Inserted != 0 || result.Skipped != 2 {
		t.Errorf("second Run() = %+v, %v", result, err)
	}

	if !idx.IsReady() {
		t.Error("indexer should be ready after a pass")
	}
	if store.lastSync.IsZero() {
		t.Error("last sync time was not recorded")
	}

	status := idx.GetHealthStatus()
	if !status.Ready || status.Syncing || status.LastResult == nil || status.LastResult.Skipped != 2 {
		t.Errorf("unexpected health status: %+v", status)
	}
}

func TestRun_BuildErrorIsReported(t *testing.T) {
	t.Parallel()

	idx := New(&fakeBuilder{err: errors.New("root vanished")}, &fakeStore{}, "/p", 0)

	var callbackErr error
	idx.SetOnComplete(func(_ catalog.SyncResult, err error) { callbackErr = err })

	if _, err := idx.Run(context.Background()); err == nil {
		t.Fatal("Run() should fail when the build fails")
	}
	if callbackErr == nil {
		t.Error("completion callback did not receive the error")
	}
	if status := idx.GetHealthStatus(); status.LastError == "" {
		t.Error("health status should carry the last error")
	}
}

func TestRun_SkipsWhileRunning(t *testing.T) {
	t.Parallel()

	builder := &fakeBuilder{block: make(chan struct{})}
	idx := New(builder, &fakeStore{}, "/p", 0)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = idx.Run(context.Background())
	}()

	waitFor(t, idx.IsRunning)

	if _, err := idx.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("concurrent Run() error = %v, want ErrAlreadyRunning", err)
	}

	close(builder.block)
	<-done

	if idx.IsRunning() {
		t.Error("indexer still running after pass finished")
	}
	if builder.Calls() != 1 {
		t.Errorf("builder called %d times, want 1", builder.Calls())
	}
}

func TestTryTrigger_ClaimsPassBeforeReturning(t *testing.T) {
	t.Parallel()

	builder := &fakeBuilder{block: make(chan struct{})}
	idx := New(builder, &fakeStore{}, "/p", 0)

	if !idx.TryTrigger() {
		t.Fatal("first TryTrigger() = false, want true")
	}
	// The pass is marked running before TryTrigger returns, not when the
	// background goroutine gets scheduled.
	if !idx.IsRunning() {
		t.Error("IsRunning() = false right after TryTrigger")
	}
	if idx.TryTrigger() {
		t.Error("second TryTrigger() = true while a pass runs")
	}
	if _, err := idx.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("Run() error = %v, want ErrAlreadyRunning", err)
	}

	close(builder.block)
	waitFor(t, func() bool { return !idx.IsRunning() })

	if builder.Calls() != 1 {
		t.Errorf("builder called %d times, want 1", builder.Calls())
	}
	if !idx.TryTrigger() {
		t.Error("TryTrigger() = false after the pass finished")
	}
	waitFor(t, func() bool { return !idx.IsRunning() })
}

func TestStart_RunsImmediatelyWithoutSchedule(t *testing.T) {
	t.Parallel()

	builder := &fakeBuilder{}
	idx := New(builder, &fakeStore{}, "/p", 0)
	if err := idx.Start(true); err != nil {
		t.Fatal(err)
	}
	defer idx.Stop()

	waitFor(t, idx.IsReady)
}

func TestStart_Scheduled(t *testing.T) {
	t.Parallel()

	builder := &fakeBuilder{}
	idx := New(builder, &fakeStore{}, "/p", 20*time.Millisecond)
	if err := idx.Start(true); err != nil {
		t.Fatal(err)
	}
	defer idx.Stop()

	waitFor(t, func() bool { return builder.Calls() >= 2 })

	if next := idx.GetHealthStatus().NextSync; next.IsZero() {
		t.Error("NextSync should be set while scheduled")
	}
}

func TestWatcher_TriggersOnNewImage(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	triggered := make(chan struct{}, 4)

	w := NewWatcher(root, mediatypes.NewExtensionSet("jpg"), func() { triggered <- struct{}{} })
	w.SetDebounce(20 * time.Millisecond)
	if err := w.Start(); err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(root, "new.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-triggered:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not trigger a sync")
	}
}

func TestWatcher_TriggersInHiddenDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	hidden := filepath.Join(root, ".staging")
	if err := os.Mkdir(hidden, 0o755); err != nil {
		t.Fatal(err)
	}
	triggered := make(chan struct{}, 4)

	w := NewWatcher(root, mediatypes.NewExtensionSet("jpg"), func() { triggered <- struct{}{} })
	w.SetDebounce(20 * time.Millisecond)
	if err := w.Start(); err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(hidden, "a.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-triggered:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher ignored an image in a hidden directory")
	}
}

func TestEventType(t *testing.T) {
	t.Parallel()

	if got := eventType(0); got != "unknown" {
		t.Errorf("eventType(0) = %q", got)
	}
}
