package indexer

import (
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"photo-catalog/internal/filesystem"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/mediatypes"
	"photo-catalog/internal/metrics"
)

// Default quiet period before a burst of filesystem events triggers a sync.
const defaultDebounce = 5 * time.Second

// Watcher triggers a sync pass when image files appear under the root.
// Events are debounced so that copying a folder of photos results in one pass.
type Watcher struct {
	root     string
	allowed  mediatypes.ExtensionSet
	trigger  func()
	debounce time.Duration

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a Watcher that calls trigger after relevant changes.
func NewWatcher(root string, allowed mediatypes.ExtensionSet, trigger func()) *Watcher {
	return &Watcher{
		root:     root,
		allowed:  allowed,
		trigger:  trigger,
		debounce: defaultDebounce,
		done:     make(chan struct{}),
	}
}

// SetDebounce overrides the quiet period.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Start watches root and every directory below it.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.WatcherErrors.Inc()
		return err
	}
	w.watcher = watcher

	count := w.addDirectories(w.root)
	metrics.WatchedDirectories.Set(float64(count))
	logging.Info("Watching %d directories under %s for new images", count, w.root)

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop stops watching and cancels a pending trigger.
func (w *Watcher) Stop() {
	if w.watcher == nil {
		return
	}
	close(w.done)
	_ = w.watcher.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

// addDirectories adds dir and all of its subdirectories to the watcher.
// Hidden directories are included because the scanner includes them.
func (w *Watcher) addDirectories(dir string) int {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree, keep going.
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if addErr := w.watcher.Add(path); addErr != nil {
			logging.Warn("failed to add path to watcher %s: %v", path, addErr)
			metrics.WatcherErrors.Inc()
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		logging.Error("failed to walk %s for watcher: %v", dir, err)
		metrics.WatcherErrors.Inc()
	}
	return count
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("Watcher error: %v", err)
			metrics.WatcherErrors.Inc()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	metrics.WatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	// Only additions matter: sync never removes or updates rows.
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}

	info, err := filesystem.StatWithRetry(event.Name, filesystem.DefaultRetryConfig())
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			added := w.addDirectories(event.Name)
			metrics.WatchedDirectories.Add(float64(added))
			logging.Debug("Added %d new directories to watcher under %s", added, event.Name)
			w.schedule()
		}
		return
	}

	if w.allowed.Allows(event.Name) {
		w.schedule()
	}
}

// schedule (re)starts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		default:
		}
		logging.Debug("Filesystem changes settled, triggering sync")
		w.trigger()
	})
}

// eventType returns a string representation of the fsnotify operation
func eventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	case op&fsnotify.Chmod != 0:
		return "chmod"
	default:
		return "unknown"
	}
}
