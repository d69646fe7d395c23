package inventory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/endorses/routefilter/internal/pkg/logger"
	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures the inventory file watcher.
type WatcherConfig struct {
	// Debounce collapses bursts of file events into one reload.
	// Default: 200ms
	Debounce time.Duration

	// PollInterval is the fallback polling interval when fsnotify is unavailable.
	// Default: 1 second
	PollInterval time.Duration

	// ForcePolling skips fsnotify.
	ForcePolling bool
}

// DefaultWatcherConfig returns the default watcher configuration.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		Debounce:     200 * time.Millisecond,
		PollInterval: 1 * time.Second,
	}
}

// ReloadFunc is called after every reload attempt. On failure err is set and
// snap is the snapshot still being served.
type ReloadFunc func(snap *Snapshot, err error)

// Watcher reloads an inventory file into a Store whenever it changes.
type Watcher struct {
	config    WatcherConfig
	store     *Store
	path      string
	fsWatcher *fsnotify.Watcher
	mu        sync.Mutex
	stopChan  chan struct{}
	wg        sync.WaitGroup
	running   bool
	mode      string
	onReload  []ReloadFunc

	// Stats
	reloads  uint64
	failures uint64
}

// NewWatcher creates a new inventory file watcher.
func NewWatcher(path string, store *Store, config WatcherConfig) *Watcher {
	if config.Debounce <= 0 {
		config.Debounce = DefaultWatcherConfig().Debounce
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultWatcherConfig().PollInterval
	}

	return &Watcher{
		config:   config,
		store:    store,
		path:     path,
		stopChan: make(chan struct{}),
	}
}

// OnReload registers a callback. Callbacks run on the watcher goroutine.
func (w *Watcher) OnReload(fn ReloadFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = append(w.onReload, fn)
}

// Start begins watching the inventory file.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	if w.config.ForcePolling {
		return w.startPolling(ctx)
	}
	return w.startFileWatcher(ctx)
}

// startFileWatcher watches the parent directory so atomic renames over the
// file are seen.
func (w *Watcher) startFileWatcher(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("fsnotify unavailable, falling back to polling",
			"error", err)
		return w.startPolling(ctx)
	}

	dir := filepath.Dir(w.path)
	if err := fsWatcher.Add(dir); err != nil {
		logger.Warn("failed to watch directory, falling back to polling",
			"path", w.path,
			"dir", dir,
			"error", err)
		if cerr := fsWatcher.Close(); cerr != nil {
			logger.Error("failed to close fsnotify watcher", "error", cerr)
		}
		return w.startPolling(ctx)
	}

	w.mu.Lock()
	w.fsWatcher = fsWatcher
	w.mode = "fsnotify"
	w.mu.Unlock()

	w.wg.Add(1)
	go w.fsWatchLoop(ctx)

	logger.Info("started inventory watcher",
		"path", w.path,
		"mode", "fsnotify")

	return nil
}

// startPolling watches using periodic polling.
func (w *Watcher) startPolling(ctx context.Context) error {
	w.mu.Lock()
	w.mode = "polling"
	w.mu.Unlock()

	var lastModTime time.Time
	var lastSize int64
	if info, err := os.Stat(w.path); err == nil {
		lastModTime, lastSize = info.ModTime(), info.Size()
	}

	w.wg.Add(1)
	go w.pollLoop(ctx, lastModTime, lastSize)

	logger.Info("started inventory watcher",
		"path", w.path,
		"mode", "polling",
		"interval", w.config.PollInterval)

	return nil
}

// fsWatchLoop waits for events on the inventory file and reloads once they
// settle.
func (w *Watcher) fsWatchLoop(ctx context.Context) {
	defer w.wg.Done()

	targetPath, _ := filepath.Abs(w.path)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			// Only react to our target file
			eventPath, _ := filepath.Abs(event.Name)
			if eventPath != targetPath {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if timer == nil {
					timer = time.NewTimer(w.config.Debounce)
				} else {
					timer.Reset(w.config.Debounce)
				}
				fire = timer.C
			}
			if event.Op&fsnotify.Remove != 0 {
				logger.Warn("inventory file removed, keeping current snapshot", "path", w.path)
			}
		case <-fire:
			fire = nil
			_ = w.Reload()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logger.Warn("fsnotify error", "error", err)
		}
	}
}

// pollLoop reloads when the file's modification time or size changes.
func (w *Watcher) pollLoop(ctx context.Context, lastModTime time.Time, lastSize int64) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			info, err := os.Stat(w.path)
			if err != nil {
				if !os.IsNotExist(err) {
					logger.Warn("failed to stat inventory file",
						"path", w.path,
						"error", err)
				}
				continue
			}

			modTime, size := info.ModTime(), info.Size()
			if !modTime.Equal(lastModTime) || size != lastSize {
				lastModTime, lastSize = modTime, size
				_ = w.Reload()
			}
		}
	}
}

// Reload loads the file and installs the new snapshot. On failure the
// current snapshot stays in place.
func (w *Watcher) Reload() error {
	snap, err := LoadFile(w.path)

	w.mu.Lock()
	if err != nil {
		w.failures++
	} else {
		w.reloads++
	}
	callbacks := make([]ReloadFunc, len(w.onReload))
	copy(callbacks, w.onReload)
	w.mu.Unlock()

	if err != nil {
		logger.Error("inventory reload failed, keeping current snapshot",
			"path", w.path,
			"error", err)
		snap = w.store.Snapshot()
	} else {
		w.store.Replace(snap)
		logger.Info("inventory reloaded",
			"path", w.path,
			"records", snap.Counts())
	}

	for _, fn := range callbacks {
		fn(snap, err)
	}
	return err
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)

	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			logger.Error("failed to close fsnotify watcher", "error", err)
		}
	}

	w.wg.Wait()

	stats := w.Stats()
	logger.Info("stopped inventory watcher",
		"path", w.path,
		"reloads", stats.Reloads,
		"failures", stats.Failures)

	return nil
}

// Stats returns watcher statistics.
func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return WatcherStats{
		Path:     w.path,
		Mode:     w.mode,
		Reloads:  w.reloads,
		Failures: w.failures,
		Running:  w.running,
	}
}

// WatcherStats contains watcher statistics.
type WatcherStats struct {
	Path     string
	Mode     string
	Reloads  uint64
	Failures uint64
	Running  bool
}
