// Package watcher provides file system watching with debouncing for
// the layout database, so external writes surface as a bus event.
package watcher

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"parcelgrid/internal/bus"
	"parcelgrid/internal/log"
)

// ExternalChange is broadcast when the storage file is modified by
// another process. Panels re-read their persisted geometry on it.
const ExternalChange bus.EventType = "layout_external_change"

// Watcher monitors the storage database for changes and publishes
// debounced notifications on the bus.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	bus       *bus.Bus
	dbPath    string
	debounce  time.Duration
	done      chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	DBPath      string
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(dbPath string) Config {
	return Config{
		DBPath:      dbPath,
		DebounceDur: 250 * time.Millisecond,
	}
}

// New creates a storage watcher that broadcasts on b.
func New(cfg Config, b *bus.Bus) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	debounce := cfg.DebounceDur
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	return &Watcher{
		fsWatcher: fsw,
		bus:       b,
		dbPath:    cfg.DBPath,
		debounce:  debounce,
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching the directory containing the database.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.dbPath)
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}

	go w.loop()

	log.Debug(log.CatWatcher, "watching storage file", "path", w.dbPath)
	return nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing. Bursts of writes
// (sqlite touches the db and its wal) collapse into one broadcast.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if !w.isRelevantEvent(event) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				pending = true
			} else {
				if !timer.Stop() {
					// Drain the timer channel if it already fired.
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
				pending = true
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				w.bus.Broadcast(ExternalChange, bus.SystemSource, bus.CustomPayload{"path": w.dbPath})
				pending = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error, continuing", err, "path", w.dbPath)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent checks if the event should trigger a broadcast.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	// Only writes and creates matter (the wal file may be created
	// fresh).
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}

	base := filepath.Base(w.dbPath)
	name := filepath.Base(event.Name)
	return name == base || name == base+"-wal"
}
