package fileutil

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher records which watched files changed since they were last polled.
//
// Directories are watched instead of the files themselves because most
// editors save by renaming a temporary file over the original, which
// drops a per-file watch.
type Watcher struct {
	watcher *fsnotify.Watcher
	log     *slog.Logger

	mu      sync.Mutex
	files   map[string]bool // absolute path -> changed since last poll
	dirs    map[string]int  // directory -> number of watched files in it
	done    chan struct{}
	stopped sync.WaitGroup
}

// NewWatcher starts the fsnotify event loop.
func NewWatcher(log *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{
		watcher: fw,
		log:     log,
		files:   make(map[string]bool),
		dirs:    make(map[string]int),
		done:    make(chan struct{}),
	}
	w.stopped.Add(1)
	go w.loop()
	return w, nil
}

// Add starts watching path. Adding the same path twice is a no-op.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[abs]; ok {
		return nil
	}
	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.files[abs] = false
	return nil
}

// Changed reports whether path changed since the previous call and clears
// the flag. Unwatched paths never report a change.
func (w *Watcher) Changed(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	changed := w.files[abs]
	if changed {
		w.files[abs] = false
	}
	return changed
}

// Close stops the event loop and releases the OS watches.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.stopped.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.stopped.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.mark(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) mark(name string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[abs]; ok {
		w.files[abs] = true
		w.log.Debug("Watched file changed", "path", abs)
	}
}
