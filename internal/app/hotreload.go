package app

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// HotReloader watches the loaded image files and reports when one of them has
// been rewritten, typically by an acquisition still in progress.
type HotReloader struct {
	watcher *fsnotify.Watcher
	delay   time.Duration

	mu       sync.Mutex
	files    map[string]bool
	dirs     map[string]bool
	pending  map[string]*time.Timer
	onChange func(path string) // Called when a watched file settles
	done     chan struct{}
}

// NewHotReloader creates a reloader reporting a file once it has not changed
// for delay.
func NewHotReloader(delay time.Duration) (*HotReloader, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &HotReloader{
		watcher: w,
		delay:   delay,
		files:   make(map[string]bool),
		dirs:    make(map[string]bool),
		pending: make(map[string]*time.Timer),
		done:    make(chan struct{}),
	}, nil
}

// OnChange sets the callback invoked with the path of a changed file.
// The callback is called from a background goroutine; UI updates must go
// through the dispatcher.
func (h *HotReloader) OnChange(callback func(path string)) {
	h.mu.Lock()
	h.onChange = callback
	h.mu.Unlock()
}

// Watch adds a file. Its directory is watched so that files replaced by a
// rename are still seen.
func (h *HotReloader) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.dirs[dir] {
		if err := h.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		h.dirs[dir] = true
	}
	h.files[abs] = true
	return nil
}

// Watched reports whether path is being watched.
func (h *HotReloader) Watched(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.files[abs]
}

// Start begins dispatching file events in a background goroutine.
func (h *HotReloader) Start() {
	go h.watchLoop()
}

// Stop stops the watcher and drops pending notifications.
func (h *HotReloader) Stop() error {
	close(h.done)
	h.mu.Lock()
	for p, t := range h.pending {
		t.Stop()
		delete(h.pending, p)
	}
	h.mu.Unlock()
	return h.watcher.Close()
}

func (h *HotReloader) watchLoop() {
	for {
		select {
		case <-h.done:
			return
		case ev, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				h.schedule(filepath.Clean(ev.Name))
			}
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", "error", err)
		}
	}
}

// schedule reports path after the delay, restarting the delay on every event
// so that a file still being written is reported once.
func (h *HotReloader) schedule(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.files[path] {
		return
	}
	if t, ok := h.pending[path]; ok {
		t.Reset(h.delay)
		return
	}
	h.pending[path] = time.AfterFunc(h.delay, func() {
		h.mu.Lock()
		delete(h.pending, path)
		cb := h.onChange
		h.mu.Unlock()
		select {
		case <-h.done:
			return
		default:
		}
		slog.Debug("Image file changed", "path", path)
		if cb != nil {
			cb(path)
		}
	})
}
