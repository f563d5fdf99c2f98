// Package prefs provides JSON-based viewer preferences.
package prefs

import (
	"encoding/json"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"scopeview/pkg/colorutil"
)

const prefsFile = "preferences.json"

// Preference keys.
const (
	KeyOverlayColour  = "overlay_colour"  // "#RRGGBB" of the selection overlays
	KeyLastImageDir   = "last_image_dir"  // Directory of the last opened image
	KeySelectionWidth = "selection_width" // Default spectrum line width, in pixels
	KeyFillMode       = "fill_mode"       // Repetition fill: none, grid or point
	KeyMicroscope     = "microscope"      // Microscope role of the settings table
)

// Prefs stores viewer preferences as a key-value map.
type Prefs struct {
	mu     sync.RWMutex
	values map[string]any
	path   string
}

// Load reads preferences from <user config dir>/scopeview/preferences.json.
// Returns a Prefs with defaults if the file doesn't exist.
func Load() *Prefs {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return LoadFrom(filepath.Join(configDir, "scopeview", prefsFile))
}

// LoadFrom reads preferences from path. A missing or malformed file gives
// empty preferences that will be saved to path.
func LoadFrom(path string) *Prefs {
	p := &Prefs{
		values: make(map[string]any),
		path:   path,
	}
	if err := p.Reload(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Ignoring preferences", "path", path, "error", err)
	}
	return p
}

// Path returns the preferences file.
func (p *Prefs) Path() string {
	return p.path
}

// Reload replaces the values with those of the file. On error the values are
// left unchanged.
func (p *Prefs) Reload() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return err
	}
	values := make(map[string]any)
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to parse %s: %w", p.path, err)
	}
	p.mu.Lock()
	p.values = values
	p.mu.Unlock()
	return nil
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	p.mu.RLock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

// Float returns a float64 preference, or fallback if not set.
func (p *Prefs) Float(key string, fallback float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return fallback
}

// SetFloat stores a float64 preference.
func (p *Prefs) SetFloat(key string, val float64) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// Int returns an integer preference, or fallback if not set. JSON numbers
// are truncated.
func (p *Prefs) Int(key string, fallback int) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return fallback
}

// SetInt stores an integer preference.
func (p *Prefs) SetInt(key string, val int) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// String returns a string preference, or "" if not set.
func (p *Prefs) String(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SetString stores a string preference.
func (p *Prefs) SetString(key string, val string) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// Bool returns a bool preference, or fallback if not set.
func (p *Prefs) Bool(key string, fallback bool) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

// SetBool stores a bool preference.
func (p *Prefs) SetBool(key string, val bool) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// Colour returns a colour stored as "#RRGGBB", or fallback if not set or
// malformed.
func (p *Prefs) Colour(key string, fallback color.NRGBA) color.NRGBA {
	s := p.String(key)
	if s == "" {
		return fallback
	}
	c, err := colorutil.FromHex(s, 1)
	if err != nil {
		slog.Warn("Bad colour preference", "key", key, "value", s, "error", err)
		return fallback
	}
	return c
}

// SetColour stores a colour as "#RRGGBB".
func (p *Prefs) SetColour(key string, c color.NRGBA) {
	p.SetString(key, colorutil.ToHex(c))
}

// Watcher reloads preferences when their file changes.
type Watcher struct {
	w    *fsnotify.Watcher
	done chan struct{}
}

// Watch reloads p whenever its file is written, then calls onChange from a
// background goroutine. Stop the returned watcher when done.
func (p *Prefs) Watch(onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create preferences watcher: %w", err)
	}
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fw.Close()
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	pw := &Watcher{w: fw, done: make(chan struct{})}
	target := filepath.Clean(p.path)
	go func() {
		defer close(pw.done)
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
					continue
				}
				// Partial writes fail to parse; the next event brings the rest.
				if err := p.Reload(); err != nil {
					slog.Debug("Preferences not reloaded", "error", err)
					continue
				}
				if onChange != nil {
					onChange()
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				slog.Warn("Preferences watcher error", "error", err)
			}
		}
	}()
	return pw, nil
}

// Stop ends the watch and waits for the watcher goroutine.
func (w *Watcher) Stop() error {
	err := w.w.Close()
	<-w.done
	return err
}
