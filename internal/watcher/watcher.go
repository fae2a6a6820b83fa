// Package watcher provides debounced file system watching for input files
// and syntax definition directories.
package watcher

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spicery/nutmeg-highlighter/internal/log"
)

// Change lists the watched paths touched during one debounce window.
type Change struct {
	Paths []string
}

// Watcher monitors files and directories and sends coalesced
// notifications.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	files     map[string]bool
	dirs      map[string]bool
	filter    func(path string) bool
	debounce  time.Duration
	onChange  chan Change
	done      chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	// Files are watched individually through their parent directories.
	Files []string
	// Dirs are watched for any entry accepted by Filter.
	Dirs []string
	// Filter selects relevant entries of Dirs; nil accepts everything.
	Filter      func(path string) bool
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig() Config {
	return Config{DebounceDur: 100 * time.Millisecond}
}

// New creates a new watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher: fsw,
		files:     map[string]bool{},
		dirs:      map[string]bool{},
		filter:    cfg.Filter,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan Change, 1),
		done:      make(chan struct{}),
	}
	for _, f := range cfg.Files {
		w.files[filepath.Clean(f)] = true
	}
	for _, d := range cfg.Dirs {
		w.dirs[filepath.Clean(d)] = true
	}
	return w, nil
}

// Start begins watching. The returned channel receives one Change per
// debounce window.
func (w *Watcher) Start() (<-chan Change, error) {
	watched := map[string]bool{}
	for f := range w.files {
		watched[filepath.Dir(f)] = true
	}
	for d := range w.dirs {
		watched[d] = true
	}
	for dir := range watched {
		if err := w.fsWatcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
		log.Debug(log.CatWatcher, "watching", "dir", dir)
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var timer *time.Timer
	pending := map[string]bool{}

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}
			pending[filepath.Clean(event.Name)] = true

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			timer = nil
			if len(pending) == 0 {
				continue
			}
			change := Change{Paths: make([]string, 0, len(pending))}
			for p := range pending {
				change.Paths = append(change.Paths, p)
			}
			sort.Strings(change.Paths)

			select {
			case w.onChange <- change:
				pending = map[string]bool{}
			default:
				// Receiver is behind; keep collecting and retry.
				timer = time.NewTimer(w.debounce)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent checks if the event should trigger a notification.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	// Editors often save by renaming a temporary file over the original.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	if w.files[name] {
		return true
	}
	if w.dirs[filepath.Dir(name)] {
		return w.filter == nil || w.filter(name)
	}
	return false
}
