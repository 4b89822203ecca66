// Package watcher watches the sessions directory with fsnotify and turns
// bursts of changes into single reload requests.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/brianly1003/glance/internal/domain/ports"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is the quiet period before a reload is requested.
const DefaultDebounce = 200 * time.Millisecond

// Watcher implements the DirectoryWatcher port interface. It watches a
// single directory, non-recursively.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func()

	mu             sync.RWMutex
	watcher        *fsnotify.Watcher
	ignorePatterns []string
	running        bool
	cancel         context.CancelFunc

	debouncer *Debouncer
}

// NewWatcher creates a watcher for dir. onChange is invoked from a timer
// goroutine once per debounced burst and must not block for long.
func NewWatcher(dir string, debounce time.Duration, ignorePatterns []string, onChange func()) *Watcher {
	return &Watcher{
		dir:            dir,
		debounce:       debounce,
		onChange:       onChange,
		ignorePatterns: append([]string(nil), ignorePatterns...),
	}
}

// Start begins watching the sessions directory.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		w.mu.Unlock()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.watcher = fsw

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.debouncer = NewDebouncer(w.debounce, w.handleDebounced)

	w.running = true
	w.mu.Unlock()

	go w.eventLoop(watchCtx, fsw)

	log.Info().
		Str("path", w.dir).
		Dur("debounce", w.debounce).
		Msg("session directory watcher started")

	return nil
}

// Stop terminates watching and cancels any pending debounce timer.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false

	if w.cancel != nil {
		w.cancel()
	}

	if w.debouncer != nil {
		w.debouncer.Stop()
	}

	if w.watcher != nil {
		err := w.watcher.Close()
		w.watcher = nil
		log.Info().Msg("session directory watcher stopped")
		return err
	}

	return nil
}

// IsRunning returns true if the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// eventLoop handles fsnotify events.
func (w *Watcher) eventLoop(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Str("path", w.dir).Msg("watcher error")
		}
	}
}

// handleEvent feeds a single fsnotify event into the debouncer.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) &&
		!event.Op.Has(fsnotify.Rename) {
		return
	}
	if w.shouldIgnore(event.Name) {
		return
	}

	log.Trace().
		Str("path", event.Name).
		Str("op", event.Op.String()).
		Msg("session directory event")

	w.mu.RLock()
	d := w.debouncer
	w.mu.RUnlock()
	if d != nil {
		d.Trigger()
	}
}

// handleDebounced is called once the debounce window expires.
func (w *Watcher) handleDebounced() {
	log.Debug().Str("path", w.dir).Msg("session directory changed")
	if w.onChange != nil {
		w.onChange()
	}
}

// shouldIgnore checks if a path's base name matches an ignore pattern.
func (w *Watcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)

	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, pattern := range w.ignorePatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

var _ ports.DirectoryWatcher = (*Watcher)(nil)
