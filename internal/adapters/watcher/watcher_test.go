package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestWatcher_BurstProducesSingleReload(t *testing.T) {
	dir := t.TempDir()
	var reloads atomic.Int32

	w := NewWatcher(dir, 100*time.Millisecond, nil, func() { reloads.Add(1) })
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() { _ = w.Stop() }()

	for i := 0; i < 20; i++ {
		name := filepath.Join(dir, "s"+strconv.Itoa(i)+".json")
		if err := os.WriteFile(name, []byte(`{}`), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	time.Sleep(400 * time.Millisecond)

	if got := reloads.Load(); got != 1 {
		t.Errorf("reloads = %d, want 1", got)
	}
}

func TestWatcher_RemoveTriggersReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	var reloads atomic.Int32
	w := NewWatcher(dir, 30*time.Millisecond, nil, func() { reloads.Add(1) })
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() { _ = w.Stop() }()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for reloads.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if reloads.Load() != 1 {
		t.Errorf("reloads = %d, want 1", reloads.Load())
	}
}

func TestWatcher_StartMissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing"), DefaultDebounce, nil, func() {})

	if err := w.Start(context.Background()); err == nil {
		_ = w.Stop()
		t.Fatal("Start() error = nil, want error for missing directory")
	}
	if w.IsRunning() {
		t.Error("IsRunning() = true after failed Start")
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w := NewWatcher(t.TempDir(), DefaultDebounce, nil, nil)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !w.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if err := w.Start(context.Background()); err != nil {
		t.Errorf("second Start() error = %v", err)
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if w.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestWatcher_StopCancelsPendingReload(t *testing.T) {
	dir := t.TempDir()
	var reloads atomic.Int32

	w := NewWatcher(dir, 100*time.Millisecond, nil, func() { reloads.Add(1) })
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	w.handleEvent(fsnotify.Event{Name: filepath.Join(dir, "a.json"), Op: fsnotify.Write})
	_ = w.Stop()

	time.Sleep(200 * time.Millisecond)
	if got := reloads.Load(); got != 0 {
		t.Errorf("reloads after Stop = %d, want 0", got)
	}
}

func TestWatcher_HandleEventFiltering(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(dir, time.Hour, []string{"*.swp", ".DS_Store"}, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() { _ = w.Stop() }()

	tests := []struct {
		name    string
		event   fsnotify.Event
		trigger bool
	}{
		{"chmod ignored", fsnotify.Event{Name: filepath.Join(dir, "a.json"), Op: fsnotify.Chmod}, false},
		{"swap file ignored", fsnotify.Event{Name: filepath.Join(dir, ".a.json.swp"), Op: fsnotify.Write}, false},
		{"ds_store ignored", fsnotify.Event{Name: filepath.Join(dir, ".DS_Store"), Op: fsnotify.Create}, false},
		{"create", fsnotify.Event{Name: filepath.Join(dir, "a.json"), Op: fsnotify.Create}, true},
		{"rename", fsnotify.Event{Name: filepath.Join(dir, "a.json"), Op: fsnotify.Rename}, true},
		{"side-car write", fsnotify.Event{Name: filepath.Join(dir, "a.ctx"), Op: fsnotify.Write}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := w.debouncer.Coalesced()
			w.handleEvent(tt.event)
			triggered := w.debouncer.Coalesced() > before
			if triggered != tt.trigger {
				t.Errorf("triggered = %v, want %v", triggered, tt.trigger)
			}
		})
	}
}

func TestWatcher_IgnorePatterns(t *testing.T) {
	w := NewWatcher(t.TempDir(), DefaultDebounce, []string{"*.tmp"}, nil)

	if !w.shouldIgnore("/x/a.json.tmp") {
		t.Error("*.tmp should be ignored")
	}
	if w.shouldIgnore("/x/a.json") {
		t.Error("descriptor should not be ignored")
	}
}
