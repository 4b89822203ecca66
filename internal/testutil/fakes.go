package testutil

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/brianly1003/glance/internal/domain/ports"
	"github.com/brianly1003/glance/internal/session"
)

// Descriptor is a session descriptor as a worker hook would write it.
type Descriptor struct {
	Cwd    string
	Status string
	TS     float64
	PID    int
	TTY    string
}

// WriteDescriptor writes <dir>/<id>.json. PID and TTY are omitted when zero.
func WriteDescriptor(t *testing.T, dir, id string, d Descriptor) string {
	t.Helper()

	doc := map[string]any{
		"cwd":    d.Cwd,
		"status": d.Status,
		"ts":     d.TS,
	}
	if d.PID != 0 {
		doc["pid"] = d.PID
	}
	if d.TTY != "" {
		doc["tty"] = d.TTY
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal descriptor: %v", err)
	}
	return WriteFile(t, dir, id+".json", string(data))
}

// WriteContext writes the side-car file <dir>/<id>.ctx.
func WriteContext(t *testing.T, dir, id, content string) string {
	t.Helper()
	return WriteFile(t, dir, id+".ctx", content)
}

// WriteFile writes content to dir/name, creating dir if needed, and returns
// the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FakeProber is a ports.Prober driven by explicit pid and terminal state.
// Unknown pids are dead.
type FakeProber struct {
	mu       sync.Mutex
	alive    map[int]bool
	detached map[string]bool
	calls    int
}

// NewFakeProber creates a prober that reports the given pids alive.
func NewFakeProber(alivePIDs ...int) *FakeProber {
	p := &FakeProber{
		alive:    make(map[int]bool),
		detached: make(map[string]bool),
	}
	for _, pid := range alivePIDs {
		p.alive[pid] = true
	}
	return p
}

// SetAlive marks pid alive or dead.
func (p *FakeProber) SetAlive(pid int, alive bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alive[pid] = alive
}

// Detach marks the terminal device for tty as gone.
func (p *FakeProber) Detach(tty string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detached[tty] = true
}

// IsAlive implements ports.Prober.
func (p *FakeProber) IsAlive(rec session.Record) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++

	if rec.PID <= 0 || !p.alive[rec.PID] {
		return false
	}
	if rec.HasTerminal() && p.detached[rec.TerminalID] {
		return false
	}
	return true
}

// Calls returns how many times IsAlive was called.
func (p *FakeProber) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

var _ ports.Prober = (*FakeProber)(nil)

type fakeWatch struct {
	pid       int
	onExit    func()
	cancelled bool
}

// FakeExitWatcher is a ports.ExitWatcher whose exits are triggered by the
// test through Exit.
type FakeExitWatcher struct {
	mu      sync.Mutex
	watches []*fakeWatch
	err     error
}

// NewFakeExitWatcher creates an empty FakeExitWatcher.
func NewFakeExitWatcher() *FakeExitWatcher {
	return &FakeExitWatcher{}
}

// SetError makes subsequent Watch calls fail with err.
func (w *FakeExitWatcher) SetError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}

// Watch implements ports.ExitWatcher.
func (w *FakeExitWatcher) Watch(pid int, onExit func()) (func(), error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return nil, w.err
	}

	fw := &fakeWatch{pid: pid, onExit: onExit}
	w.watches = append(w.watches, fw)

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		fw.cancelled = true
	}, nil
}

// Backend implements ports.ExitWatcher.
func (w *FakeExitWatcher) Backend() string {
	return "fake"
}

// Exit fires the callbacks of every active watch on pid. It returns the
// number of callbacks invoked.
func (w *FakeExitWatcher) Exit(pid int) int {
	w.mu.Lock()
	var fire []func()
	for _, fw := range w.watches {
		if fw.pid == pid && !fw.cancelled {
			fire = append(fire, fw.onExit)
		}
	}
	w.mu.Unlock()

	for _, fn := range fire {
		fn()
	}
	return len(fire)
}

// ActivePIDs returns the sorted pids of watches that were not cancelled.
func (w *FakeExitWatcher) ActivePIDs() []int {
	w.mu.Lock()
	defer w.mu.Unlock()

	var pids []int
	for _, fw := range w.watches {
		if !fw.cancelled {
			pids = append(pids, fw.pid)
		}
	}
	sort.Ints(pids)
	return pids
}

// WatchCount returns the total number of Watch calls that succeeded.
func (w *FakeExitWatcher) WatchCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watches)
}

var _ ports.ExitWatcher = (*FakeExitWatcher)(nil)

// FakeFocuser records focus requests.
type FakeFocuser struct {
	mu       sync.Mutex
	requests []string
	err      error
}

// NewFakeFocuser creates a FakeFocuser.
func NewFakeFocuser() *FakeFocuser {
	return &FakeFocuser{}
}

// SetError makes FocusTerminal fail with err.
func (f *FakeFocuser) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// FocusTerminal implements ports.Focuser.
func (f *FakeFocuser) FocusTerminal(_ context.Context, tty string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, tty)
	return f.err
}

// Backend implements ports.Focuser.
func (f *FakeFocuser) Backend() string {
	return "fake"
}

// Requests returns the terminal ids focused so far.
func (f *FakeFocuser) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

var _ ports.Focuser = (*FakeFocuser)(nil)
