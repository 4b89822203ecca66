package live

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianly1003/glance/internal/domain"
)

// fakeRunner records commands and replies from a table keyed by the
// command line.
type fakeRunner struct {
	mu      sync.Mutex
	calls   []string
	outputs map[string]string
	fail    map[string]bool
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{outputs: map[string]string{}, fail: map[string]bool{}}
}

func (r *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line := strings.Join(append([]string{name}, args...), " ")
	r.calls = append(r.calls, line)

	for prefix, failed := range r.fail {
		if failed && strings.HasPrefix(line, prefix) {
			return []byte("boom"), errors.New("exit status 1")
		}
	}
	for prefix, out := range r.outputs {
		if strings.HasPrefix(line, prefix) {
			return []byte(out), nil
		}
	}
	return nil, nil
}

func (r *fakeRunner) commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type stubPlatform struct {
	name      string
	available bool
	err       error
	focused   []string
}

func (p *stubPlatform) Name() string                   { return p.name }
func (p *stubPlatform) Available(context.Context) bool { return p.available }
func (p *stubPlatform) Focus(_ context.Context, tty string) error {
	p.focused = append(p.focused, tty)
	return p.err
}

func TestFocuser_InvalidTerminalIgnored(t *testing.T) {
	p := &stubPlatform{name: "stub"}
	f := NewFocuser(p, 0)

	for _, tty := range []string{"", "??", "../x", "pts/"} {
		err := f.FocusTerminal(context.Background(), tty)
		if !errors.Is(err, domain.ErrInvalidTerminal) {
			t.Errorf("FocusTerminal(%q) error = %v, want ErrInvalidTerminal", tty, err)
		}
	}
	if len(p.focused) != 0 {
		t.Errorf("platform called for invalid ids: %v", p.focused)
	}
}

func TestFocuser_RateLimit(t *testing.T) {
	p := &stubPlatform{name: "stub"}
	f := NewFocuser(p, time.Second)

	now := time.Unix(1000, 0)
	f.now = func() time.Time { return now }

	if err := f.FocusTerminal(context.Background(), "ttys001"); err != nil {
		t.Fatalf("first FocusTerminal() error = %v", err)
	}

	now = now.Add(200 * time.Millisecond)
	if err := f.FocusTerminal(context.Background(), "ttys002"); !errors.Is(err, domain.ErrFocusRateLimited) {
		t.Errorf("second FocusTerminal() error = %v, want ErrFocusRateLimited", err)
	}

	now = now.Add(time.Second)
	if err := f.FocusTerminal(context.Background(), "ttys003"); err != nil {
		t.Errorf("third FocusTerminal() error = %v", err)
	}

	if want := []string{"ttys001", "ttys003"}; !reflect.DeepEqual(p.focused, want) {
		t.Errorf("focused = %v, want %v", p.focused, want)
	}
}

func TestFocuser_PlatformErrorWrapped(t *testing.T) {
	p := &stubPlatform{name: "stub", err: domain.ErrFocusUnavailable}
	f := NewFocuser(p, 0)

	err := f.FocusTerminal(context.Background(), "pts/3")

	var fe *domain.FocusError
	if !errors.As(err, &fe) {
		t.Fatalf("error %T is not *domain.FocusError", err)
	}
	if fe.Backend != "stub" || fe.TTY != "pts/3" {
		t.Errorf("FocusError = %+v", fe)
	}
	if !errors.Is(err, domain.ErrFocusUnavailable) {
		t.Error("error should unwrap to ErrFocusUnavailable")
	}
}

func TestNewFocuser_NilPlatform(t *testing.T) {
	f := NewFocuser(nil, 0)
	if f.Backend() != ModeNone {
		t.Errorf("Backend() = %q, want none", f.Backend())
	}
	if err := f.FocusTerminal(context.Background(), "ttys001"); !errors.Is(err, domain.ErrFocusUnavailable) {
		t.Errorf("FocusTerminal() error = %v, want ErrFocusUnavailable", err)
	}
}

func TestTmuxPlatform_Focus(t *testing.T) {
	r := newFakeRunner()
	r.outputs["tmux list-panes"] = "/dev/ttys001 work:0.0\n/dev/ttys004 dev:2.1\n"
	p := NewTmuxPlatform(r.run)

	if err := p.Focus(context.Background(), "ttys004"); err != nil {
		t.Fatalf("Focus() error = %v", err)
	}

	want := []string{
		"tmux list-panes -a -F " + tmuxPaneFormat,
		"tmux switch-client -t dev",
		"tmux select-window -t dev:2",
		"tmux select-pane -t dev:2.1",
	}
	if got := r.commands(); !reflect.DeepEqual(got, want) {
		t.Errorf("commands =\n%v\nwant\n%v", got, want)
	}
}

func TestTmuxPlatform_SwitchClientFailureTolerated(t *testing.T) {
	r := newFakeRunner()
	r.outputs["tmux list-panes"] = "/dev/pts/7 main:1.0\n"
	r.fail["tmux switch-client"] = true
	p := NewTmuxPlatform(r.run)

	if err := p.Focus(context.Background(), "pts/7"); err != nil {
		t.Fatalf("Focus() error = %v", err)
	}
	if n := len(r.commands()); n != 4 {
		t.Errorf("commands run = %d, want 4", n)
	}
}

func TestTmuxPlatform_NoMatchingPane(t *testing.T) {
	r := newFakeRunner()
	r.outputs["tmux list-panes"] = "/dev/ttys001 work:0.0\n"
	p := NewTmuxPlatform(r.run)

	if err := p.Focus(context.Background(), "ttys009"); !errors.Is(err, domain.ErrFocusUnavailable) {
		t.Errorf("Focus() error = %v, want ErrFocusUnavailable", err)
	}
}

func TestSplitTarget(t *testing.T) {
	tests := []struct {
		target      string
		wantSession string
		wantWindow  string
	}{
		{"dev:2.1", "dev", "dev:2"},
		{"my.proj:0.3", "my.proj", "my.proj:0"},
		{"a:b:1.0", "a:b", "a:b:1"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			s, w := splitTarget(tt.target)
			if s != tt.wantSession || w != tt.wantWindow {
				t.Errorf("splitTarget(%q) = (%q, %q), want (%q, %q)", tt.target, s, w, tt.wantSession, tt.wantWindow)
			}
		})
	}
}

func TestITermPlatform_Focus(t *testing.T) {
	r := newFakeRunner()
	running := func(context.Context, ...string) bool { return true }
	p := NewITermPlatform(r.run, running)

	if err := p.Focus(context.Background(), "ttys003"); err != nil {
		t.Fatalf("Focus() error = %v", err)
	}

	cmds := r.commands()
	if len(cmds) != 1 || !strings.HasPrefix(cmds[0], "osascript -e ") {
		t.Fatalf("commands = %v, want one osascript call", cmds)
	}
	if !strings.Contains(cmds[0], `"/dev/ttys003"`) {
		t.Errorf("script does not target /dev/ttys003: %s", cmds[0])
	}
}

func TestITermPlatform_NotRunning(t *testing.T) {
	r := newFakeRunner()
	p := NewITermPlatform(r.run, func(context.Context, ...string) bool { return false })

	if err := p.Focus(context.Background(), "ttys003"); !errors.Is(err, domain.ErrFocusUnavailable) {
		t.Errorf("Focus() error = %v, want ErrFocusUnavailable", err)
	}
	if len(r.commands()) != 0 {
		t.Error("osascript should not run when iTerm2 is down")
	}
}

func TestDetector_Detect(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		mode     string
		iterm    bool
		tmuxDown bool
		want     string
		wantErr  bool
	}{
		{"auto prefers iterm on darwin", "darwin", "auto", true, false, ModeITerm2, false},
		{"auto falls back to tmux", "darwin", "auto", false, false, ModeTmux, false},
		{"auto skips iterm off darwin", "linux", "", true, false, ModeTmux, false},
		{"auto none when nothing available", "linux", "auto", false, true, ModeNone, false},
		{"explicit tmux", "linux", "tmux", false, true, ModeTmux, false},
		{"explicit iterm2", "linux", "iTerm2", false, false, ModeITerm2, false},
		{"explicit none", "darwin", "none", true, false, ModeNone, false},
		{"unknown", "linux", "kitty", false, false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newFakeRunner()
			r.fail["tmux list-sessions"] = tt.tmuxDown
			d := NewDetector(r.run)
			d.goos = tt.goos
			d.running = func(context.Context, ...string) bool { return tt.iterm }

			p, err := d.Detect(context.Background(), tt.mode)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Detect() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if p.Name() != tt.want {
				t.Errorf("Detect() = %q, want %q", p.Name(), tt.want)
			}
		})
	}
}
