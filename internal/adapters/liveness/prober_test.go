package liveness

import (
	"os"
	"testing"

	"github.com/brianly1003/glance/internal/session"
)

func TestProber_IsAlive(t *testing.T) {
	devices := map[string]bool{"/dev/ttys003": true, "/dev/pts/4": true}
	p := NewProber(
		WithProcessCheck(func(pid int) bool { return pid == 100 }),
		WithDeviceCheck(func(path string) bool { return devices[path] }),
	)

	tests := []struct {
		name string
		rec  session.Record
		want bool
	}{
		{"zero pid", session.Record{PID: 0}, false},
		{"negative pid", session.Record{PID: -1}, false},
		{"missing process", session.Record{PID: 101}, false},
		{"live process no tty", session.Record{PID: 100}, true},
		{"live process with attached tty", session.Record{PID: 100, TerminalID: "ttys003"}, true},
		{"live process with pts tty", session.Record{PID: 100, TerminalID: "pts/4"}, true},
		{"live process with detached tty", session.Record{PID: 100, TerminalID: "ttys009"}, false},
		{"invalid tty skips device check", session.Record{PID: 100, TerminalID: "??"}, true},
		{"malformed tty skips device check", session.Record{PID: 100, TerminalID: "../x"}, true},
		{"missing process with attached tty", session.Record{PID: 101, TerminalID: "ttys003"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.IsAlive(tt.rec); got != tt.want {
				t.Errorf("IsAlive(%+v) = %v, want %v", tt.rec, got, tt.want)
			}
		})
	}
}

func TestProber_DeviceCheckOnlyForValidTerminal(t *testing.T) {
	checked := 0
	p := NewProber(
		WithProcessCheck(func(int) bool { return true }),
		WithDeviceCheck(func(string) bool { checked++; return true }),
	)

	p.IsAlive(session.Record{PID: 1})
	p.IsAlive(session.Record{PID: 1, TerminalID: "??"})
	if checked != 0 {
		t.Errorf("device checked %d times for records without a valid tty, want 0", checked)
	}

	p.IsAlive(session.Record{PID: 1, TerminalID: "tty1"})
	if checked != 1 {
		t.Errorf("device checked %d times, want 1", checked)
	}
}

func TestProcessExists_Self(t *testing.T) {
	if !ProcessExists(os.Getpid()) {
		t.Error("ProcessExists(self) = false, want true")
	}
	if ProcessExists(0) {
		t.Error("ProcessExists(0) = true, want false")
	}
	if ProcessExists(-5) {
		t.Error("ProcessExists(-5) = true, want false")
	}
}

func TestNewProber_RealSelf(t *testing.T) {
	p := NewProber()
	if !p.IsAlive(session.Record{PID: os.Getpid()}) {
		t.Error("IsAlive(self without tty) = false, want true")
	}
}
