// Package liveness decides whether a session record still refers to a live
// process attached to an existing terminal device.
package liveness

import (
	"os"

	"github.com/brianly1003/glance/internal/session"
)

// Prober checks process existence and terminal attachment. The zero value
// is not usable; use NewProber.
type Prober struct {
	// processExists reports whether pid names a process, including
	// processes owned by other users.
	processExists func(pid int) bool

	// deviceExists reports whether a device node path exists.
	deviceExists func(path string) bool
}

// Option configures a Prober.
type Option func(*Prober)

// WithProcessCheck replaces the process existence check.
func WithProcessCheck(fn func(pid int) bool) Option {
	return func(p *Prober) {
		p.processExists = fn
	}
}

// WithDeviceCheck replaces the terminal device existence check.
func WithDeviceCheck(fn func(path string) bool) Option {
	return func(p *Prober) {
		p.deviceExists = fn
	}
}

// NewProber creates a Prober using the platform's process probe.
func NewProber(opts ...Option) *Prober {
	p := &Prober{
		processExists: ProcessExists,
		deviceExists:  deviceExists,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsAlive reports whether rec still refers to a live, attached worker.
//
// A pid of zero or less is dead. Otherwise the process must exist. When the
// record carries a valid terminal id, its /dev node must also exist; a
// closed terminal window removes the node even if the process lingers.
// Records without a valid terminal id are judged on the process alone.
func (p *Prober) IsAlive(rec session.Record) bool {
	if rec.PID <= 0 {
		return false
	}
	if !p.processExists(rec.PID) {
		return false
	}
	if rec.HasTerminal() {
		return p.deviceExists(session.TerminalDevicePath(rec.TerminalID))
	}
	return true
}

func deviceExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
