package ports

import (
	"context"

	"github.com/brianly1003/glance/internal/session"
)

// DirectoryWatcher observes the descriptor directory and reports debounced
// change bursts.
type DirectoryWatcher interface {
	// Start begins watching the configured directory.
	Start(ctx context.Context) error

	// Stop terminates watching and cancels any pending debounce timer.
	Stop() error

	// IsRunning returns true if the watcher is active.
	IsRunning() bool
}

// Prober decides whether a session record still refers to a live process
// attached to an existing terminal.
type Prober interface {
	IsAlive(rec session.Record) bool
}

// ExitWatcher delivers a one-shot notification when a process exits.
type ExitWatcher interface {
	// Watch arranges for onExit to be called once pid has exited. The
	// returned cancel function is idempotent.
	Watch(pid int, onExit func()) (cancel func(), err error)

	// Backend names the mechanism in use (pidfd, kqueue, poll).
	Backend() string
}

// WakeSource reports when the machine resumes from sleep.
type WakeSource interface {
	// Name identifies the source in logs.
	Name() string

	// Run blocks until ctx is cancelled, calling onWake for every resume.
	Run(ctx context.Context, onWake func()) error
}

// Focuser brings the terminal hosting a session to the foreground.
type Focuser interface {
	// FocusTerminal focuses the terminal whose device is /dev/<tty>.
	FocusTerminal(ctx context.Context, tty string) error

	// Backend names the focus mechanism in use.
	Backend() string
}
