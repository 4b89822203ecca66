// Package procwatch delivers one-shot notifications when a process exits.
//
// Linux uses pidfd_open, BSD and macOS use kqueue NOTE_EXIT, and every other
// platform (or a kernel without pidfd) falls back to polling the process
// table.
package procwatch

import (
	"context"
	"sync"
	"time"

	"github.com/brianly1003/glance/internal/domain/ports"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/process"
)

// Backend names.
const (
	BackendPidfd  = "pidfd"
	BackendKqueue = "kqueue"
	BackendPoll   = "poll"
)

// DefaultPollInterval is used by the polling backend when none is given.
const DefaultPollInterval = time.Second

// New returns the best exit watcher for this platform. pollInterval is used
// by the polling fallback.
func New(pollInterval time.Duration) ports.ExitWatcher {
	if w := newNative(); w != nil {
		return w
	}
	return NewPoller(pollInterval)
}

// Poller watches processes by polling the process table.
type Poller struct {
	interval time.Duration
	exists   func(ctx context.Context, pid int32) (bool, error)
}

// NewPoller creates a polling exit watcher.
func NewPoller(interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		interval: interval,
		exists:   process.PidExistsWithContext,
	}
}

// Backend implements ports.ExitWatcher.
func (p *Poller) Backend() string {
	return BackendPoll
}

// Watch implements ports.ExitWatcher.
func (p *Poller) Watch(pid int, onExit func()) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			alive, err := p.exists(ctx, int32(pid))
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				log.Debug().Err(err).Int("pid", pid).Msg("process poll failed")
			} else if !alive {
				onExit()
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return cancel, nil
}

// onceCloser guards the cancellation write against the watcher goroutine
// closing its descriptors after an exit.
type onceCloser struct {
	mu     sync.Mutex
	closed bool
}

// do runs fn unless the watch has already finished.
func (c *onceCloser) do(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	fn()
}

// finish marks the watch finished and runs cleanup.
func (c *onceCloser) finish(cleanup func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	cleanup()
}

var _ ports.ExitWatcher = (*Poller)(nil)
