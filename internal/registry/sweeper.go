package registry

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Health sweep defaults.
const (
	DefaultSweepInterval     = 500 * time.Millisecond
	DefaultSweepInitialDelay = time.Second
)

// Sweeper periodically asks the registry to re-probe every live session.
// It catches sessions that die without an exit notification, such as a
// terminal window closing while its process lingers.
type Sweeper struct {
	interval     time.Duration
	initialDelay time.Duration
	tick         func()
}

// NewSweeper creates a sweeper that calls tick every interval after
// initialDelay.
func NewSweeper(interval, initialDelay time.Duration, tick func()) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if initialDelay < 0 {
		initialDelay = 0
	}
	return &Sweeper{
		interval:     interval,
		initialDelay: initialDelay,
		tick:         tick,
	}
}

// NewRegistrySweeper creates a sweeper that queues sweeps on r.
func NewRegistrySweeper(r *Registry, interval, initialDelay time.Duration) *Sweeper {
	return NewSweeper(interval, initialDelay, r.RequestSweep)
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	delay := time.NewTimer(s.initialDelay)
	defer delay.Stop()

	select {
	case <-ctx.Done():
		return
	case <-delay.C:
	}

	log.Debug().Dur("interval", s.interval).Msg("health sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.tick()

		select {
		case <-ctx.Done():
			log.Debug().Msg("health sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}
