// Package wake detects when the machine resumes from sleep. Process exit
// notifications may be lost across a suspend, so every wake triggers a full
// reload of the session directory.
package wake

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/brianly1003/glance/internal/domain"
	"github.com/brianly1003/glance/internal/domain/ports"
	"github.com/rs/zerolog/log"
)

// Options selects and tunes the wake sources.
type Options struct {
	// CheckInterval is the clock jump sampling interval.
	CheckInterval time.Duration

	// JumpThreshold is the extra wall-clock gap treated as a sleep.
	JumpThreshold time.Duration

	// Signals enables the SIGUSR1 source on Unix.
	Signals bool
}

// Sources returns the wake sources usable on this platform. The clock jump
// detector is always included.
func Sources(opts Options) []ports.WakeSource {
	sources := []ports.WakeSource{NewClockJump(opts.CheckInterval, opts.JumpThreshold)}
	if runtime.GOOS == "linux" {
		sources = append(sources, NewLogin1())
	}
	if opts.Signals {
		if s := newSignalSource(); s != nil {
			sources = append(sources, s)
		}
	}
	return sources
}

// RunAll runs every source until ctx is cancelled. A source that fails is
// logged and dropped; the others keep running.
func RunAll(ctx context.Context, sources []ports.WakeSource, onWake func(source string)) {
	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(src ports.WakeSource) {
			defer wg.Done()

			name := src.Name()
			err := src.Run(ctx, func() {
				log.Info().Str("source", name).Msg("system wake detected")
				onWake(name)
			})
			switch {
			case err == nil, errors.Is(err, context.Canceled):
			case errors.Is(err, domain.ErrWakeUnsupported):
				log.Debug().Err(err).Str("source", name).Msg("wake source unavailable")
			default:
				log.Warn().Err(err).Str("source", name).Msg("wake source stopped")
			}
		}(src)
	}
	wg.Wait()
}
