// Package live brings the terminal that hosts a session to the foreground.
package live

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brianly1003/glance/internal/domain"
	"github.com/brianly1003/glance/internal/domain/ports"
	"github.com/brianly1003/glance/internal/session"
	"github.com/rs/zerolog/log"
)

// DefaultMinInterval is the minimum time between two focus requests.
const DefaultMinInterval = 500 * time.Millisecond

// Platform is one way of focusing a terminal.
type Platform interface {
	// Name identifies the backend (iterm2, tmux, none).
	Name() string

	// Available reports whether the backend can be used right now.
	Available(ctx context.Context) bool

	// Focus selects the terminal attached to /dev/<tty>.
	Focus(ctx context.Context, tty string) error
}

// Focuser validates and rate-limits focus requests before handing them to a
// Platform.
type Focuser struct {
	platform    Platform
	minInterval time.Duration
	now         func() time.Time

	mu        sync.Mutex
	lastFocus time.Time
}

// NewFocuser creates a focuser on top of platform.
func NewFocuser(platform Platform, minInterval time.Duration) *Focuser {
	if platform == nil {
		platform = NonePlatform{}
	}
	if minInterval < 0 {
		minInterval = 0
	}
	log.Debug().Str("backend", platform.Name()).Dur("min_interval", minInterval).Msg("focuser initialized")
	return &Focuser{
		platform:    platform,
		minInterval: minInterval,
		now:         time.Now,
	}
}

// Backend implements ports.Focuser.
func (f *Focuser) Backend() string {
	return f.platform.Name()
}

// FocusTerminal implements ports.Focuser. Invalid terminal ids are rejected
// without touching the platform.
func (f *Focuser) FocusTerminal(ctx context.Context, tty string) error {
	name := f.platform.Name()

	if !session.ValidTerminalID(tty) {
		log.Debug().Str("tty", tty).Msg("focus ignored: invalid terminal id")
		return domain.NewFocusError(name, tty, domain.ErrInvalidTerminal)
	}

	if err := f.checkRateLimit(); err != nil {
		log.Debug().Str("tty", tty).Err(err).Msg("focus rate limited")
		return domain.NewFocusError(name, tty, err)
	}

	log.Info().Str("tty", tty).Str("backend", name).Msg("focusing terminal")

	if err := f.platform.Focus(ctx, tty); err != nil {
		log.Warn().Err(err).Str("tty", tty).Str("backend", name).Msg("focus failed")
		return domain.NewFocusError(name, tty, err)
	}
	return nil
}

// checkRateLimit ensures we don't focus too frequently.
func (f *Focuser) checkRateLimit() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	if !f.lastFocus.IsZero() && now.Sub(f.lastFocus) < f.minInterval {
		return fmt.Errorf("%w: wait %v", domain.ErrFocusRateLimited, f.minInterval-now.Sub(f.lastFocus))
	}
	f.lastFocus = now
	return nil
}

var _ ports.Focuser = (*Focuser)(nil)

// NonePlatform is used when no focus backend is available.
type NonePlatform struct{}

func (NonePlatform) Name() string {
	return "none"
}

func (NonePlatform) Available(context.Context) bool {
	return true
}

func (NonePlatform) Focus(_ context.Context, tty string) error {
	log.Info().Str("tty", tty).Msg("no focus backend available")
	return domain.ErrFocusUnavailable
}
