// Package app orchestrates all components of glance.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/brianly1003/glance/internal/adapters/live"
	"github.com/brianly1003/glance/internal/adapters/liveness"
	"github.com/brianly1003/glance/internal/adapters/procwatch"
	"github.com/brianly1003/glance/internal/adapters/store"
	"github.com/brianly1003/glance/internal/adapters/wake"
	"github.com/brianly1003/glance/internal/adapters/watcher"
	"github.com/brianly1003/glance/internal/config"
	"github.com/brianly1003/glance/internal/domain"
	"github.com/brianly1003/glance/internal/domain/events"
	"github.com/brianly1003/glance/internal/domain/ports"
	"github.com/brianly1003/glance/internal/hub"
	"github.com/brianly1003/glance/internal/registry"
	"github.com/brianly1003/glance/internal/session"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const focusDetectTimeout = 2 * time.Second

// App is the main application struct that orchestrates all components.
type App struct {
	cfg     *config.Config
	version string

	// Core components
	hub         *hub.Hub
	store       *store.Dir
	registry    *registry.Registry
	dirWatcher  *watcher.Watcher
	sweeper     *registry.Sweeper
	exits       ports.ExitWatcher
	focuser     *live.Focuser
	wakeSources []ports.WakeSource
	lock        *flock.Flock

	// Instance info
	instanceID string
	startTime  time.Time

	// Lifecycle
	mu      sync.RWMutex
	running bool
	stopped chan struct{}
}

// New creates a new App instance. Nothing is started until Start.
func New(cfg *config.Config, version string) (*App, error) {
	statuses, err := session.NewStatusSet(cfg.Sessions.Statuses)
	if err != nil {
		return nil, fmt.Errorf("invalid status set: %w", err)
	}

	a := &App{
		cfg:        cfg,
		version:    version,
		hub:        hub.New(),
		store:      store.NewDir(cfg.Sessions.Dir, cfg.Sessions.DescriptorExt, cfg.Sessions.ContextExt),
		instanceID: uuid.New().String(),
		stopped:    make(chan struct{}),
	}

	if cfg.ExitWatch.Enabled {
		a.exits = NewExitWatcher(cfg.ExitWatch)
	}

	a.focuser = NewFocuser(context.Background(), cfg.Focus)

	a.registry = registry.New(registry.Options{
		Dir:      a.store,
		Prober:   liveness.NewProber(),
		Statuses: statuses,
		Expiry:   cfg.Sessions.Expiry,
		Exits:    a.exits,
		Hub:      a.hub,
		Focuser:  a.focuser,
	})

	if cfg.Watcher.Enabled {
		a.dirWatcher = watcher.NewWatcher(
			cfg.Sessions.Dir,
			cfg.Watcher.Debounce(),
			cfg.Watcher.IgnorePatterns,
			func() { a.registry.RequestReload(events.ReasonReload) },
		)
	}

	a.sweeper = registry.NewRegistrySweeper(a.registry, cfg.Health.Interval, cfg.Health.InitialDelay)

	if cfg.Wake.Enabled {
		a.wakeSources = wake.Sources(wake.Options{
			CheckInterval: cfg.Wake.CheckInterval,
			JumpThreshold: cfg.Wake.ClockJumpThreshold,
			Signals:       cfg.Wake.Signals,
		})
	}

	if cfg.Sessions.LockFile != "" {
		a.lock = flock.New(cfg.Sessions.LockFile)
	}

	return a, nil
}

// NewExitWatcher builds the exit watcher selected by cfg.
func NewExitWatcher(cfg config.ExitWatchConfig) ports.ExitWatcher {
	if cfg.Mode == "poll" {
		return procwatch.NewPoller(cfg.PollInterval)
	}
	return procwatch.New(cfg.PollInterval)
}

// NewFocuser builds the terminal focuser selected by cfg. An unknown
// backend falls back to none.
func NewFocuser(ctx context.Context, cfg config.FocusConfig) *live.Focuser {
	ctx, cancel := context.WithTimeout(ctx, focusDetectTimeout)
	defer cancel()

	platform, err := live.NewDetector(nil).Detect(ctx, cfg.Terminal)
	if err != nil {
		log.Warn().Err(err).Str("terminal", cfg.Terminal).Msg("focus backend unavailable")
		platform = live.NonePlatform{}
	}
	return live.NewFocuser(platform, cfg.MinInterval)
}

// Start starts the application and blocks until context is cancelled.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("application is already running")
	}
	select {
	case <-a.stopped:
		a.mu.Unlock()
		return fmt.Errorf("application has already stopped")
	default:
	}
	a.running = true
	a.startTime = time.Now()
	a.mu.Unlock()

	if err := a.acquireLock(); err != nil {
		a.setStopped()
		return err
	}

	if err := a.store.Ensure(); err != nil {
		a.releaseLock()
		a.setStopped()
		return err
	}

	// Start event hub
	if err := a.hub.Start(); err != nil {
		a.releaseLock()
		a.setStopped()
		return fmt.Errorf("failed to start event hub: %w", err)
	}
	a.hub.Subscribe(hub.NewFuncSubscriber("event-logger", logEvent))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.registry.Run(runCtx); err != nil {
			log.Error().Err(err).Msg("session registry failed")
		}
	}()

	if a.dirWatcher != nil {
		if err := a.dirWatcher.Start(runCtx); err != nil {
			log.Warn().Err(err).Str("dir", a.store.Path()).Msg("directory watcher failed to start; relying on sweeps")
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.sweeper.Run(runCtx)
	}()

	if len(a.wakeSources) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wake.RunAll(runCtx, a.wakeSources, a.onWake)
		}()
	}

	log.Info().
		Str("instance_id", a.instanceID).
		Str("version", a.version).
		Str("dir", a.store.Path()).
		Str("exit_backend", a.ExitBackend()).
		Str("focus_backend", a.focuser.Backend()).
		Msg("glance started")

	<-ctx.Done()

	return a.shutdown(cancel, &wg)
}

// shutdown stops every component in reverse start order.
func (a *App) shutdown(cancel context.CancelFunc, wg *sync.WaitGroup) error {
	log.Info().Msg("shutting down...")

	if a.dirWatcher != nil {
		if err := a.dirWatcher.Stop(); err != nil {
			log.Debug().Err(err).Msg("error stopping directory watcher")
		}
	}

	cancel()
	wg.Wait()

	if err := a.hub.Stop(); err != nil {
		log.Error().Err(err).Msg("error stopping event hub")
	}

	a.releaseLock()
	a.setStopped()
	return nil
}

func (a *App) setStopped() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		a.running = false
		close(a.stopped)
	}
}

func (a *App) acquireLock() error {
	if a.lock == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(a.lock.Path()), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	locked, err := a.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", a.lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", domain.ErrInstanceLocked, a.lock.Path())
	}
	return nil
}

func (a *App) releaseLock() {
	if a.lock == nil {
		return
	}
	if err := a.lock.Unlock(); err != nil {
		log.Debug().Err(err).Msg("failed to release instance lock")
	}
}

// onWake publishes the wake and forces a full reload.
func (a *App) onWake(source string) {
	a.hub.Publish(events.NewSystemWakeEvent(source))
	a.registry.RequestReload(events.ReasonWake)
}

func logEvent(event events.Event) {
	be, ok := event.(*events.BaseEvent)
	if !ok {
		return
	}

	switch p := be.Payload.(type) {
	case events.SessionsChangedPayload:
		log.Info().
			Str("reason", p.Reason).
			Int("sessions", len(p.Sessions)).
			Str("headline", string(p.Headline)).
			Msg("sessions changed")
	default:
		log.Trace().
			Str("event_type", string(event.Type())).
			Time("timestamp", event.Timestamp()).
			Msg("event broadcast")
	}
}

// Registry returns the session registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Hub returns the event hub.
func (a *App) Hub() *hub.Hub {
	return a.hub
}

// Config returns the application configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// InstanceID returns the identifier generated for this process.
func (a *App) InstanceID() string {
	return a.instanceID
}

// ExitBackend names the exit watch mechanism, or "disabled".
func (a *App) ExitBackend() string {
	if a.exits == nil {
		return "disabled"
	}
	return a.exits.Backend()
}

// FocusBackend names the focus mechanism.
func (a *App) FocusBackend() string {
	return a.focuser.Backend()
}

// WakeSourceNames lists the configured wake sources.
func (a *App) WakeSourceNames() []string {
	names := make([]string, 0, len(a.wakeSources))
	for _, s := range a.wakeSources {
		names = append(names, s.Name())
	}
	return names
}

// IsRunning reports whether Start is active.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// Done is closed once Start has returned.
func (a *App) Done() <-chan struct{} {
	return a.stopped
}

// UptimeSeconds returns seconds since Start, or 0 when not running.
func (a *App) UptimeSeconds() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.running {
		return 0
	}
	return int64(time.Since(a.startTime).Seconds())
}

// Snapshot performs one reload outside the event loop and returns the
// resulting registry. Dead and expired descriptors are deleted, exactly as
// a running instance would.
func Snapshot(ctx context.Context, cfg *config.Config) (*registry.Registry, error) {
	statuses, err := session.NewStatusSet(cfg.Sessions.Statuses)
	if err != nil {
		return nil, fmt.Errorf("invalid status set: %w", err)
	}

	reg := registry.New(registry.Options{
		Dir:      store.NewDir(cfg.Sessions.Dir, cfg.Sessions.DescriptorExt, cfg.Sessions.ContextExt),
		Prober:   liveness.NewProber(),
		Statuses: statuses,
		Expiry:   cfg.Sessions.Expiry,
	})
	if err := reg.Reload(ctx); err != nil {
		return nil, err
	}
	return reg, nil
}
