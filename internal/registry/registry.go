// Package registry owns the live session set. It reloads descriptors from
// disk, removes sessions whose process exited or whose terminal closed, and
// keeps one exit subscription per live session.
//
// All mutations run on a single goroutine (Run) that drains a task queue.
// Directory changes, exit notifications, sweep ticks and wake signals post
// tasks onto that queue. Readers use an immutable snapshot that is swapped
// after every mutation.
package registry

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/brianly1003/glance/internal/adapters/store"
	"github.com/brianly1003/glance/internal/domain"
	"github.com/brianly1003/glance/internal/domain/events"
	"github.com/brianly1003/glance/internal/domain/ports"
	"github.com/brianly1003/glance/internal/session"
	"github.com/brianly1003/glance/internal/sync"
	"github.com/rs/zerolog/log"
)

// DefaultExpiry is the age after which a descriptor is discarded regardless
// of liveness.
const DefaultExpiry = 1800 * time.Second

const taskQueueSize = 64

// Options configures a Registry.
type Options struct {
	// Dir is the sessions directory. Required.
	Dir *store.Dir

	// Prober decides liveness. Required.
	Prober ports.Prober

	// Statuses is the accepted status set. Defaults to all known statuses.
	Statuses *session.StatusSet

	// Expiry is the maximum descriptor age. Defaults to DefaultExpiry.
	Expiry time.Duration

	// Exits delivers process exit notifications. Nil disables exit
	// monitoring; the sweeper still catches dead sessions.
	Exits ports.ExitWatcher

	// Hub receives change events. Optional.
	Hub ports.Publisher

	// Focuser handles Focus requests. Optional.
	Focuser ports.Focuser

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// subscription is an active exit watch for one live session.
type subscription struct {
	pid    int
	cancel func()
}

// Registry is the session registry.
type Registry struct {
	dir      *store.Dir
	prober   ports.Prober
	statuses *session.StatusSet
	expiry   time.Duration
	exits    ports.ExitWatcher
	hub      ports.Publisher
	focuser  ports.Focuser
	now      func() time.Time

	// loopMu serializes every mutation, whether run by the loop
	// goroutine or inline when the loop is not running.
	loopMu sync.Mutex
	live   []session.Record
	subs   map[string]*subscription

	// snapMu guards the published snapshot.
	snapMu   sync.RWMutex
	snapshot []session.Record

	stateMu sync.Mutex
	running bool
	tasks   chan func()
	stopped chan struct{}
}

// New creates a Registry.
func New(opts Options) *Registry {
	r := &Registry{
		dir:      opts.Dir,
		prober:   opts.Prober,
		statuses: opts.Statuses,
		expiry:   opts.Expiry,
		exits:    opts.Exits,
		hub:      opts.Hub,
		focuser:  opts.Focuser,
		now:      opts.Now,
		subs:     make(map[string]*subscription),
		tasks:    make(chan func(), taskQueueSize),
		stopped:  make(chan struct{}),
	}
	if r.statuses == nil {
		r.statuses = session.DefaultStatusSet()
	}
	if r.expiry <= 0 {
		r.expiry = DefaultExpiry
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Run performs an initial reload and then processes queued work until ctx
// is cancelled. On return every exit subscription has been cancelled.
func (r *Registry) Run(ctx context.Context) error {
	r.stateMu.Lock()
	if r.running {
		r.stateMu.Unlock()
		return domain.ErrRegistryRunning
	}
	select {
	case <-r.stopped:
		r.stateMu.Unlock()
		return domain.ErrRegistryStopped
	default:
	}
	r.running = true
	r.stateMu.Unlock()

	log.Info().Str("dir", r.dir.Path()).Dur("expiry", r.expiry).Msg("session registry started")

	r.runTask(func() { r.reload(events.ReasonStartup) })

	for {
		select {
		case <-ctx.Done():
			r.shutdown()
			return nil
		case task := <-r.tasks:
			r.runTask(task)
		}
	}
}

func (r *Registry) runTask(task func()) {
	r.loopMu.Lock()
	defer r.loopMu.Unlock()
	task()
}

func (r *Registry) shutdown() {
	r.stateMu.Lock()
	r.running = false
	close(r.stopped)
	r.stateMu.Unlock()

	r.loopMu.Lock()
	r.cancelAll()
	r.loopMu.Unlock()

	log.Info().Msg("session registry stopped")
}

// Close cancels all exit subscriptions. It is only needed when the registry
// was used without Run.
func (r *Registry) Close() {
	r.loopMu.Lock()
	defer r.loopMu.Unlock()
	r.cancelAll()
}

// post queues task for the loop without waiting. It returns false when the
// loop is not running.
func (r *Registry) post(task func()) bool {
	r.stateMu.Lock()
	running := r.running
	r.stateMu.Unlock()
	if !running {
		return false
	}

	select {
	case r.tasks <- task:
		return true
	case <-r.stopped:
		return false
	}
}

// exec runs task on the loop and waits for it. When the loop is not running
// the task runs inline.
func (r *Registry) exec(ctx context.Context, task func()) error {
	r.stateMu.Lock()
	running := r.running
	r.stateMu.Unlock()

	if !running {
		r.runTask(task)
		return nil
	}

	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		task()
	}

	select {
	case r.tasks <- wrapped:
	case <-r.stopped:
		return domain.ErrRegistryStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-r.stopped:
		return domain.ErrRegistryStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reload rebuilds the live set from disk and waits for completion.
func (r *Registry) Reload(ctx context.Context) error {
	return r.exec(ctx, func() { r.reload(events.ReasonReload) })
}

// RequestReload queues a reload without waiting. reason is attached to the
// resulting change event.
func (r *Registry) RequestReload(reason string) {
	if !r.post(func() { r.reload(reason) }) {
		log.Debug().Str("reason", reason).Msg("reload request dropped: registry not running")
	}
}

// Sweep re-probes every live session and waits for completion.
func (r *Registry) Sweep(ctx context.Context) error {
	return r.exec(ctx, r.sweep)
}

// RequestSweep queues a sweep without waiting.
func (r *Registry) RequestSweep() {
	r.post(r.sweep)
}

// Remove removes a session as if its process had exited.
func (r *Registry) Remove(ctx context.Context, id string) error {
	return r.exec(ctx, func() { r.removeSession(id, events.ReasonExit) })
}

// Sessions returns a copy of the live set in display order.
func (r *Registry) Sessions() []session.Record {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	return slices.Clone(r.snapshot)
}

// Lookup returns the live record with the given id.
func (r *Registry) Lookup(id string) (session.Record, bool) {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	for _, rec := range r.snapshot {
		if rec.ID == id {
			return rec, true
		}
	}
	return session.Record{}, false
}

// Counts returns the status aggregate of the live set.
func (r *Registry) Counts() []session.StatusCount {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	return session.Aggregate(r.snapshot, r.statuses.Priority())
}

// Headline returns the status for a compact indicator.
func (r *Registry) Headline() session.Status {
	return session.Headline(r.Counts())
}

// Statuses returns the accepted status set.
func (r *Registry) Statuses() *session.StatusSet {
	return r.statuses
}

// Focus brings the terminal of session id to the foreground.
func (r *Registry) Focus(ctx context.Context, id string) error {
	rec, ok := r.Lookup(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if r.focuser == nil {
		return domain.ErrFocusUnavailable
	}
	if !rec.HasTerminal() {
		return domain.NewFocusError(r.focuser.Backend(), rec.TerminalID, domain.ErrInvalidTerminal)
	}
	return r.focuser.FocusTerminal(ctx, rec.TerminalID)
}

// reload implements the full reload: list, decode, expire, probe, replace,
// reconcile. Must run under loopMu.
func (r *Registry) reload(reason string) {
	ids, err := r.dir.List()
	if err != nil {
		log.Error().Err(err).Str("dir", r.dir.Path()).Msg("failed to list session directory")
		return
	}

	now := r.now()
	kept := make([]session.Record, 0, len(ids))
	discarded := make(map[string]bool)

	for _, id := range ids {
		data, err := r.dir.ReadDescriptor(id)
		if err != nil {
			log.Debug().Err(err).Str("session_id", id).Msg("descriptor unreadable")
			continue
		}

		rec, err := session.Decode(id, data, r.dir.ReadContext(id), r.statuses)
		if err != nil {
			r.reportSkipped(id, err)
			continue
		}

		if rec.Expired(now, r.expiry) {
			r.discard(rec, events.ReasonExpired)
			discarded[id] = true
			continue
		}
		if !r.prober.IsAlive(rec) {
			r.discard(rec, events.ReasonDead)
			discarded[id] = true
			continue
		}
		kept = append(kept, rec)
	}

	session.SortRecords(kept)

	previous := r.live
	r.live = kept

	for _, old := range previous {
		if !containsID(kept, old.ID) && !discarded[old.ID] {
			r.publishRemoved(old, events.ReasonVanish)
		}
	}

	r.reconcile()
	r.publish(reason)

	log.Debug().
		Str("reason", reason).
		Int("descriptors", len(ids)).
		Int("live", len(kept)).
		Msg("sessions reloaded")
}

// discard deletes the files of a record rejected during reload.
func (r *Registry) discard(rec session.Record, reason string) {
	if err := r.dir.Remove(rec.ID); err != nil {
		log.Debug().Err(err).Str("session_id", rec.ID).Msg("failed to delete session files")
	}
	log.Info().
		Str("session_id", rec.ID).
		Str("name", rec.DisplayName()).
		Int("pid", rec.PID).
		Str("reason", reason).
		Msg("session discarded")

	r.publishRemoved(rec, reason)
}

// removeSession cancels the subscription for id, drops it from the live
// set and deletes its files. Must run under loopMu.
func (r *Registry) removeSession(id, reason string) {
	if r.evict(id, reason) {
		r.publish(reason)
	}
}

// evict performs the removal steps without publishing a snapshot. It
// reports whether the live set changed.
func (r *Registry) evict(id, reason string) bool {
	r.cancelSub(id)

	idx := slices.IndexFunc(r.live, func(rec session.Record) bool { return rec.ID == id })
	if idx < 0 {
		return false
	}
	rec := r.live[idx]
	r.live = slices.Delete(r.live, idx, idx+1)

	if err := r.dir.Remove(id); err != nil {
		log.Debug().Err(err).Str("session_id", id).Msg("failed to delete session files")
	}

	log.Info().
		Str("session_id", id).
		Str("name", rec.DisplayName()).
		Int("pid", rec.PID).
		Str("reason", reason).
		Msg("session removed")

	r.publishRemoved(rec, reason)
	return true
}

// sweep re-probes the live set in reverse order and removes dead sessions.
// Must run under loopMu.
func (r *Registry) sweep() {
	changed := false
	for i := len(r.live) - 1; i >= 0; i-- {
		rec := r.live[i]
		if !r.prober.IsAlive(rec) {
			if r.evict(rec.ID, events.ReasonSweep) {
				changed = true
			}
		}
	}
	if changed {
		r.publish(events.ReasonSweep)
	}
}

// reconcile makes the subscription map match the live set: new pids get a
// watch, vanished ids or changed pids lose theirs. Must run under loopMu.
func (r *Registry) reconcile() {
	for id, sub := range r.subs {
		idx := slices.IndexFunc(r.live, func(rec session.Record) bool { return rec.ID == id })
		if idx < 0 || r.live[idx].PID != sub.pid {
			sub.cancel()
			delete(r.subs, id)
		}
	}

	if r.exits == nil {
		return
	}

	for _, rec := range r.live {
		if rec.PID <= 0 {
			continue
		}
		if _, ok := r.subs[rec.ID]; ok {
			continue
		}
		r.subscribe(rec.ID, rec.PID)
	}
}

// subscribe starts an exit watch for id. Must run under loopMu.
func (r *Registry) subscribe(id string, pid int) {
	cancel, err := r.exits.Watch(pid, func() { r.onExit(id, pid) })
	if err != nil {
		log.Warn().Err(err).Str("session_id", id).Int("pid", pid).Msg("failed to watch process exit")
		return
	}
	r.subs[id] = &subscription{pid: pid, cancel: cancel}
}

// onExit is called from an exit watcher goroutine.
func (r *Registry) onExit(id string, pid int) {
	log.Debug().Str("session_id", id).Int("pid", pid).Msg("process exit observed")

	task := func() {
		sub, ok := r.subs[id]
		if !ok || sub.pid != pid {
			return
		}
		r.removeSession(id, events.ReasonExit)
	}
	if r.post(task) {
		return
	}

	// Without a running loop, apply the removal directly.
	r.runTask(task)
}

func (r *Registry) cancelSub(id string) {
	if sub, ok := r.subs[id]; ok {
		sub.cancel()
		delete(r.subs, id)
	}
}

func (r *Registry) cancelAll() {
	for id, sub := range r.subs {
		sub.cancel()
		delete(r.subs, id)
	}
}

// subscribedIDs returns the ids with an active exit watch, sorted.
func (r *Registry) subscribedIDs() []string {
	r.loopMu.Lock()
	defer r.loopMu.Unlock()

	ids := make([]string, 0, len(r.subs))
	for id := range r.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// publish swaps the snapshot and emits a sessions_changed event.
func (r *Registry) publish(reason string) {
	snap := slices.Clone(r.live)

	r.snapMu.Lock()
	r.snapshot = snap
	r.snapMu.Unlock()

	if r.hub != nil {
		counts := session.Aggregate(snap, r.statuses.Priority())
		r.hub.Publish(events.NewSessionsChangedEvent(reason, slices.Clone(snap), counts))
	}
}

func (r *Registry) publishRemoved(rec session.Record, reason string) {
	if r.hub != nil {
		r.hub.Publish(events.NewSessionRemovedEvent(rec, reason))
	}
}

func (r *Registry) reportSkipped(id string, err error) {
	var pe *domain.ParseError
	if !errors.As(err, &pe) {
		log.Warn().Err(err).Str("session_id", id).Msg("descriptor skipped")
		return
	}

	log.Warn().
		Str("session_id", id).
		Str("kind", string(pe.Kind)).
		Str("field", pe.Field).
		Err(pe.Err).
		Msg("descriptor skipped")

	if r.hub != nil {
		r.hub.Publish(events.NewDescriptorSkippedEvent(id, string(pe.Kind), pe.Field, pe.Error()))
	}
}

func containsID(recs []session.Record, id string) bool {
	return slices.ContainsFunc(recs, func(rec session.Record) bool { return rec.ID == id })
}
