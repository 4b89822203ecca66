package hub

import (
	"github.com/brianly1003/glance/internal/domain/events"
	"github.com/brianly1003/glance/internal/domain/ports"
	"github.com/brianly1003/glance/internal/sync"
)

// FilteredSubscriber wraps a subscriber and forwards only selected event
// types, optionally narrowed to one session. With no types selected every
// event type passes.
type FilteredSubscriber struct {
	inner     ports.Subscriber
	types     map[events.EventType]bool
	sessionID string
	mu        sync.RWMutex
}

// NewFilteredSubscriber creates a new filtered subscriber wrapping the given
// subscriber, forwarding the listed event types.
func NewFilteredSubscriber(inner ports.Subscriber, types ...events.EventType) *FilteredSubscriber {
	f := &FilteredSubscriber{
		inner: inner,
		types: make(map[events.EventType]bool, len(types)),
	}
	for _, t := range types {
		f.types[t] = true
	}
	return f
}

// ID returns the subscriber's unique identifier.
func (f *FilteredSubscriber) ID() string {
	return f.inner.ID()
}

// Send sends an event to the subscriber if it passes the filter.
func (f *FilteredSubscriber) Send(event events.Event) error {
	if !f.shouldForward(event) {
		return nil
	}
	return f.inner.Send(event)
}

// Close closes the subscriber.
func (f *FilteredSubscriber) Close() error {
	return f.inner.Close()
}

// Done returns a channel that's closed when the subscriber is done.
func (f *FilteredSubscriber) Done() <-chan struct{} {
	return f.inner.Done()
}

// AddType adds an event type to the filter.
func (f *FilteredSubscriber) AddType(t events.EventType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types[t] = true
}

// RemoveType removes an event type from the filter.
func (f *FilteredSubscriber) RemoveType(t events.EventType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.types, t)
}

// FocusSession narrows session-scoped events to one session id. Events
// without a session id are unaffected. An empty id clears the focus.
func (f *FilteredSubscriber) FocusSession(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessionID = sessionID
}

// FocusedSession returns the session id set with FocusSession.
func (f *FilteredSubscriber) FocusedSession() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sessionID
}

// IsFiltering returns true if the subscriber is filtering by type.
func (f *FilteredSubscriber) IsFiltering() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.types) > 0
}

// shouldForward determines if an event should be forwarded to the subscriber.
func (f *FilteredSubscriber) shouldForward(event events.Event) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.types) > 0 && !f.types[event.Type()] {
		return false
	}

	if f.sessionID == "" {
		return true
	}
	sid := event.GetSessionID()
	return sid == "" || sid == f.sessionID
}
