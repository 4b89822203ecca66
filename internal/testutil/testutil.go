// Package testutil provides fakes and fixtures shared by glance tests.
package testutil

import (
	"sync"

	"github.com/brianly1003/glance/internal/domain"
	"github.com/brianly1003/glance/internal/domain/events"
	"github.com/brianly1003/glance/internal/domain/ports"
)

// MockSubscriber records every event it is sent.
type MockSubscriber struct {
	id      string
	mu      sync.Mutex
	events  []events.Event
	sendErr error
	closed  bool
	done    chan struct{}
}

// NewMockSubscriber creates a recording subscriber.
func NewMockSubscriber(id string) *MockSubscriber {
	return &MockSubscriber{id: id, done: make(chan struct{})}
}

func (m *MockSubscriber) ID() string { return m.id }

// Send records e, or returns the error set with SetSendError.
func (m *MockSubscriber) Send(e events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.closed:
		return domain.ErrSubscriberClosed
	case m.sendErr != nil:
		return m.sendErr
	}
	m.events = append(m.events, e)
	return nil
}

func (m *MockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

func (m *MockSubscriber) Done() <-chan struct{} { return m.done }

// Events returns a copy of the recorded events.
func (m *MockSubscriber) Events() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.Event(nil), m.events...)
}

// EventCount returns the number of recorded events.
func (m *MockSubscriber) EventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// IsClosed reports whether Close was called.
func (m *MockSubscriber) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// SetSendError makes every later Send fail with err.
func (m *MockSubscriber) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

var _ ports.Subscriber = (*MockSubscriber)(nil)

// RecordingHub is a synchronous ports.EventHub that records published
// events. Subscribers receive events on the publishing goroutine.
type RecordingHub struct {
	mu          sync.Mutex
	events      []events.Event
	latest      events.Event
	subscribers []ports.Subscriber
}

// NewRecordingHub creates an empty hub.
func NewRecordingHub() *RecordingHub {
	return &RecordingHub{}
}

// Publish records e and forwards it to subscribers.
func (h *RecordingHub) Publish(e events.Event) {
	h.mu.Lock()
	h.events = append(h.events, e)
	if e.Type() == events.EventTypeSessionsChanged {
		h.latest = e
	}
	subs := append([]ports.Subscriber(nil), h.subscribers...)
	h.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Send(e)
	}
}

// Subscribe adds sub and replays the latest sessions_changed event.
func (h *RecordingHub) Subscribe(sub ports.Subscriber) {
	h.mu.Lock()
	h.subscribers = append(h.subscribers, sub)
	latest := h.latest
	h.mu.Unlock()

	if latest != nil {
		_ = sub.Send(latest)
	}
}

// Unsubscribe removes and closes the subscriber with id.
func (h *RecordingHub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, sub := range h.subscribers {
		if sub.ID() == id {
			_ = sub.Close()
			h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
			return
		}
	}
}

// Latest returns the last sessions_changed event.
func (h *RecordingHub) Latest() events.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// PublishedEvents returns every recorded event in publish order.
func (h *RecordingHub) PublishedEvents() []events.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]events.Event(nil), h.events...)
}

// EventsOfType returns the recorded events of type t, in publish order.
func (h *RecordingHub) EventsOfType(t events.EventType) []events.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []events.Event
	for _, e := range h.events {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

// ClearEvents forgets recorded events. The latest snapshot is kept.
func (h *RecordingHub) ClearEvents() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = nil
}

var _ ports.EventHub = (*RecordingHub)(nil)
