package hub

import (
	"github.com/brianly1003/glance/internal/domain"
	"github.com/brianly1003/glance/internal/domain/events"
	"github.com/brianly1003/glance/internal/sync"
)

// ChannelSubscriber delivers events on a buffered channel. When the reader
// falls behind, the oldest queued event is discarded to make room: each
// sessions_changed carries the whole live set, so only superseded states are
// lost.
type ChannelSubscriber struct {
	id   string
	send chan events.Event
	done chan struct{}

	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewChannelSubscriber creates a channel subscriber. bufferSize is at least 1.
func NewChannelSubscriber(id string, bufferSize int) *ChannelSubscriber {
	return &ChannelSubscriber{
		id:   id,
		send: make(chan events.Event, max(bufferSize, 1)),
		done: make(chan struct{}),
	}
}

// ID returns the subscriber id.
func (s *ChannelSubscriber) ID() string {
	return s.id
}

// Send queues event, evicting the oldest queued event when full.
func (s *ChannelSubscriber) Send(event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSubscriberClosed
	}

	for {
		select {
		case s.send <- event:
			return nil
		default:
		}
		select {
		case <-s.send:
			s.dropped++
		default:
		}
	}
}

// Close closes the event channel. Queued events stay readable.
func (s *ChannelSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	close(s.send)
	return nil
}

// Done is closed by Close.
func (s *ChannelSubscriber) Done() <-chan struct{} {
	return s.done
}

// Events returns the receive side of the queue. It is closed by Close.
func (s *ChannelSubscriber) Events() <-chan events.Event {
	return s.send
}

// Dropped returns how many queued events were evicted by newer ones.
func (s *ChannelSubscriber) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// FuncSubscriber hands every event to a callback on the hub goroutine. The
// headless run command logs registry changes through it.
type FuncSubscriber struct {
	id   string
	fn   func(event events.Event)
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewFuncSubscriber creates a callback subscriber.
func NewFuncSubscriber(id string, fn func(event events.Event)) *FuncSubscriber {
	return &FuncSubscriber{
		id:   id,
		fn:   fn,
		done: make(chan struct{}),
	}
}

// ID returns the subscriber id.
func (s *FuncSubscriber) ID() string {
	return s.id
}

// Send invokes the callback.
func (s *FuncSubscriber) Send(event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSubscriberClosed
	}
	if s.fn != nil {
		s.fn(event)
	}
	return nil
}

// Close stops further callbacks.
func (s *FuncSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}

// Done is closed by Close.
func (s *FuncSubscriber) Done() <-chan struct{} {
	return s.done
}
