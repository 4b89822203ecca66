// Package hub fans registry events out to subscribers such as the TUI and
// the headless event logger.
package hub

import (
	"github.com/brianly1003/glance/internal/domain/events"
	"github.com/brianly1003/glance/internal/domain/ports"
	"github.com/brianly1003/glance/internal/sync"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const broadcastBuffer = 256

// Hub is the central event dispatcher. A single goroutine owns delivery, so
// every subscriber sees events in publish order.
type Hub struct {
	subscribers map[string]ports.Subscriber
	broadcast   chan events.Event
	register    chan ports.Subscriber
	unregister  chan string
	done        chan struct{}

	// mu guards subscribers, running and latest.
	mu      sync.RWMutex
	running bool

	// latest is the last sessions_changed event, replayed on Subscribe.
	latest events.Event
}

// New creates a new Hub.
func New() *Hub {
	return &Hub{
		subscribers: make(map[string]ports.Subscriber),
		broadcast:   make(chan events.Event, broadcastBuffer),
		register:    make(chan ports.Subscriber),
		unregister:  make(chan string),
		done:        make(chan struct{}),
	}
}

// Start begins the hub's delivery loop.
func (h *Hub) Start() error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = true
	h.mu.Unlock()

	log.Debug().Msg("event hub started")

	go h.run()
	return nil
}

// Stop ends delivery and closes every subscriber. Events still queued are
// discarded.
func (h *Hub) Stop() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = false
	subs := h.subscribers
	h.subscribers = make(map[string]ports.Subscriber)
	h.mu.Unlock()

	close(h.done)

	for _, sub := range subs {
		_ = sub.Close()
	}

	log.Debug().Int("subscribers", len(subs)).Msg("event hub stopped")
	return nil
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return

		case sub := <-h.register:
			h.add(sub)

		case id := <-h.unregister:
			h.remove(id)

		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) add(sub ports.Subscriber) {
	h.mu.Lock()
	h.subscribers[sub.ID()] = sub
	latest := h.latest
	h.mu.Unlock()

	log.Debug().Str("subscriber_id", sub.ID()).Msg("subscriber registered")

	if latest != nil {
		if err := sub.Send(latest); err != nil {
			h.remove(sub.ID())
		}
	}
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	delete(h.subscribers, id)
	h.mu.Unlock()

	if ok {
		_ = sub.Close()
		log.Debug().Str("subscriber_id", id).Msg("subscriber unregistered")
	}
}

func (h *Hub) deliver(event events.Event) {
	h.mu.Lock()
	if event.Type() == events.EventTypeSessionsChanged {
		h.latest = event
	}
	subs := make([]ports.Subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Send(event); err != nil {
			log.Warn().
				Str("subscriber_id", sub.ID()).
				Str("event_type", string(event.Type())).
				Err(err).
				Msg("detaching subscriber")
			h.remove(sub.ID())
		}
	}
}

// Publish queues an event for delivery. Per-session events are dropped and
// logged when the queue is full. A sessions_changed event is never dropped
// while the hub runs: Publish waits for queue space instead.
func (h *Hub) Publish(event events.Event) {
	if event.Type() == events.EventTypeSessionsChanged {
		h.publishState(event)
		return
	}

	select {
	case h.broadcast <- event:
		log.Trace().
			Str("event_type", string(event.Type())).
			Msg("event published")
	default:
		log.Warn().
			Str("event_type", string(event.Type())).
			Msg("event dropped: broadcast queue full")
	}
}

func (h *Hub) publishState(event events.Event) {
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()

	if !running {
		select {
		case h.broadcast <- event:
		default:
			// Nothing drains the queue yet; keep it for replay.
			h.mu.Lock()
			h.latest = event
			h.mu.Unlock()
		}
		return
	}

	select {
	case h.broadcast <- event:
	case <-h.done:
	}
}

// Subscribe adds a subscriber. The retained sessions_changed event, if any,
// is sent to it first. Subscribers added before Start are registered
// directly.
func (h *Hub) Subscribe(sub ports.Subscriber) {
	h.mu.Lock()
	if !h.running {
		h.subscribers[sub.ID()] = sub
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	select {
	case h.register <- sub:
	case <-h.done:
		_ = sub.Close()
	}
}

// SubscribeChannel registers a ChannelSubscriber with a random id.
func (h *Hub) SubscribeChannel(bufferSize int) *ChannelSubscriber {
	sub := NewChannelSubscriber(uuid.NewString(), bufferSize)
	h.Subscribe(sub)
	return sub
}

// Unsubscribe removes and closes a subscriber.
func (h *Hub) Unsubscribe(id string) {
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()

	if !running {
		h.remove(id)
		return
	}

	select {
	case h.unregister <- id:
	case <-h.done:
	}
}

// Latest returns the most recent sessions_changed event, or nil.
func (h *Hub) Latest() events.Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// SubscriberCount returns the number of attached subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// IsRunning reports whether the delivery loop is active.
func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

var _ ports.EventHub = (*Hub)(nil)
