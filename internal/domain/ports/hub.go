package ports

import (
	"github.com/brianly1003/glance/internal/domain/events"
)

// Publisher accepts registry events. Publish must not block the caller.
type Publisher interface {
	Publish(event events.Event)
}

// Subscriber receives events fanned out by an EventHub.
type Subscriber interface {
	// ID identifies the subscriber for Unsubscribe and logging.
	ID() string

	// Send delivers one event. An error detaches the subscriber.
	Send(event events.Event) error

	// Close releases the subscriber. It is called by the hub on detach and
	// on Stop.
	Close() error

	// Done is closed once the subscriber is closed.
	Done() <-chan struct{}
}

// EventHub distributes registry events to subscribers. The most recent
// sessions_changed event is retained and replayed to every new subscriber,
// so a late subscriber starts from the current live set.
type EventHub interface {
	Publisher

	Subscribe(sub Subscriber)
	Unsubscribe(id string)

	// Latest returns the retained sessions_changed event, or nil.
	Latest() events.Event
}
