// Package eventing provides the typed publish/subscribe bus that carries
// cache lifecycle events and the domain trigger events invalidation rules
// subscribe to.
package eventing

import (
	"context"
	"time"
)

// Lifecycle event names emitted by the cache engine.
const (
	EventSet                  = "cache:set"
	EventDelete               = "cache:delete"
	EventInvalidate           = "cache:invalidate"
	EventInvalidateDependency = "cache:invalidate-dependency"
	EventInvalidateTag        = "cache:invalidate-tag"
)

// Event is a typed event delivered on the bus. Name identifies the event
// (a lifecycle constant above, or a caller-defined domain trigger such as
// "user:updated"). Key and Count are populated for lifecycle events.
type Event struct {
	ID      string
	Name    string
	Key     string
	Count   int
	Payload any
	At      time.Time
}

// Handler receives events for a subscribed name.
type Handler func(ctx context.Context, evt Event)

// Subscriber is a handle for an active subscription.
type Subscriber interface {
	// Close cancels the subscription.
	Close() error
}

// Bus is a typed publish/subscribe event bus.
type Bus interface {
	// Publish delivers an event to every handler subscribed to evt.Name.
	Publish(ctx context.Context, evt Event)
	// Subscribe registers a handler for events with the given name.
	Subscribe(name string, handler Handler) Subscriber
	// Close removes all subscriptions; further publishes are dropped.
	Close() error
}
