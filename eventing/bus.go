package eventing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guildhall/cachekit/logger"
)

type memoryBus struct {
	mutex    sync.Mutex
	handlers map[string]map[int64]Handler
	nextID   int64
	closed   bool
	logger   logger.Logger
}

var _ Bus = (*memoryBus)(nil)

// New returns an in-process Bus. Delivery is synchronous: Publish returns
// after every handler subscribed to the event name has run. Handlers for the
// same name run in no particular order relative to each other.
func New(log logger.Logger) Bus {
	return &memoryBus{
		handlers: make(map[string]map[int64]Handler),
		logger:   log.With(map[string]interface{}{"component": "eventing"}),
	}
}

type memorySubscriber struct {
	bus  *memoryBus
	name string
	id   int64
}

func (s *memorySubscriber) Close() error {
	s.bus.mutex.Lock()
	defer s.bus.mutex.Unlock()
	if hs, ok := s.bus.handlers[s.name]; ok {
		delete(hs, s.id)
		if len(hs) == 0 {
			delete(s.bus.handlers, s.name)
		}
	}
	return nil
}

func (b *memoryBus) Subscribe(name string, handler Handler) Subscriber {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.closed {
		return &memorySubscriber{bus: b, name: name, id: -1}
	}
	id := b.nextID
	b.nextID++
	if b.handlers[name] == nil {
		b.handlers[name] = make(map[int64]Handler)
	}
	b.handlers[name][id] = handler
	return &memorySubscriber{bus: b, name: name, id: id}
}

func (b *memoryBus) Publish(ctx context.Context, evt Event) {
	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	if evt.At.IsZero() {
		evt.At = time.Now()
	}

	b.mutex.Lock()
	var handlers []Handler
	for _, h := range b.handlers[evt.Name] {
		handlers = append(handlers, h)
	}
	b.mutex.Unlock()

	for _, handler := range handlers {
		b.dispatch(ctx, handler, evt)
	}
}

// dispatch runs one handler, containing panics so a misbehaving subscriber
// cannot take down the publisher.
func (b *memoryBus) dispatch(ctx context.Context, handler Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panic on event %s: %v", evt.Name, r)
		}
	}()
	handler(ctx, evt)
}

func (b *memoryBus) Close() error {
	b.mutex.Lock()
	b.handlers = make(map[string]map[int64]Handler)
	b.closed = true
	b.mutex.Unlock()
	return nil
}
