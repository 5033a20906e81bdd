// Package bus provides a small thread-safe, in-process pub/sub event bus.
//
// Handlers subscribe by Event.Type; delivery is synchronous in the caller
// goroutine and handler errors are joined and returned from Publish. Events
// can optionally carry a Target to address a single consumer; routing on
// Target is left to subscribers.
package bus

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Event is an immutable message transported by the bus.
type Event struct {
	ID        string
	Type      string
	Source    string
	Target    string // empty means broadcast
	Timestamp time.Time
	Data      any
}

// NewEvent builds a broadcast event with a fresh ID and timestamp.
func NewEvent(eventType, source string, data any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// NewTargetedEvent builds an event addressed to a single consumer.
func NewTargetedEvent(eventType, source, target string, data any) Event {
	e := NewEvent(eventType, source, data)
	e.Target = target
	return e
}

// Handler is invoked once per delivered event. A returned error is joined
// with other handler errors and surfaced from Publish.
type Handler func(event Event) error

// Subscription is a handle for a registered handler.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	Cancel()
}

// Bus is a type-keyed fan-out event bus safe for concurrent use.
type Bus interface {
	// Publish delivers the event synchronously to all subscribers of its type.
	Publish(event Event) error
	// PublishAsync delivers in a separate goroutine; the returned channel
	// receives the joined delivery error (or nil) and is then closed.
	PublishAsync(event Event) <-chan error
	// Subscribe registers a handler for an event type.
	Subscribe(eventType string, handler Handler) Subscription
	// Unsubscribe cancels a subscription. Safe to call with nil.
	Unsubscribe(sub Subscription)
}

type subscription struct {
	id        string
	eventType string
	active    atomic.Bool
	handler   Handler
	cancel    func()
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.eventType }
func (s *subscription) IsActive() bool    { return s.active.Load() }
func (s *subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

type inMemoryBus struct {
	mu sync.RWMutex
	// handlers: eventType -> subID -> subscription
	handlers map[string]map[string]*subscription
}

// New creates an empty in-memory bus.
func New() Bus {
	return &inMemoryBus{handlers: make(map[string]map[string]*subscription)}
}

func (b *inMemoryBus) Publish(event Event) error {
	b.mu.RLock()
	subs := make([]*subscription, 0, len(b.handlers[event.Type]))
	for _, s := range b.handlers[event.Type] {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	var all error
	for _, s := range subs {
		if err := s.handler(event); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

func (b *inMemoryBus) PublishAsync(event Event) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- b.Publish(event)
		close(ch)
	}()
	return ch
}

func (b *inMemoryBus) Subscribe(eventType string, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[string]*subscription)
	}
	id := uuid.NewString()
	s := &subscription{id: id, eventType: eventType, handler: handler}
	s.active.Store(true)
	s.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if mm, ok := b.handlers[eventType]; ok {
			delete(mm, id)
		}
		s.active.Store(false)
	}
	b.handlers[eventType][id] = s
	return s
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) {
	if sub == nil {
		return
	}
	sub.Cancel()
}
