package event

import (
	"sync"
)

// Bus is an in-memory pub/sub fan-out for engine events.
//
// Publish never blocks the scheduler: each subscription has a buffered
// channel, and events are dropped (with the OnDrop callback, if set)
// when a subscriber falls behind. A slow observer must never stall a
// superstep.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]*Subscription
	nextID int
	closed bool

	// OnDrop, when non-nil, is called with each event dropped because a
	// subscriber's buffer was full.
	OnDrop func(evt Event)
}

// Subscription is an active registration on the bus.
type Subscription struct {
	bus   *Bus
	id    int
	types map[string]bool // nil means all types
	ch    chan Event
}

// DefaultBufferSize is the per-subscription channel buffer.
const DefaultBufferSize = 256

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]*Subscription)}
}

// Subscribe registers for the given event types. An empty type list
// subscribes to all events. Events are delivered on the returned
// subscription's channel until Unsubscribe or Close.
func (b *Bus) Subscribe(types ...string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	var typeSet map[string]bool
	if len(types) > 0 {
		typeSet = make(map[string]bool, len(types))
		for _, t := range types {
			typeSet[t] = true
		}
	}

	sub := &Subscription{
		bus:   b,
		id:    b.nextID,
		types: typeSet,
		ch:    make(chan Event, DefaultBufferSize),
	}
	b.nextID++

	if b.closed {
		close(sub.ch)
		return sub
	}

	b.subs[sub.id] = sub
	return sub
}

// Publish fans an event out to all matching subscriptions.
// Non-blocking: full subscriber buffers drop the event.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subs {
		if sub.types != nil && !sub.types[evt.Type] {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			if b.OnDrop != nil {
				b.OnDrop(evt)
			}
		}
	}
}

// Close shuts down the bus and closes all subscription channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
}

// Events returns the subscription's delivery channel. It is closed when
// the subscription is removed or the bus is closed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Unsubscribe removes the subscription and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if _, ok := s.bus.subs[s.id]; ok {
		delete(s.bus.subs, s.id)
		close(s.ch)
	}
}
