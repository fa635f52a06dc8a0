package event

import (
	"log"
	"sync"
)

// Handler consumes a published event.
type Handler func(Event)

// Bus is a synchronous publish/subscribe channel keyed by event type.
//
// Publish delivers to subscribers in subscription order on the publishing
// goroutine. A panicking subscriber is recovered and logged and does not
// prevent delivery to the remaining subscribers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Type][]Handler)}
}

// Subscribe registers a handler for an event type.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// Publish delivers the event to every subscriber of its type.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[e.Type]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		deliver(h, e)
	}
}

func deliver(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("event: subscriber panic on %s (room %s): %v", e.Type, e.RoomID, r)
		}
	}()
	h(e)
}
