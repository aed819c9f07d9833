// Package bus is an in-process publish/subscribe event bus with namespace
// prefix filtering. Delivery is best-effort: a full subscriber drops events
// rather than blocking a publisher mid-request.
package bus

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Bus fans events out to prefix-matched subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*subscription
	next int
}

type subscription struct {
	prefix string
	ch     chan Event
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[int]*subscription)}
}

// Publish sends evt to every subscriber whose prefix matches evt.Kind.
// Missing ID and At fields are filled in.
func (b *Bus) Publish(evt Event) {
	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	if evt.At.IsZero() {
		evt.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !strings.HasPrefix(evt.Kind, sub.prefix) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			// Subscriber is full; drop rather than block.
		}
	}
}

// Subscribe returns a channel receiving events whose kind starts with prefix,
// plus an unsubscribe function. bufSize bounds the channel buffer.
func (b *Bus) Subscribe(prefix string, bufSize int) (<-chan Event, func()) {
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = &subscription{prefix: prefix, ch: ch}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}
