// Package presence tracks which actors are currently typing. The state is
// ephemeral and in-memory only; entries expire on their own so a client that
// stops polling never leaves a stuck indicator behind.
package presence

import (
	"context"
	"sort"
	"sync"
	"time"

	"chatd/internal/bus"
)

// TTL is how long a typing signal stays visible without being refreshed.
const TTL = 5 * time.Second

// Tracker holds the typing set.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]entry
	bus     *bus.Bus
	now     func() time.Time // test seam
	cancel  context.CancelFunc
}

type entry struct {
	name    string
	expires time.Time
}

// TypingEvent is the bus payload for typing changes.
type TypingEvent struct {
	ActorID string
	Typing  bool
}

// NewTracker creates an empty tracker.
func NewTracker(b *bus.Bus) *Tracker {
	return &Tracker{
		entries: make(map[string]entry),
		bus:     b,
		now:     time.Now,
	}
}

// Set records or clears an actor's typing signal.
func (t *Tracker) Set(actorID, name string, typing bool) {
	t.mu.Lock()
	if typing {
		t.entries[actorID] = entry{name: name, expires: t.now().Add(TTL)}
	} else {
		delete(t.entries, actorID)
	}
	t.mu.Unlock()

	if t.bus != nil {
		t.bus.Publish(bus.Event{
			Kind:    bus.KindTyping,
			Payload: TypingEvent{ActorID: actorID, Typing: typing},
		})
	}
}

// Typing returns the display names of actors with a live typing signal,
// sorted for deterministic output.
func (t *Tracker) Typing() []string {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	var names []string
	for id, e := range t.entries {
		if now.After(e.expires) {
			delete(t.entries, id)
			continue
		}
		names = append(names, e.name)
	}
	sort.Strings(names)
	return names
}

// Start runs a background sweep so expired entries do not pile up between
// Typing calls.
func (t *Tracker) Start(ctx context.Context) {
	ctx, t.cancel = context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(TTL)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.Typing()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the sweep.
func (t *Tracker) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
}
