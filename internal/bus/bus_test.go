package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("message.", 10)
	defer unsub()

	b.Publish(Event{Kind: KindMessageCreated, Payload: "m1"})

	select {
	case evt := <-ch:
		if evt.Kind != KindMessageCreated {
			t.Errorf("got kind %q, want %q", evt.Kind, KindMessageCreated)
		}
		if evt.ID == "" {
			t.Error("Publish did not assign an event id")
		}
		if evt.At.IsZero() {
			t.Error("Publish did not assign a timestamp")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPrefixFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("presence.", 10)
	defer unsub()

	b.Publish(Event{Kind: KindMessageCreated})
	b.Publish(Event{Kind: KindTyping})

	select {
	case evt := <-ch:
		if evt.Kind != KindTyping {
			t.Errorf("got kind %q, want %q", evt.Kind, KindTyping)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// The message event must not have been delivered.
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("message.", 10)
	unsub()

	b.Publish(Event{Kind: KindMessageCreated})

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("message.", 1)
	defer unsub()

	b.Publish(Event{Kind: KindMessageCreated})
	// Buffer is full now; this one is dropped instead of blocking.
	b.Publish(Event{Kind: KindMessageEdited})

	evt := <-ch
	if evt.Kind != KindMessageCreated {
		t.Errorf("got %q, want %q", evt.Kind, KindMessageCreated)
	}
}
