package view

import (
	"testing"

	"chatd/internal/api"
)

func snap(msgs ...api.Message) []api.Message { return msgs }

func TestApplyOrdersOldestFirst(t *testing.T) {
	r := NewReducer()
	r.Apply(snap(
		api.Message{ID: "c", Rev: 1, CreatedAtMS: 3},
		api.Message{ID: "b", Rev: 1, CreatedAtMS: 2},
		api.Message{ID: "a", Rev: 1, CreatedAtMS: 1},
	))

	msgs := r.Messages()
	if len(msgs) != 3 || msgs[0].ID != "a" || msgs[2].ID != "c" {
		t.Errorf("order = %v", msgs)
	}
}

func TestApplyReportsNewAndChanged(t *testing.T) {
	r := NewReducer()

	changed := r.Apply(snap(api.Message{ID: "a", Rev: 1}))
	if len(changed) != 1 || changed[0] != "a" {
		t.Errorf("first apply changed = %v", changed)
	}

	// Identical snapshot: nothing to re-render.
	if changed := r.Apply(snap(api.Message{ID: "a", Rev: 1})); len(changed) != 0 {
		t.Errorf("identical apply changed = %v", changed)
	}

	changed = r.Apply(snap(
		api.Message{ID: "b", Rev: 1},
		api.Message{ID: "a", Rev: 3},
	))
	if len(changed) != 2 {
		t.Errorf("changed = %v, want a (rev bump) and b (new)", changed)
	}
}

func TestApplyReplacesNotMerges(t *testing.T) {
	r := NewReducer()
	r.Apply(snap(api.Message{ID: "a", Rev: 1}, api.Message{ID: "b", Rev: 1}))

	// "b" fell off the window; it must not linger locally.
	r.Apply(snap(api.Message{ID: "a", Rev: 1}))
	if _, ok := r.Get("b"); ok {
		t.Error("dropped message survived Apply")
	}
	if len(r.Messages()) != 1 {
		t.Errorf("messages = %v", r.Messages())
	}
}

func TestTombstoneCountsAsChange(t *testing.T) {
	r := NewReducer()
	r.Apply(snap(api.Message{ID: "a", Rev: 1, Content: "hello"}))

	changed := r.Apply(snap(api.Message{ID: "a", Rev: 2, Content: "[deleted]", IsDeleted: true}))
	if len(changed) != 1 || changed[0] != "a" {
		t.Errorf("changed = %v", changed)
	}
	m, _ := r.Get("a")
	if !m.IsDeleted {
		t.Error("tombstone state not applied")
	}
}
