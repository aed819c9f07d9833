// Package view turns daemon snapshots into a renderable message list.
// Snapshots are authoritative: Apply replaces the local list wholesale
// instead of merging, so deletions and edits can never be missed.
package view

import "chatd/internal/api"

// Reducer holds the last applied snapshot.
type Reducer struct {
	messages []api.Message
	revs     map[string]int64
}

// NewReducer creates an empty reducer.
func NewReducer() *Reducer {
	return &Reducer{revs: make(map[string]int64)}
}

// Apply replaces the local list with the snapshot and reports which message
// ids are new or changed since the previous snapshot. The revision counter
// is the dirty marker: a bumped rev means the record must be re-rendered,
// whatever actually changed inside it.
func (r *Reducer) Apply(snapshot []api.Message) (changed []string) {
	next := make(map[string]int64, len(snapshot))
	for _, m := range snapshot {
		next[m.ID] = m.Rev
		if prev, ok := r.revs[m.ID]; !ok || m.Rev > prev {
			changed = append(changed, m.ID)
		}
	}

	// Snapshots arrive newest first; rendering wants oldest first.
	ordered := make([]api.Message, len(snapshot))
	for i, m := range snapshot {
		ordered[len(snapshot)-1-i] = m
	}

	r.messages = ordered
	r.revs = next
	return changed
}

// Messages returns the current list, oldest first.
func (r *Reducer) Messages() []api.Message {
	return r.messages
}

// Get returns the message with the given id, if present.
func (r *Reducer) Get(id string) (api.Message, bool) {
	for _, m := range r.messages {
		if m.ID == id {
			return m, true
		}
	}
	return api.Message{}, false
}
