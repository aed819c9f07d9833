// Package sync serves the pull-based synchronization contract: clients poll
// Snapshot on their own schedule and replace their local view wholesale.
package sync

import (
	"chatd/internal/store"
)

// Service answers snapshot queries for polling clients.
type Service struct {
	db       *store.DB
	maxLimit int
}

// NewService creates a snapshot service. maxLimit caps caller-supplied limits.
func NewService(db *store.DB, maxLimit int) *Service {
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &Service{db: db, maxLimit: maxLimit}
}

// Snapshot returns the most recent limit messages, newest first, each
// carrying its full current state. Every call reflects the latest committed
// state at call time; there is no delta tracking between calls. Within one
// snapshot the order is created_at descending with id as the deterministic
// tie-break. Tombstoned messages stay in the feed: their ids must keep
// appearing so clients re-render the deletion.
func (s *Service) Snapshot(limit int) ([]store.Message, error) {
	if limit <= 0 || limit > s.maxLimit {
		limit = s.maxLimit
	}
	return s.db.ListRecent(limit)
}
