// Package poll drives a client's pull loop: fetch a snapshot on a fixed
// interval, hand it to the consumer, and acknowledge delivery for messages
// this actor has now seen.
package poll

import (
	"context"
	"time"

	"chatd/internal/api"

	"go.uber.org/zap"
)

// Source is the slice of the daemon client the poller needs.
type Source interface {
	Snapshot(ctx context.Context, limit int) (*api.SnapshotResponse, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// Poller polls the daemon and auto-acks delivery.
type Poller struct {
	src      Source
	selfID   string
	interval time.Duration
	limit    int
	onSnap   func(api.SnapshotResponse)
	logger   *zap.Logger
	cancel   context.CancelFunc
}

// New creates a poller. onSnapshot is called with every fetched snapshot,
// including ones identical to the last; dedup is the consumer's job.
func New(src Source, selfID string, interval time.Duration, limit int, onSnapshot func(api.SnapshotResponse), logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Poller{
		src:      src,
		selfID:   selfID,
		interval: interval,
		limit:    limit,
		onSnap:   onSnapshot,
		logger:   logger,
	}
}

// Start begins the poll loop. The first fetch happens immediately.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	go p.loop(ctx)
}

// Stop stops the poll loop.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Poller) loop(ctx context.Context) {
	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	snap, err := p.src.Snapshot(ctx, p.limit)
	if err != nil {
		// Transient by assumption; the next tick retries.
		p.logger.Warn("snapshot fetch failed", zap.Error(err))
		return
	}

	if p.onSnap != nil {
		p.onSnap(*snap)
	}
	p.ackDelivered(ctx, snap.Messages)
}

// ackDelivered advances other actors' messages from sent to delivered. The
// act of receiving them in a snapshot is the delivery. Read acks are not
// automatic; the consumer sends those when the thread is actually visible.
func (p *Poller) ackDelivered(ctx context.Context, msgs []api.Message) {
	for _, m := range msgs {
		if m.SenderID == p.selfID || m.IsDeleted || m.Status != "sent" {
			continue
		}
		if err := p.src.UpdateStatus(ctx, m.ID, "delivered"); err != nil {
			p.logger.Warn("delivery ack failed", zap.Error(err), zap.String("id", m.ID))
		}
	}
}
