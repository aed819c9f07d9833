package sync

import (
	"context"
	"strconv"

	"chatd/internal/bus"
	"chatd/internal/lifecycle"
	"chatd/internal/store"

	"go.uber.org/zap"
)

// checkpointLastEvent records the timestamp of the newest digested event.
const checkpointLastEvent = "digest.last_event_ms"

// Digest maintains the derived conversation summary off message events.
// It is read-only state for clients; nothing in the lifecycle engine
// depends on it.
type Digest struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
}

// NewDigest creates a digest engine.
func NewDigest(db *store.DB, b *bus.Bus, logger *zap.Logger) *Digest {
	return &Digest{db: db, bus: b, logger: logger}
}

// Start subscribes to message lifecycle events on the bus.
func (d *Digest) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	ch, unsub := d.bus.Subscribe("message.", 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				d.handleEvent(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the digest engine.
func (d *Digest) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
}

func (d *Digest) handleEvent(evt bus.Event) {
	payload, ok := evt.Payload.(lifecycle.MessageEvent)
	if !ok {
		return
	}

	if evt.Kind == bus.KindMessageCreated {
		if err := d.db.BumpConversation(payload.CreatedAt, payload.Preview); err != nil {
			d.logger.Error("failed to bump conversation", zap.Error(err), zap.String("id", payload.ID))
			return
		}
	}

	if err := d.db.SetSyncState(checkpointLastEvent, strconv.FormatInt(evt.At.UnixMilli(), 10)); err != nil {
		d.logger.Error("failed to checkpoint digest", zap.Error(err))
	}
}
