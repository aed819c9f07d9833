// Package lifecycle owns the message state machine: creation, status
// transitions, reaction merges, edits, deletes and reply/forward linkage.
// The store's compare-and-set revision is the only serialization point;
// concurrent mutations on the same message are resolved by retrying against
// a fresh read where that is safe.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"chatd/internal/bus"
	"chatd/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// Idempotent operations (status advance, reaction merge) can be
	// reapplied safely, so conflicts retry a few times.
	idempotentAttempts = 5
	// Edit and delete re-check authorization against a fresh read once,
	// then surface the conflict: blindly reapplying could mask a
	// legitimate concurrent delete.
	guardedAttempts = 2

	// replyExcerptLen bounds the content snapshot cached on a reply link.
	replyExcerptLen = 100
)

// MessageEvent is the bus payload for message lifecycle events.
type MessageEvent struct {
	ID        string
	ActorID   string
	Preview   string
	CreatedAt int64
}

// Engine applies lifecycle transitions to messages.
type Engine struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger

	now   func() time.Time // test seam
	newID func() string
}

// NewEngine creates a lifecycle engine.
func NewEngine(db *store.DB, b *bus.Bus, logger *zap.Logger) *Engine {
	return &Engine{
		db:     db,
		bus:    b,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// SendInput carries the caller-supplied fields of a Send.
type SendInput struct {
	Content        string
	ContentType    string
	ReplyTo        string
	ForwardedFrom  string
	AttachmentURL  string
	AttachmentSize int64
}

// Send creates a new message authored by the given actor. Text messages
// require non-empty content; non-text messages require content or an
// attachment reference. A replyTo id is resolved once, at link time: the
// sender and a content excerpt are copied onto the new message and never
// refreshed afterwards.
func (e *Engine) Send(actorID, actorName string, in SendInput) (*store.Message, error) {
	ct, err := store.ParseContentType(in.ContentType)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		if ct == store.ContentText {
			return nil, fmt.Errorf("text message without content: %w", store.ErrInvalidInput)
		}
		if in.AttachmentURL == "" {
			return nil, fmt.Errorf("%s message without content or attachment: %w", ct, store.ErrInvalidInput)
		}
	}

	m := &store.Message{
		ID:             e.newID(),
		SenderID:       actorID,
		SenderName:     actorName,
		Content:        content,
		ContentType:    ct,
		Status:         store.StatusSent,
		Reactions:      map[string]string{},
		ForwardedFrom:  in.ForwardedFrom,
		AttachmentURL:  in.AttachmentURL,
		AttachmentSize: in.AttachmentSize,
		CreatedAt:      e.now().UnixMilli(),
	}

	if in.ReplyTo != "" {
		src, err := e.db.GetMessage(in.ReplyTo)
		if err != nil {
			return nil, fmt.Errorf("resolve reply target: %w", err)
		}
		m.ReplyToID = src.ID
		m.ReplyToSender = src.SenderName
		m.ReplyToExcerpt = truncate(src.Content, replyExcerptLen)
	}

	if err := e.db.InsertMessage(m); err != nil {
		return nil, err
	}

	e.logger.Info("message sent",
		zap.String("id", m.ID),
		zap.String("sender", actorID),
		zap.String("content_type", string(ct)))
	e.publish(bus.KindMessageCreated, m, actorID)
	return m, nil
}

// UpdateStatus advances a message's delivery status. The ordering
// sent < delivered < read is strict: equal or regressive requests are an
// idempotent no-op success, which tolerates duplicate and out-of-order
// acknowledgements from polling clients.
func (e *Engine) UpdateStatus(id, newStatus, actorID string) error {
	st, err := store.ParseStatus(newStatus)
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		m, err := e.db.GetMessage(id)
		if err != nil {
			return err
		}
		if m.IsDeleted {
			return fmt.Errorf("message %q is deleted: %w", id, store.ErrForbidden)
		}
		if st.Rank() <= m.Status.Rank() {
			return nil
		}
		m.Status = st
		err = e.db.UpdateMessage(m, m.Rev)
		if err == nil {
			e.publish(bus.KindMessageStatus, m, actorID)
			return nil
		}
		if !errors.Is(err, store.ErrConflict) || attempt+1 >= idempotentAttempts {
			return err
		}
	}
}

// React merges a reaction onto a message: one slot per actor, last write
// wins. The merge is commutative and idempotent per actor, so concurrent
// reactions from different actors need no coordination beyond the CAS retry.
func (e *Engine) React(id, actorID, symbol string) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return fmt.Errorf("empty reaction: %w", store.ErrInvalidInput)
	}

	for attempt := 0; ; attempt++ {
		m, err := e.db.GetMessage(id)
		if err != nil {
			return err
		}
		if m.IsDeleted {
			return fmt.Errorf("message %q is deleted: %w", id, store.ErrNotFound)
		}
		if m.Reactions[actorID] == symbol {
			return nil
		}
		m.Reactions[actorID] = symbol
		err = e.db.UpdateMessage(m, m.Rev)
		if err == nil {
			e.publish(bus.KindMessageReacted, m, actorID)
			return nil
		}
		if !errors.Is(err, store.ErrConflict) || attempt+1 >= idempotentAttempts {
			return err
		}
	}
}

// Edit replaces a message's content. Only the sender may edit, never after
// deletion. The edit flag sticks forever; delivery status is untouched.
func (e *Engine) Edit(id, actorID, newContent string) error {
	newContent = strings.TrimSpace(newContent)
	if newContent == "" {
		return fmt.Errorf("empty edit: %w", store.ErrInvalidInput)
	}

	for attempt := 0; ; attempt++ {
		m, err := e.db.GetMessage(id)
		if err != nil {
			return err
		}
		if m.SenderID != actorID {
			return fmt.Errorf("actor %q is not the sender: %w", actorID, store.ErrForbidden)
		}
		if m.IsDeleted {
			return fmt.Errorf("message %q is deleted: %w", id, store.ErrForbidden)
		}
		m.Content = newContent
		m.IsEdited = true
		err = e.db.UpdateMessage(m, m.Rev)
		if err == nil {
			e.publish(bus.KindMessageEdited, m, actorID)
			return nil
		}
		if !errors.Is(err, store.ErrConflict) || attempt+1 >= guardedAttempts {
			return err
		}
	}
}

// Delete tombstones a message: content is replaced by the tombstone marker,
// reactions are dropped and all further mutation is frozen. Only the sender
// may delete. Deleting twice is a no-op success.
func (e *Engine) Delete(id, actorID string) error {
	for attempt := 0; ; attempt++ {
		m, err := e.db.GetMessage(id)
		if err != nil {
			return err
		}
		if m.SenderID != actorID {
			return fmt.Errorf("actor %q is not the sender: %w", actorID, store.ErrForbidden)
		}
		if m.IsDeleted {
			return nil
		}
		m.IsDeleted = true
		m.Content = store.Tombstone
		m.Reactions = map[string]string{}
		err = e.db.UpdateMessage(m, m.Rev)
		if err == nil {
			e.logger.Info("message deleted", zap.String("id", id), zap.String("actor", actorID))
			e.publish(bus.KindMessageDeleted, m, actorID)
			return nil
		}
		if !errors.Is(err, store.ErrConflict) || attempt+1 >= guardedAttempts {
			return err
		}
	}
}

// Forward creates a new message carrying a snapshot of the source content at
// forward time; later edits of the source do not reach the copy. The origin
// label defaults to the source sender's display name. A tombstoned source
// cannot be forwarded.
func (e *Engine) Forward(id, actorID, actorName, label string) (*store.Message, error) {
	src, err := e.db.GetMessage(id)
	if err != nil {
		return nil, err
	}
	if src.IsDeleted {
		return nil, fmt.Errorf("message %q is deleted: %w", id, store.ErrNotFound)
	}
	if label == "" {
		label = src.SenderName
	}
	return e.Send(actorID, actorName, SendInput{
		Content:        src.Content,
		ContentType:    string(src.ContentType),
		ForwardedFrom:  label,
		AttachmentURL:  src.AttachmentURL,
		AttachmentSize: src.AttachmentSize,
	})
}

func (e *Engine) publish(kind string, m *store.Message, actorID string) {
	e.bus.Publish(bus.Event{
		Kind: kind,
		Payload: MessageEvent{
			ID:        m.ID,
			ActorID:   actorID,
			Preview:   truncate(m.Content, replyExcerptLen),
			CreatedAt: m.CreatedAt,
		},
	})
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
