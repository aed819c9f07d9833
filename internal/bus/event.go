package bus

import "time"

// Event kinds published by the daemon. Subscribers filter by prefix, so
// "message." matches every message lifecycle event.
const (
	KindMessageCreated = "message.created"
	KindMessageStatus  = "message.status"
	KindMessageReacted = "message.reacted"
	KindMessageEdited  = "message.edited"
	KindMessageDeleted = "message.deleted"
	KindTyping         = "presence.typing"
	KindRuntimeState   = "runtime.state_changed"
)

// Event is a domain event on the in-process bus. ID and At are assigned by
// Publish when left empty.
type Event struct {
	ID      string
	Kind    string
	At      time.Time
	Payload any
}
