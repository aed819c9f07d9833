package store

import "fmt"

// Tombstone replaces the content of a deleted message. The row itself is
// never removed so ids stay unique and reply/forward references keep resolving.
const Tombstone = "[deleted]"

// Status is the delivery state of a message. It only moves forward.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

var statusRank = map[Status]int{
	StatusSent:      0,
	StatusDelivered: 1,
	StatusRead:      2,
}

// ParseStatus validates a wire-level status name.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := statusRank[st]; !ok {
		return "", fmt.Errorf("unknown status %q: %w", s, ErrInvalidInput)
	}
	return st, nil
}

// Rank returns the position of s in the sent < delivered < read ordering.
func (s Status) Rank() int {
	return statusRank[s]
}

// ContentType classifies the message payload.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentFile  ContentType = "file"
	ContentVoice ContentType = "voice"
)

// ParseContentType validates a wire-level content type name.
func ParseContentType(s string) (ContentType, error) {
	switch ct := ContentType(s); ct {
	case ContentText, ContentImage, ContentFile, ContentVoice:
		return ct, nil
	case "":
		return ContentText, nil
	default:
		return "", fmt.Errorf("unknown content type %q: %w", s, ErrInvalidInput)
	}
}

// Message is the stored message record. Rev is the compare-and-set revision:
// every successful update bumps it, and UpdateMessage only applies when the
// caller read the revision it is replacing.
type Message struct {
	ID             string
	SenderID       string
	SenderName     string
	Content        string
	ContentType    ContentType
	Status         Status
	Reactions      map[string]string
	IsEdited       bool
	IsDeleted      bool
	ReplyToID      string
	ReplyToSender  string
	ReplyToExcerpt string
	ForwardedFrom  string
	AttachmentURL  string
	AttachmentSize int64
	CreatedAt      int64
	Rev            int64
}

// Actor is a provisioned identity: an opaque token mapped to an id and
// display name. Token issuance itself happens outside the core.
type Actor struct {
	ID    string
	Name  string
	Token string
}

// Conversation is the derived single-room digest row maintained off bus events.
type Conversation struct {
	MessageCount  int64
	LastMessageAt int64
	LastPreview   string
}

// SearchResult holds a message with a match snippet.
type SearchResult struct {
	Message Message
	Snippet string
}
