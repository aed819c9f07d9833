package api

import "chatd/internal/store"

// Message is the wire representation of a message. A tombstoned message
// keeps its id and ordering slot but exposes only the tombstone marker:
// status and reactions are blanked out.
type Message struct {
	ID             string            `json:"id"`
	SenderID       string            `json:"sender_id"`
	SenderName     string            `json:"sender_name"`
	Content        string            `json:"content"`
	ContentType    string            `json:"content_type"`
	Status         string            `json:"status,omitempty"`
	Reactions      map[string]string `json:"reactions,omitempty"`
	IsEdited       bool              `json:"is_edited"`
	IsDeleted      bool              `json:"is_deleted"`
	ReplyTo        *ReplyRef         `json:"reply_to,omitempty"`
	ForwardedFrom  string            `json:"forwarded_from,omitempty"`
	AttachmentURL  string            `json:"attachment_url,omitempty"`
	AttachmentSize int64             `json:"attachment_size,omitempty"`
	CreatedAtMS    int64             `json:"created_at_ms"`
	Rev            int64             `json:"rev"`
}

// ReplyRef is the snapshot-at-link-time reply reference.
type ReplyRef struct {
	ID      string `json:"id"`
	Sender  string `json:"sender"`
	Excerpt string `json:"excerpt"`
}

// SnapshotResponse is the body of GET /v1/messages.
type SnapshotResponse struct {
	Messages []Message `json:"messages"`
	Typing   []string  `json:"typing,omitempty"`
}

// SearchResult pairs a matched message with its snippet.
type SearchResult struct {
	Message Message `json:"message"`
	Snippet string  `json:"snippet"`
}

// SearchResponse is the body of GET /v1/messages/search.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// SendRequest is the body of POST /v1/messages.
type SendRequest struct {
	Content        string `json:"content"`
	ContentType    string `json:"content_type"`
	ReplyTo        string `json:"reply_to,omitempty"`
	ForwardedFrom  string `json:"forwarded_from,omitempty"`
	AttachmentURL  string `json:"attachment_url,omitempty"`
	AttachmentSize int64  `json:"attachment_size,omitempty"`
}

// StatusRequest is the body of PATCH /v1/messages/{id}/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// ReactRequest is the body of PUT /v1/messages/{id}/reactions.
type ReactRequest struct {
	Reaction string `json:"reaction"`
}

// EditRequest is the body of PATCH /v1/messages/{id}.
type EditRequest struct {
	Content string `json:"content"`
}

// ForwardRequest is the body of POST /v1/messages/{id}/forward.
type ForwardRequest struct {
	Label string `json:"label,omitempty"`
}

// TypingRequest is the body of POST /v1/typing.
type TypingRequest struct {
	Typing bool `json:"typing"`
}

// ConversationResponse is the body of GET /v1/conversation.
type ConversationResponse struct {
	MessageCount  int64  `json:"message_count"`
	LastMessageAt int64  `json:"last_message_at_ms"`
	LastPreview   string `json:"last_preview"`
}

// StatusResponse is the body of GET /v1/status.
type StatusResponse struct {
	State    string `json:"state"`
	UptimeMS int64  `json:"uptime_ms"`
	Messages int64  `json:"messages"`
	Actors   int64  `json:"actors"`
}

func viewMessage(m *store.Message) Message {
	out := Message{
		ID:             m.ID,
		SenderID:       m.SenderID,
		SenderName:     m.SenderName,
		Content:        m.Content,
		ContentType:    string(m.ContentType),
		IsEdited:       m.IsEdited,
		IsDeleted:      m.IsDeleted,
		ForwardedFrom:  m.ForwardedFrom,
		AttachmentURL:  m.AttachmentURL,
		AttachmentSize: m.AttachmentSize,
		CreatedAtMS:    m.CreatedAt,
		Rev:            m.Rev,
	}
	if !m.IsDeleted {
		out.Status = string(m.Status)
		if len(m.Reactions) > 0 {
			out.Reactions = m.Reactions
		}
	}
	if m.ReplyToID != "" {
		out.ReplyTo = &ReplyRef{ID: m.ReplyToID, Sender: m.ReplyToSender, Excerpt: m.ReplyToExcerpt}
	}
	return out
}
