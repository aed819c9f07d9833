package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
)

const messageColumns = `id, sender_id, sender_name, content, content_type, status, reactions,
	is_edited, is_deleted, reply_to_id, reply_to_sender, reply_to_excerpt,
	forwarded_from, attachment_url, attachment_size, created_at, rev`

// InsertMessage inserts a new message record. A duplicate id is rejected
// with ErrConflict; ids are never reused, even after deletion.
func (db *DB) InsertMessage(m *Message) error {
	reactions, err := marshalReactions(m.Reactions)
	if err != nil {
		return err
	}
	now := time.Now().UnixMilli()
	_, err = db.Exec(`
		INSERT INTO messages (id, sender_id, sender_name, content, content_type, status, reactions,
			is_edited, is_deleted, reply_to_id, reply_to_sender, reply_to_excerpt,
			forwarded_from, attachment_url, attachment_size, created_at, rev, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.SenderName, m.Content, string(m.ContentType), string(m.Status), reactions,
		m.IsEdited, m.IsDeleted, m.ReplyToID, m.ReplyToSender, m.ReplyToExcerpt,
		m.ForwardedFrom, m.AttachmentURL, m.AttachmentSize, m.CreatedAt, m.Rev, now)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("message %q already exists: %w", m.ID, ErrConflict)
		}
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetMessage returns a message by id, or ErrNotFound.
func (db *DB) GetMessage(id string) (*Message, error) {
	row := db.QueryRow(`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	m, err := scanMessage(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("message %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

// UpdateMessage applies the mutable fields of m if and only if the stored
// revision still equals expectedRev. On success the revision is bumped and
// m.Rev reflects the new value. A revision mismatch yields ErrConflict; a
// vanished id yields ErrNotFound. Immutable fields (sender, content type,
// created_at, reply/forward links) are never written back.
func (db *DB) UpdateMessage(m *Message, expectedRev int64) error {
	reactions, err := marshalReactions(m.Reactions)
	if err != nil {
		return err
	}
	now := time.Now().UnixMilli()
	res, err := db.Exec(`
		UPDATE messages
		SET content = ?, status = ?, reactions = ?, is_edited = ?, is_deleted = ?,
			rev = rev + 1, updated_at = ?
		WHERE id = ? AND rev = ?`,
		m.Content, string(m.Status), reactions, m.IsEdited, m.IsDeleted,
		now, m.ID, expectedRev)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	if n == 0 {
		var exists bool
		if err := db.QueryRow(`SELECT EXISTS (SELECT 1 FROM messages WHERE id = ?)`, m.ID).Scan(&exists); err != nil {
			return fmt.Errorf("update message: %w", err)
		}
		if !exists {
			return fmt.Errorf("message %q: %w", m.ID, ErrNotFound)
		}
		return fmt.Errorf("message %q rev %d: %w", m.ID, expectedRev, ErrConflict)
	}
	m.Rev = expectedRev + 1
	return nil
}

// ListRecent returns the most recent messages ordered by created_at
// descending, ties broken by id descending for deterministic snapshots.
func (db *DB) ListRecent(limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT `+messageColumns+`
		FROM messages
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list recent: %w", err)
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

// MessageCount returns the total number of stored messages, tombstones included.
func (db *DB) MessageCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

func scanMessage(scan func(dest ...any) error) (*Message, error) {
	var m Message
	var contentType, status, reactions string
	if err := scan(
		&m.ID, &m.SenderID, &m.SenderName, &m.Content, &contentType, &status, &reactions,
		&m.IsEdited, &m.IsDeleted, &m.ReplyToID, &m.ReplyToSender, &m.ReplyToExcerpt,
		&m.ForwardedFrom, &m.AttachmentURL, &m.AttachmentSize, &m.CreatedAt, &m.Rev,
	); err != nil {
		return nil, err
	}
	m.ContentType = ContentType(contentType)
	m.Status = Status(status)
	var err error
	m.Reactions, err = unmarshalReactions(reactions)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func marshalReactions(reactions map[string]string) (string, error) {
	if len(reactions) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(reactions)
	if err != nil {
		return "", fmt.Errorf("marshal reactions: %w", err)
	}
	return string(b), nil
}

func unmarshalReactions(s string) (map[string]string, error) {
	reactions := make(map[string]string)
	if s == "" {
		return reactions, nil
	}
	if err := json.Unmarshal([]byte(s), &reactions); err != nil {
		return nil, fmt.Errorf("unmarshal reactions: %w", err)
	}
	return reactions, nil
}
