package store

import (
	"database/sql"
	"fmt"
	"time"
)

// BumpConversation updates the single-room digest row with a new last
// message. Monotonic: an older timestamp never overwrites a newer preview.
func (db *DB) BumpConversation(at int64, preview string) error {
	_, err := db.Exec(`
		UPDATE conversation
		SET message_count = message_count + 1,
			last_preview = CASE WHEN ? >= last_message_at THEN ? ELSE last_preview END,
			last_message_at = MAX(last_message_at, ?)
		WHERE id = 1`,
		at, preview, at)
	if err != nil {
		return fmt.Errorf("bump conversation: %w", err)
	}
	return nil
}

// GetConversation returns the digest row.
func (db *DB) GetConversation() (*Conversation, error) {
	var c Conversation
	err := db.QueryRow(`SELECT message_count, last_message_at, last_preview FROM conversation WHERE id = 1`).
		Scan(&c.MessageCount, &c.LastMessageAt, &c.LastPreview)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &c, nil
}

// SetSyncState stores a digest checkpoint value.
func (db *DB) SetSyncState(key, value string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO sync_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now)
	return err
}

// GetSyncState retrieves a digest checkpoint value; empty when unset.
func (db *DB) GetSyncState(key string) (string, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM sync_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}
