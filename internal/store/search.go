package store

// SearchMessages performs a full-text search over message content.
// Tombstoned messages are excluded; their content is gone anyway.
func (db *DB) SearchMessages(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(`
		SELECT m.id, m.sender_id, m.sender_name, m.content, m.content_type, m.status, m.reactions,
		       m.is_edited, m.is_deleted, m.reply_to_id, m.reply_to_sender, m.reply_to_excerpt,
		       m.forwarded_from, m.attachment_url, m.attachment_size, m.created_at, m.rev,
		       snippet(messages_fts, 0, '<<', '>>', '...', 32)
		FROM messages_fts f
		JOIN messages m ON m.rowid = f.rowid
		WHERE messages_fts MATCH ? AND m.is_deleted = 0
		ORDER BY rank
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var contentType, status, reactions string
		if err := rows.Scan(
			&r.Message.ID, &r.Message.SenderID, &r.Message.SenderName, &r.Message.Content,
			&contentType, &status, &reactions,
			&r.Message.IsEdited, &r.Message.IsDeleted, &r.Message.ReplyToID,
			&r.Message.ReplyToSender, &r.Message.ReplyToExcerpt,
			&r.Message.ForwardedFrom, &r.Message.AttachmentURL, &r.Message.AttachmentSize,
			&r.Message.CreatedAt, &r.Message.Rev, &r.Snippet,
		); err != nil {
			return nil, err
		}
		r.Message.ContentType = ContentType(contentType)
		r.Message.Status = Status(status)
		r.Message.Reactions, err = unmarshalReactions(reactions)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
