package store

import (
	"database/sql"
	"fmt"
	"time"
)

// UpsertActor inserts or updates a provisioned actor.
func (db *DB) UpsertActor(a *Actor) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO actors (id, name, token, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			token = excluded.token,
			updated_at = excluded.updated_at`,
		a.ID, a.Name, a.Token, now)
	if err != nil {
		return fmt.Errorf("upsert actor %q: %w", a.ID, err)
	}
	return nil
}

// GetActor returns an actor by id, or nil when unknown.
func (db *DB) GetActor(id string) (*Actor, error) {
	var a Actor
	err := db.QueryRow(`SELECT id, name, token FROM actors WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.Token)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetActorByToken resolves an opaque bearer token, or nil when unknown.
func (db *DB) GetActorByToken(token string) (*Actor, error) {
	var a Actor
	err := db.QueryRow(`SELECT id, name, token FROM actors WHERE token = ?`, token).
		Scan(&a.ID, &a.Name, &a.Token)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ActorCount returns the number of provisioned actors.
func (db *DB) ActorCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM actors`).Scan(&count)
	return count, err
}
