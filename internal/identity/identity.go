// Package identity is the boundary to the actor identity provider. The core
// consumes verified actor identities and never inspects token internals.
package identity

import (
	"context"
	"errors"

	"chatd/internal/store"

	"go.uber.org/zap"
)

// ErrInvalidToken signals an unknown or missing bearer token.
var ErrInvalidToken = errors.New("invalid token")

// Actor is a verified identity attached to a request.
type Actor struct {
	ID   string
	Name string
}

// Verifier resolves an opaque token to a verified actor.
type Verifier interface {
	Verify(ctx context.Context, token string) (Actor, error)
}

// StoreVerifier verifies tokens against the provisioned actors table.
type StoreVerifier struct {
	db *store.DB
}

// NewStoreVerifier creates a verifier backed by the store.
func NewStoreVerifier(db *store.DB) *StoreVerifier {
	return &StoreVerifier{db: db}
}

// Verify resolves token to an actor, or ErrInvalidToken.
func (v *StoreVerifier) Verify(_ context.Context, token string) (Actor, error) {
	if token == "" {
		return Actor{}, ErrInvalidToken
	}
	a, err := v.db.GetActorByToken(token)
	if err != nil {
		return Actor{}, err
	}
	if a == nil {
		return Actor{}, ErrInvalidToken
	}
	return Actor{ID: a.ID, Name: a.Name}, nil
}

// Provision upserts the configured actors at boot. An actor without an
// explicit id falls back to its name.
func Provision(db *store.DB, actors []store.Actor, logger *zap.Logger) error {
	for _, a := range actors {
		if a.ID == "" {
			a.ID = a.Name
		}
		if a.ID == "" || a.Token == "" {
			return errors.New("provision actor: id/name and token are required")
		}
		if err := db.UpsertActor(&a); err != nil {
			return err
		}
	}
	if logger != nil && len(actors) > 0 {
		logger.Info("actors provisioned", zap.Int("count", len(actors)))
	}
	return nil
}
