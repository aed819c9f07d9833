package api

import (
	"context"
	"net/http"
	"strings"

	"chatd/internal/identity"
)

type contextKey int

const actorKey contextKey = iota

// auth verifies the bearer token and attaches the resolved actor to the
// request context.
func (h *Handler) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		actor, err := h.verifier.Verify(r.Context(), token)
		if err != nil {
			h.writeError(w, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
	}
}

func requestActor(r *http.Request) identity.Actor {
	actor, _ := r.Context().Value(actorKey).(identity.Actor)
	return actor
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
