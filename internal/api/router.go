// Package api exposes the daemon over a local HTTP/JSON surface. Every
// mutating route runs as a verified actor; the handler layer translates
// between wire shapes and the lifecycle engine and owns nothing else.
package api

import (
	"net/http"

	"chatd/internal/identity"
	"chatd/internal/lifecycle"
	"chatd/internal/presence"
	"chatd/internal/status"
	"chatd/internal/store"
	"chatd/internal/sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Handler bundles the services the HTTP surface fronts.
type Handler struct {
	engine   *lifecycle.Engine
	snapshot *sync.Service
	typing   *presence.Tracker
	verifier identity.Verifier
	machine  *status.Machine
	db       *store.DB
	logger   *zap.Logger
}

// NewHandler creates the HTTP handler layer.
func NewHandler(
	engine *lifecycle.Engine,
	snapshot *sync.Service,
	typing *presence.Tracker,
	verifier identity.Verifier,
	machine *status.Machine,
	db *store.DB,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		engine:   engine,
		snapshot: snapshot,
		typing:   typing,
		verifier: verifier,
		machine:  machine,
		db:       db,
		logger:   logger,
	}
}

// Router builds the route table. /v1/status and /v1/healthz are
// unauthenticated so supervisors can probe a daemon with no token on hand.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/v1/healthz", h.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/v1/status", h.handleStatus).Methods(http.MethodGet)

	r.HandleFunc("/v1/messages", h.auth(h.handleSend)).Methods(http.MethodPost)
	r.HandleFunc("/v1/messages", h.auth(h.handleSnapshot)).Methods(http.MethodGet)
	r.HandleFunc("/v1/messages/search", h.auth(h.handleSearch)).Methods(http.MethodGet)
	r.HandleFunc("/v1/messages/{id}/status", h.auth(h.handleUpdateStatus)).Methods(http.MethodPatch)
	r.HandleFunc("/v1/messages/{id}/reactions", h.auth(h.handleReact)).Methods(http.MethodPut)
	r.HandleFunc("/v1/messages/{id}/forward", h.auth(h.handleForward)).Methods(http.MethodPost)
	r.HandleFunc("/v1/messages/{id}", h.auth(h.handleEdit)).Methods(http.MethodPatch)
	r.HandleFunc("/v1/messages/{id}", h.auth(h.handleDelete)).Methods(http.MethodDelete)
	r.HandleFunc("/v1/typing", h.auth(h.handleTyping)).Methods(http.MethodPost)
	r.HandleFunc("/v1/conversation", h.auth(h.handleConversation)).Methods(http.MethodGet)

	return r
}
