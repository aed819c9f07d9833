package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"chatd/internal/lifecycle"
	"chatd/internal/store"

	"github.com/gorilla/mux"
)

func decodeBody(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return fmt.Errorf("malformed request body: %w", store.ErrInvalidInput)
	}
	return nil
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	actor := requestActor(r)
	m, err := h.engine.Send(actor.ID, actor.Name, lifecycle.SendInput{
		Content:        req.Content,
		ContentType:    req.ContentType,
		ReplyTo:        req.ReplyTo,
		ForwardedFrom:  req.ForwardedFrom,
		AttachmentURL:  req.AttachmentURL,
		AttachmentSize: req.AttachmentSize,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewMessage(m))
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	msgs, err := h.snapshot.Snapshot(limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := SnapshotResponse{Messages: make([]Message, 0, len(msgs))}
	for i := range msgs {
		resp.Messages = append(resp.Messages, viewMessage(&msgs[i]))
	}
	resp.Typing = h.typing.Typing()
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, fmt.Errorf("missing query parameter q: %w", store.ErrInvalidInput))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.db.SearchMessages(query, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := SearchResponse{Results: make([]SearchResult, 0, len(results))}
	for i := range results {
		resp.Results = append(resp.Results, SearchResult{
			Message: viewMessage(&results[i].Message),
			Snippet: results[i].Snippet,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	actor := requestActor(r)
	if err := h.engine.UpdateStatus(mux.Vars(r)["id"], req.Status, actor.ID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReact(w http.ResponseWriter, r *http.Request) {
	var req ReactRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	actor := requestActor(r)
	if err := h.engine.React(mux.Vars(r)["id"], actor.ID, req.Reaction); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	actor := requestActor(r)
	if err := h.engine.Edit(mux.Vars(r)["id"], actor.ID, req.Content); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor := requestActor(r)
	if err := h.engine.Delete(mux.Vars(r)["id"], actor.ID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleForward(w http.ResponseWriter, r *http.Request) {
	var req ForwardRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	actor := requestActor(r)
	m, err := h.engine.Forward(mux.Vars(r)["id"], actor.ID, actor.Name, req.Label)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewMessage(m))
}

func (h *Handler) handleTyping(w http.ResponseWriter, r *http.Request) {
	var req TypingRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	actor := requestActor(r)
	h.typing.Set(actor.ID, actor.Name, req.Typing)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleConversation(w http.ResponseWriter, r *http.Request) {
	c, err := h.db.GetConversation()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConversationResponse{
		MessageCount:  c.MessageCount,
		LastMessageAt: c.LastMessageAt,
		LastPreview:   c.LastPreview,
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	messages, err := h.db.MessageCount()
	if err != nil {
		h.writeError(w, err)
		return
	}
	actors, err := h.db.ActorCount()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		State:    string(h.machine.Current()),
		UptimeMS: h.machine.Uptime().Milliseconds(),
		Messages: messages,
		Actors:   actors,
	})
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
