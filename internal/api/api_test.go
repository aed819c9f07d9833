package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"chatd/internal/bus"
	"chatd/internal/identity"
	"chatd/internal/lifecycle"
	"chatd/internal/presence"
	"chatd/internal/status"
	"chatd/internal/store"
	"chatd/internal/sync"

	"go.uber.org/zap"
)

const (
	aliceToken = "tok-alice"
	bobToken   = "tok-bob"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	actors := []store.Actor{
		{ID: "alice", Name: "Alice", Token: aliceToken},
		{ID: "bob", Name: "Bob", Token: bobToken},
	}
	if err := identity.Provision(db, actors, nil); err != nil {
		t.Fatal(err)
	}

	b := bus.New()
	machine := status.NewMachine(b)
	if err := machine.Transition(status.Migrating); err != nil {
		t.Fatal(err)
	}
	if err := machine.Transition(status.Ready); err != nil {
		t.Fatal(err)
	}

	h := NewHandler(
		lifecycle.NewEngine(db, b, zap.NewNop()),
		sync.NewService(db, 100),
		presence.NewTracker(b),
		identity.NewStoreVerifier(db),
		machine,
		db,
		zap.NewNop(),
	)

	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		buf = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, srv.URL+path, buf)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, raw
}

func sendMessage(t *testing.T, srv *httptest.Server, token, content string) Message {
	t.Helper()
	code, raw := do(t, srv, http.MethodPost, "/v1/messages", token, SendRequest{Content: content, ContentType: "text"})
	if code != http.StatusCreated {
		t.Fatalf("send returned %d: %s", code, raw)
	}
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestAuthRequired(t *testing.T) {
	srv := testServer(t)

	code, _ := do(t, srv, http.MethodGet, "/v1/messages", "", nil)
	if code != http.StatusUnauthorized {
		t.Errorf("no token: got %d, want 401", code)
	}
	code, _ = do(t, srv, http.MethodGet, "/v1/messages", "bogus", nil)
	if code != http.StatusUnauthorized {
		t.Errorf("bad token: got %d, want 401", code)
	}
}

func TestHealthAndStatusNeedNoToken(t *testing.T) {
	srv := testServer(t)

	code, _ := do(t, srv, http.MethodGet, "/v1/healthz", "", nil)
	if code != http.StatusOK {
		t.Errorf("healthz: got %d, want 200", code)
	}

	code, raw := do(t, srv, http.MethodGet, "/v1/status", "", nil)
	if code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", code)
	}
	var st StatusResponse
	if err := json.Unmarshal(raw, &st); err != nil {
		t.Fatal(err)
	}
	if st.State != "READY" || st.Actors != 2 {
		t.Errorf("status = %+v", st)
	}
}

func TestSendAndSnapshot(t *testing.T) {
	srv := testServer(t)

	sent := sendMessage(t, srv, aliceToken, "hello bob")
	if sent.SenderID != "alice" || sent.Status != "sent" || sent.Rev != 1 {
		t.Errorf("sent = %+v", sent)
	}

	code, raw := do(t, srv, http.MethodGet, "/v1/messages?limit=10", bobToken, nil)
	if code != http.StatusOK {
		t.Fatalf("snapshot returned %d: %s", code, raw)
	}
	var snap SnapshotResponse
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Messages) != 1 || snap.Messages[0].ID != sent.ID || snap.Messages[0].Content != "hello bob" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestSendValidation(t *testing.T) {
	srv := testServer(t)

	code, _ := do(t, srv, http.MethodPost, "/v1/messages", aliceToken, SendRequest{Content: "   ", ContentType: "text"})
	if code != http.StatusBadRequest {
		t.Errorf("blank content: got %d, want 400", code)
	}
	code, _ = do(t, srv, http.MethodPost, "/v1/messages", aliceToken, SendRequest{Content: "x", ContentType: "carrier-pigeon"})
	if code != http.StatusBadRequest {
		t.Errorf("bad content type: got %d, want 400", code)
	}
}

func TestStatusUpdateFlow(t *testing.T) {
	srv := testServer(t)
	m := sendMessage(t, srv, aliceToken, "ack me")

	code, _ := do(t, srv, http.MethodPatch, "/v1/messages/"+m.ID+"/status", bobToken, StatusRequest{Status: "read"})
	if code != http.StatusNoContent {
		t.Fatalf("status update returned %d", code)
	}
	// Regressive ack is an idempotent no-op, not an error.
	code, _ = do(t, srv, http.MethodPatch, "/v1/messages/"+m.ID+"/status", bobToken, StatusRequest{Status: "delivered"})
	if code != http.StatusNoContent {
		t.Errorf("regressive ack returned %d, want 204", code)
	}

	code, _ = do(t, srv, http.MethodPatch, "/v1/messages/"+m.ID+"/status", bobToken, StatusRequest{Status: "vanished"})
	if code != http.StatusBadRequest {
		t.Errorf("unknown status returned %d, want 400", code)
	}
	code, _ = do(t, srv, http.MethodPatch, "/v1/messages/nope/status", bobToken, StatusRequest{Status: "read"})
	if code != http.StatusNotFound {
		t.Errorf("unknown id returned %d, want 404", code)
	}
}

func TestReactAndView(t *testing.T) {
	srv := testServer(t)
	m := sendMessage(t, srv, aliceToken, "react to me")

	code, _ := do(t, srv, http.MethodPut, "/v1/messages/"+m.ID+"/reactions", bobToken, ReactRequest{Reaction: "👍"})
	if code != http.StatusNoContent {
		t.Fatalf("react returned %d", code)
	}

	_, raw := do(t, srv, http.MethodGet, "/v1/messages", aliceToken, nil)
	var snap SnapshotResponse
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Messages[0].Reactions["bob"] != "👍" {
		t.Errorf("reactions = %v", snap.Messages[0].Reactions)
	}
}

func TestEditOnlyBySender(t *testing.T) {
	srv := testServer(t)
	m := sendMessage(t, srv, aliceToken, "first draft")

	code, _ := do(t, srv, http.MethodPatch, "/v1/messages/"+m.ID, bobToken, EditRequest{Content: "hijacked"})
	if code != http.StatusForbidden {
		t.Errorf("non-sender edit returned %d, want 403", code)
	}

	code, _ = do(t, srv, http.MethodPatch, "/v1/messages/"+m.ID, aliceToken, EditRequest{Content: "second draft"})
	if code != http.StatusNoContent {
		t.Fatalf("sender edit returned %d", code)
	}

	_, raw := do(t, srv, http.MethodGet, "/v1/messages", aliceToken, nil)
	var snap SnapshotResponse
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Messages[0].Content != "second draft" || !snap.Messages[0].IsEdited {
		t.Errorf("after edit = %+v", snap.Messages[0])
	}
}

func TestDeleteHidesStateButKeepsSlot(t *testing.T) {
	srv := testServer(t)
	m := sendMessage(t, srv, aliceToken, "regret this")

	if code, _ := do(t, srv, http.MethodPut, "/v1/messages/"+m.ID+"/reactions", bobToken, ReactRequest{Reaction: "😀"}); code != http.StatusNoContent {
		t.Fatalf("react returned %d", code)
	}
	if code, _ := do(t, srv, http.MethodDelete, "/v1/messages/"+m.ID, aliceToken, nil); code != http.StatusNoContent {
		t.Fatalf("delete returned %d", code)
	}

	_, raw := do(t, srv, http.MethodGet, "/v1/messages", bobToken, nil)
	var snap SnapshotResponse
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatal(err)
	}
	got := snap.Messages[0]
	if !got.IsDeleted || got.Content != store.Tombstone {
		t.Errorf("tombstone = %+v", got)
	}
	if got.Status != "" || len(got.Reactions) != 0 {
		t.Errorf("tombstone leaks state: %+v", got)
	}

	// Frozen: further mutations are rejected.
	if code, _ := do(t, srv, http.MethodPut, "/v1/messages/"+m.ID+"/reactions", bobToken, ReactRequest{Reaction: "👍"}); code != http.StatusNotFound {
		t.Errorf("react on tombstone returned %d, want 404", code)
	}
}

func TestForward(t *testing.T) {
	srv := testServer(t)
	m := sendMessage(t, srv, aliceToken, "spread the word")

	code, raw := do(t, srv, http.MethodPost, "/v1/messages/"+m.ID+"/forward", bobToken, ForwardRequest{})
	if code != http.StatusCreated {
		t.Fatalf("forward returned %d: %s", code, raw)
	}
	var fwd Message
	if err := json.Unmarshal(raw, &fwd); err != nil {
		t.Fatal(err)
	}
	if fwd.SenderID != "bob" || fwd.Content != "spread the word" || fwd.ForwardedFrom != "Alice" {
		t.Errorf("forward = %+v", fwd)
	}
}

func TestTypingShowsInSnapshot(t *testing.T) {
	srv := testServer(t)

	if code, _ := do(t, srv, http.MethodPost, "/v1/typing", bobToken, TypingRequest{Typing: true}); code != http.StatusNoContent {
		t.Fatal("typing set failed")
	}

	_, raw := do(t, srv, http.MethodGet, "/v1/messages", aliceToken, nil)
	var snap SnapshotResponse
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Typing) != 1 || snap.Typing[0] != "Bob" {
		t.Errorf("typing = %v", snap.Typing)
	}

	if code, _ := do(t, srv, http.MethodPost, "/v1/typing", bobToken, TypingRequest{Typing: false}); code != http.StatusNoContent {
		t.Fatal("typing clear failed")
	}
	_, raw = do(t, srv, http.MethodGet, "/v1/messages", aliceToken, nil)
	snap = SnapshotResponse{}
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Typing) != 0 {
		t.Errorf("typing after clear = %v", snap.Typing)
	}
}

func TestSearch(t *testing.T) {
	srv := testServer(t)
	sendMessage(t, srv, aliceToken, "the quick brown fox")
	sendMessage(t, srv, bobToken, "nothing to see")

	code, raw := do(t, srv, http.MethodGet, "/v1/messages/search?q=fox", bobToken, nil)
	if code != http.StatusOK {
		t.Fatalf("search returned %d: %s", code, raw)
	}
	var resp SearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Message.SenderID != "alice" {
		t.Errorf("search = %+v", resp.Results)
	}

	code, _ = do(t, srv, http.MethodGet, "/v1/messages/search", bobToken, nil)
	if code != http.StatusBadRequest {
		t.Errorf("missing q returned %d, want 400", code)
	}
}

func TestMalformedBody(t *testing.T) {
	srv := testServer(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/messages", bytes.NewBufferString("{not json"))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+aliceToken)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body returned %d, want 400", resp.StatusCode)
	}
}
