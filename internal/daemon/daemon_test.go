package daemon

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"chatd/internal/api"
	"chatd/internal/bus"
	"chatd/internal/client"
	"chatd/internal/config"
	"chatd/internal/identity"
	"chatd/internal/lifecycle"
	"chatd/internal/lock"
	"chatd/internal/presence"
	"chatd/internal/status"
	"chatd/internal/store"
	intsync "chatd/internal/sync"

	"go.uber.org/zap"
)

// startDaemon wires the components by hand, the same shape Module builds,
// and serves on an ephemeral port.
func startDaemon(t *testing.T) (string, *store.DB) {
	t.Helper()

	dataDir := t.TempDir()

	lk, err := lock.Acquire(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = lk.Release() })

	db, err := store.Open(filepath.Join(dataDir, "chat.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	actors := []store.Actor{
		{ID: "alice", Name: "Alice", Token: "tok-alice"},
		{ID: "bob", Name: "Bob", Token: "tok-bob"},
	}
	if err := identity.Provision(db, actors, nil); err != nil {
		t.Fatal(err)
	}

	logger := zap.NewNop()
	b := bus.New()
	machine := status.NewMachine(b)
	_ = machine.Transition(status.Migrating)

	engine := lifecycle.NewEngine(db, b, logger)
	snapshot := intsync.NewService(db, 100)
	digest := intsync.NewDigest(db, b, logger)
	tracker := presence.NewTracker(b)

	h := api.NewHandler(engine, snapshot, tracker, identity.NewStoreVerifier(db), machine, db, logger)

	p := Params{Config: config.Default(), DataDir: dataDir, ListenAddr: "127.0.0.1:0"}
	srv, err := NewServer(p, logger, h)
	if err != nil {
		t.Fatal(err)
	}

	digest.Start(context.Background())
	t.Cleanup(digest.Stop)
	go func() { _ = srv.Start() }()
	t.Cleanup(func() { srv.Stop(context.Background()) })
	_ = machine.Transition(status.Ready)

	return "http://" + srv.Addr(), db
}

func TestDaemonLifecycle(t *testing.T) {
	baseURL, _ := startDaemon(t)
	ctx := context.Background()

	// Unauthenticated status probe sees READY.
	probe := client.New(baseURL, "")
	st, err := probe.Status(ctx)
	if err != nil {
		t.Fatalf("Status error = %v", err)
	}
	if st.State != "READY" {
		t.Errorf("state = %q, want READY", st.State)
	}
	if st.Actors != 2 {
		t.Errorf("actors = %d, want 2", st.Actors)
	}

	alice := client.New(baseURL, "tok-alice")
	bob := client.New(baseURL, "tok-bob")

	// Full message round trip over the wire.
	sent, err := alice.Send(ctx, api.SendRequest{Content: "hello over http", ContentType: "text"})
	if err != nil {
		t.Fatalf("Send error = %v", err)
	}

	if err := bob.UpdateStatus(ctx, sent.ID, "delivered"); err != nil {
		t.Fatalf("UpdateStatus error = %v", err)
	}
	if err := bob.React(ctx, sent.ID, "👍"); err != nil {
		t.Fatalf("React error = %v", err)
	}

	snap, err := bob.Snapshot(ctx, 10)
	if err != nil {
		t.Fatalf("Snapshot error = %v", err)
	}
	if len(snap.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(snap.Messages))
	}
	got := snap.Messages[0]
	if got.Status != "delivered" || got.Reactions["bob"] != "👍" {
		t.Errorf("message = %+v", got)
	}

	// Search over the wire.
	results, err := alice.Search(ctx, "hello", 10)
	if err != nil {
		t.Fatalf("Search error = %v", err)
	}
	if len(results.Results) != 1 {
		t.Errorf("search results = %d, want 1", len(results.Results))
	}

	// The digest catches up asynchronously.
	deadline := time.After(2 * time.Second)
	for {
		conv, err := alice.Conversation(ctx)
		if err != nil {
			t.Fatalf("Conversation error = %v", err)
		}
		if conv.MessageCount == 1 {
			if conv.LastPreview != "hello over http" {
				t.Errorf("preview = %q", conv.LastPreview)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("digest never caught up: %+v", conv)
		case <-time.After(20 * time.Millisecond):
		}
	}

	// Delete tombstones and freezes.
	if err := alice.Delete(ctx, sent.ID); err != nil {
		t.Fatalf("Delete error = %v", err)
	}
	snap, err = bob.Snapshot(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Messages[0].IsDeleted || snap.Messages[0].Content != store.Tombstone {
		t.Errorf("tombstone = %+v", snap.Messages[0])
	}
}

func TestSecondInstanceRejected(t *testing.T) {
	dataDir := t.TempDir()

	lk, err := lock.Acquire(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = lk.Release() }()

	if _, err := lock.Acquire(dataDir); err == nil {
		t.Fatal("second Acquire succeeded, want HeldError")
	}
}
