package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tellerbot/teller/internal/log"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite("teller", filepath.Join(t.TempDir(), "sessions.db"), log.NewNop())
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func TestSQLite_CreateGet(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	if _, err := s.Create(ctx, "u1", "s1", map[string]any{KeyAuthenticated: true}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := s.Get(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Authenticated() {
		t.Error("state lost through sqlite round trip")
	}
}

func TestSQLite_GetMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	_, err := s.Get(ctx, "u1", "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSQLite_CreateTwiceOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	if _, err := s.Create(ctx, "u1", "s1", map[string]any{"v": "old"}); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}
	if _, err := s.Create(ctx, "u1", "s1", map[string]any{"v": "new"}); err != nil {
		t.Fatalf("second Create() error = %v", err)
	}

	got, err := s.Get(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State["v"] != "new" {
		t.Errorf("State[v] = %v, want new", got.State["v"])
	}
}

func TestSQLite_UpdateRoundTripsTransferHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	sess, err := s.Create(ctx, "u1", "s1", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	sess.AppendTransfer(TransferRecord{TransactionID: "TX-1", Source: "checking", Destination: "savings", Amount: 100})
	sess.IncrementMessageCount()
	if err := s.Update(ctx, sess); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := s.Get(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.TransferCount() != 1 {
		t.Errorf("TransferCount() = %d, want 1", got.TransferCount())
	}
	if got.LastTransactionID() != "TX-1" {
		t.Errorf("LastTransactionID() = %q, want TX-1", got.LastTransactionID())
	}
	if got.MessageCount() != 1 {
		t.Errorf("MessageCount() = %d, want 1", got.MessageCount())
	}
}

// Update on a missing session creates it.
func TestSQLite_UpdateUpserts(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	sess := New("teller", "u1", "fresh", nil)
	if err := s.Update(ctx, sess); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if _, err := s.Get(ctx, "u1", "fresh"); err != nil {
		t.Errorf("Get() after upsert: error = %v", err)
	}
}

func TestSQLite_DeleteAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	for _, id := range []string{"s1", "s2", "s3"} {
		if _, err := s.Create(ctx, "u1", id, nil); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}
	if _, err := s.Create(ctx, "u2", "other", nil); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := s.Delete(ctx, "u1", "s2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	sessions, err := s.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("List(u1) returned %d sessions, want 2", len(sessions))
	}
}

// An old session updated last must come back first, even though its
// row was inserted first.
func TestSQLite_ListOrdersByRecency(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	base := time.Now().UTC().Truncate(time.Second)

	oldest := New("teller", "u1", "oldest", nil)
	oldest.LastUpdate = base.Add(-2 * time.Hour)
	if err := s.upsert(ctx, oldest); err != nil {
		t.Fatalf("upsert(oldest) error = %v", err)
	}

	middle := New("teller", "u1", "middle", nil)
	middle.LastUpdate = base.Add(-time.Hour)
	if err := s.upsert(ctx, middle); err != nil {
		t.Fatalf("upsert(middle) error = %v", err)
	}

	// Touch the first-inserted row; recency must win over rowid order.
	oldest.LastUpdate = base
	if err := s.upsert(ctx, oldest); err != nil {
		t.Fatalf("upsert(touched) error = %v", err)
	}

	sessions, err := s.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []string{"oldest", "middle"}
	if len(sessions) != len(want) {
		t.Fatalf("List() returned %d sessions, want %d", len(sessions), len(want))
	}
	for i, id := range want {
		if sessions[i].ID != id {
			t.Errorf("List()[%d] = %s, want %s", i, sessions[i].ID, id)
		}
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	s1, err := NewSQLite("teller", path, log.NewNop())
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	if _, err := s1.Create(ctx, "u1", "s1", map[string]any{KeyAuthenticated: true}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s2, err := NewSQLite("teller", path, log.NewNop())
	if err != nil {
		t.Fatalf("reopen NewSQLite() error = %v", err)
	}
	defer s2.Close() //nolint:errcheck

	got, err := s2.Get(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("Get() after reopen: error = %v", err)
	}
	if !got.Authenticated() {
		t.Error("state lost across reopen")
	}
}

func TestSQLite_CleanupOlderThan(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	old := New("teller", "u1", "old", nil)
	old.LastUpdate = time.Now().Add(-48 * time.Hour)
	if err := s.upsert(ctx, old); err != nil {
		t.Fatalf("upsert() error = %v", err)
	}
	if _, err := s.Create(ctx, "u1", "fresh", nil); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	n, err := s.CleanupOlderThan(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("CleanupOlderThan() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CleanupOlderThan() removed %d sessions, want 1", n)
	}
	if _, err := s.Get(ctx, "u1", "fresh"); err != nil {
		t.Errorf("fresh session was removed: %v", err)
	}
}
