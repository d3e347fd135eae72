package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/tellerbot/teller/internal/log"
)

func newTestMemory(t *testing.T, ttl time.Duration) *Memory {
	t.Helper()
	m := NewMemory("teller", ttl, log.NewNop())
	t.Cleanup(func() {
		if err := m.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return m
}

func TestMemory_CreateGet(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })
	ctx := context.Background()
	m := newTestMemory(t, time.Hour)

	created, err := m.Create(ctx, "u1", "s1", map[string]any{KeyAuthenticated: true})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.AppName != "teller" {
		t.Errorf("AppName = %q, want teller", created.AppName)
	}

	got, err := m.Get(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Authenticated() {
		t.Error("session state lost between Create and Get")
	}
}

func TestMemory_GetMissing(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t, time.Hour)

	_, err := m.Get(ctx, "u1", "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestMemory_InvalidID(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t, time.Hour)

	if _, err := m.Create(ctx, "", "s1", nil); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Create with empty user: error = %v, want ErrInvalidID", err)
	}
	if _, err := m.Get(ctx, "u1", ""); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Get with empty session: error = %v, want ErrInvalidID", err)
	}
}

func TestMemory_UpdatePersistsState(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t, time.Hour)

	sess, err := m.Create(ctx, "u1", "s1", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	sess.IncrementMessageCount()
	sess.SetLastAccountChecked("checking")
	if err := m.Update(ctx, sess); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := m.Get(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.MessageCount() != 1 {
		t.Errorf("MessageCount() = %d, want 1", got.MessageCount())
	}
	if got.LastAccountChecked() != "checking" {
		t.Errorf("LastAccountChecked() = %q, want checking", got.LastAccountChecked())
	}
}

func TestMemory_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t, time.Hour)

	if _, err := m.Create(ctx, "u1", "s1", nil); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := m.Delete(ctx, "u1", "s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := m.Delete(ctx, "u1", "s1"); err != nil {
		t.Errorf("second Delete() error = %v, want nil", err)
	}
	if _, err := m.Get(ctx, "u1", "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete: error = %v, want ErrNotFound", err)
	}
}

func TestMemory_ListFiltersByUser(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t, time.Hour)

	for _, pair := range [][2]string{{"u1", "s1"}, {"u1", "s2"}, {"u2", "s1"}} {
		if _, err := m.Create(ctx, pair[0], pair[1], nil); err != nil {
			t.Fatalf("Create(%v) error = %v", pair, err)
		}
	}

	sessions, err := m.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("List(u1) returned %d sessions, want 2", len(sessions))
	}
}

func TestMemory_ListOrdersByRecency(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t, time.Hour)

	var created []*Session
	for _, id := range []string{"s1", "s2", "s3"} {
		sess, err := m.Create(ctx, "u1", id, nil)
		if err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
		created = append(created, sess)
	}

	// Pin distinct update times so ordering does not depend on clock
	// resolution: s2 newest, then s1, then s3.
	base := time.Now().UTC()
	created[0].LastUpdate = base.Add(-time.Minute)
	created[1].LastUpdate = base
	created[2].LastUpdate = base.Add(-time.Hour)

	sessions, err := m.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []string{"s2", "s1", "s3"}
	if len(sessions) != len(want) {
		t.Fatalf("List() returned %d sessions, want %d", len(sessions), len(want))
	}
	for i, id := range want {
		if sessions[i].ID != id {
			t.Errorf("List()[%d] = %s, want %s", i, sessions[i].ID, id)
		}
	}
}

func TestMemory_SweepExpiresIdleSessions(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t, 10*time.Millisecond)

	if _, err := m.Create(ctx, "u1", "s1", nil); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	m.sweep()

	if _, err := m.Get(ctx, "u1", "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after sweep: error = %v, want ErrNotFound", err)
	}
	if stats := m.Stats(); stats.Expired != 1 {
		t.Errorf("Stats().Expired = %d, want 1", stats.Expired)
	}
}

func TestMemory_Stats(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t, time.Hour)

	m.Create(ctx, "u1", "s1", nil) //nolint:errcheck
	m.Get(ctx, "u1", "s1")         //nolint:errcheck
	m.Delete(ctx, "u1", "s1")      //nolint:errcheck

	stats := m.Stats()
	if stats.Created != 1 || stats.Accessed != 1 || stats.Deleted != 1 {
		t.Errorf("Stats() = %+v, want created=1 accessed=1 deleted=1", stats)
	}
	if stats.Active != 0 {
		t.Errorf("Stats().Active = %d, want 0", stats.Active)
	}
}

func TestMemory_CloseStopsJanitorAndRejectsOps(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	m := NewMemory("teller", time.Hour, log.NewNop())
	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	// Close is idempotent.
	if err := m.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if _, err := m.Create(ctx, "u1", "s1", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Create() after close: error = %v, want ErrClosed", err)
	}
}
