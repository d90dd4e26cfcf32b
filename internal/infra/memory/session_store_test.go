package memory

import (
	"context"
	"testing"
	"time"

	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/questionpool"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	session := app.NewSession("s-1", "u1", "default", questionpool.Fallback(), domain.NewSessionConfig("Alice", 1, "", "", 3))
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok := store.Get(ctx, "s-1")
	if !ok || got != session {
		t.Fatalf("expected session present")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}

	store.Delete(ctx, "s-1")
	if _, ok := store.Get(ctx, "s-1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreEvictsIdleSessions(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	store := NewSessionStoreWithTTL(time.Minute)
	store.now = func() time.Time { return clock }

	cfg := domain.NewSessionConfig("Alice", 1, "", "", 3)
	active := app.NewSession("active", "u1", "default", questionpool.Fallback(), cfg)
	idle := app.NewSession("idle", "u2", "default", questionpool.Fallback(), cfg)
	_ = store.Save(ctx, active)
	_ = store.Save(ctx, idle)

	// Touching a session slides its expiry.
	clock = clock.Add(40 * time.Second)
	if _, ok := store.Get(ctx, "active"); !ok {
		t.Fatalf("expected active session")
	}
	clock = clock.Add(40 * time.Second)
	if _, ok := store.Get(ctx, "active"); !ok {
		t.Fatalf("expected active session kept alive by access")
	}
	if _, ok := store.Get(ctx, "idle"); ok {
		t.Fatalf("expected idle session evicted after ttl")
	}

	clock = clock.Add(2 * time.Minute)
	if store.Len() != 0 {
		t.Fatalf("expected every session evicted, got %d", store.Len())
	}
}

func TestResultStoreLatest(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore()

	if _, err := store.LatestResult(ctx, "u1"); err != domain.ErrResultNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	_ = store.SaveResult(ctx, domain.StoredResult{ID: "r1", UserID: "u1"})
	_ = store.SaveResult(ctx, domain.StoredResult{ID: "r2", UserID: "u1"})
	_ = store.SaveResult(ctx, domain.StoredResult{ID: "r3", UserID: "u2"})

	got, err := store.LatestResult(ctx, "u1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.ID != "r2" {
		t.Fatalf("expected r2, got %s", got.ID)
	}
}
