package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"adaptive-quiz-service/internal/domain"
)

func TestResultStoreLatest(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewResultStore(newClient(mr))

	if _, err := store.LatestResult(ctx, "u1"); err != domain.ErrResultNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	for i, id := range []string{"r1", "r2"} {
		err := store.SaveResult(ctx, domain.StoredResult{
			ID:        id,
			UserID:    "u1",
			Summary:   domain.PerformanceSummary{TotalScore: 10 * (i + 1)},
			CreatedAt: time.Date(2024, 1, 1, i, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	got, err := store.LatestResult(ctx, "u1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.ID != "r2" || got.Summary.TotalScore != 20 {
		t.Fatalf("expected r2 with score 20, got %+v", got)
	}
}
