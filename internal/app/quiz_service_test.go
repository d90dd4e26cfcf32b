package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/engine"
	"adaptive-quiz-service/internal/infra/memory"
	"adaptive-quiz-service/internal/questionpool"
)

func TestSessionPlaysToCompletion(t *testing.T) {
	ctx := context.Background()
	service, results := newTestService(nil)

	info, err := service.StartSession(ctx, app.StartRequest{
		UserID:        "u1",
		UserName:      "Alice",
		Level:         1,
		Literacy:      "beginner",
		QuestionLimit: 3,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if info.Progress.Total != 3 {
		t.Fatalf("expected 3 planned questions, got %d", info.Progress.Total)
	}

	for i := 0; i < 3; i++ {
		q, progress, err := service.CurrentQuestion(ctx, info.ID)
		if err != nil {
			t.Fatalf("question %d: %v", i, err)
		}
		if progress.Current != i+1 {
			t.Fatalf("expected progress %d, got %d", i+1, progress.Current)
		}
		res, complete, err := service.SubmitAnswer(ctx, info.ID, correctIndex(t, q.ID))
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if !res.IsCorrect {
			t.Fatalf("expected correct answer for %s", q.ID)
		}
		if complete != (i == 2) {
			t.Fatalf("unexpected complete=%v after answer %d", complete, i+1)
		}
	}

	if _, _, err := service.CurrentQuestion(ctx, info.ID); !errors.Is(err, domain.ErrSessionComplete) {
		t.Fatalf("expected complete, got %v", err)
	}

	result, err := service.Finish(ctx, info.ID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if result.Summary.TotalQuestions != 3 || result.Summary.CorrectAnswers != 3 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}
	if result.Summary.CognitiveProfile == nil || result.Profile.ProfessionalSummary == "" {
		t.Fatalf("expected cognitive profile attached")
	}
	if result.Summary.UserName != "Alice" {
		t.Fatalf("expected user name Alice, got %q", result.Summary.UserName)
	}

	stored, err := results.LatestResult(ctx, "u1")
	if err != nil || stored.ID != result.ID {
		t.Fatalf("expected stored result, got %+v err=%v", stored, err)
	}
	if _, err := service.State(ctx, info.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session dropped after finish, got %v", err)
	}
}

func TestSubmitRequiresActiveQuestion(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(nil)

	if _, _, err := service.SubmitAnswer(ctx, "missing", 0); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session error, got %v", err)
	}

	info, err := service.StartSession(ctx, app.StartRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, _, err := service.SubmitAnswer(ctx, info.ID, 0); !errors.Is(err, domain.ErrNoActiveQuestion) {
		t.Fatalf("expected no active question, got %v", err)
	}
}

func TestStartSessionNormalizesSetup(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(nil)

	info, err := service.StartSession(ctx, app.StartRequest{
		Level:    7,
		Literacy: "EXPERT",
		Category: "science",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if info.UserID == "" {
		t.Fatalf("expected generated user id")
	}
	cfg := info.Config
	if cfg.InitialLevel != 3 || cfg.InitialDifficulty != 3 || cfg.Category != "Science" || cfg.UserName != "User" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	q, _, err := service.CurrentQuestion(ctx, info.ID)
	if err != nil {
		t.Fatalf("question: %v", err)
	}
	if q.Category != "Science" {
		t.Fatalf("expected science question, got %s", q.Category)
	}
}

func TestDefaultQuestionLimit(t *testing.T) {
	ctx := context.Background()
	pools := memory.NewPoolRepository(memory.NewFallbackPoolLoader(), time.Minute)
	service := app.NewQuizService(memory.NewSessionStore(), pools, memory.NewResultStore(),
		app.WithDefaultQuestionLimit(4))

	info, err := service.StartSession(ctx, app.StartRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if info.Config.QuestionLimit != 4 || info.Progress.Total != 4 {
		t.Fatalf("expected default limit 4, got %+v", info)
	}

	info, err = service.StartSession(ctx, app.StartRequest{UserID: "u1", QuestionLimit: 2})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if info.Config.QuestionLimit != 2 {
		t.Fatalf("explicit limit should win, got %d", info.Config.QuestionLimit)
	}
}

func TestEngineHookOptionStillReceivesEvents(t *testing.T) {
	ctx := context.Background()
	var seen []string
	sink := &recordingSink{}
	pools := memory.NewPoolRepository(memory.NewFallbackPoolLoader(), time.Minute)
	service := app.NewQuizService(memory.NewSessionStore(), pools, memory.NewResultStore(),
		app.WithEventSink(sink),
		app.WithEngineOptions(engine.WithEventHook(func(ev engine.Event) { seen = append(seen, ev.Type) })),
	)

	info, err := service.StartSession(ctx, app.StartRequest{UserID: "u1", QuestionLimit: 1})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(seen) == 0 || seen[0] != engine.EventSessionInit {
		t.Fatalf("expected caller hook to see session_init, got %v", seen)
	}
	if _, _, err := service.CurrentQuestion(ctx, info.ID); err != nil {
		t.Fatalf("question: %v", err)
	}
	if _, _, err := service.SubmitAnswer(ctx, info.ID, 0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(seen) != len(sink.types) {
		t.Fatalf("caller hook and sink disagree: %v vs %v", seen, sink.types)
	}
}

func TestUpgradeLevel(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(nil)

	info, err := service.StartSession(ctx, app.StartRequest{Level: 2, Literacy: "Intermediate"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	state, err := service.UpgradeLevel(ctx, info.ID)
	if err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if state.CurrentLevel != 3 || state.CurrentDifficulty != 1 {
		t.Fatalf("unexpected state after upgrade: %+v", state)
	}
	if _, err := service.UpgradeLevel(ctx, info.ID); !errors.Is(err, domain.ErrUpgradeUnavailable) {
		t.Fatalf("expected upgrade unavailable, got %v", err)
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	service, _ := newTestService(sink)

	info, err := service.StartSession(ctx, app.StartRequest{UserID: "u1", Level: 1})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	events, cancel, err := service.Subscribe(ctx, info.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if _, _, err := service.CurrentQuestion(ctx, info.ID); err != nil {
		t.Fatalf("question: %v", err)
	}
	if _, _, err := service.SubmitAnswer(ctx, info.ID, -1); err != nil {
		t.Fatalf("submit: %v", err)
	}

	seen := map[string]bool{}
	timeout := time.After(2 * time.Second)
	for !seen[engine.EventAnswerProcessed] {
		select {
		case ev := <-events:
			seen[ev.Type] = true
		case <-timeout:
			t.Fatalf("timed out waiting for events, saw %v", seen)
		}
	}
	// A wrong first answer at difficulty 1 drops the level floor and reports it.
	if !seen[engine.EventLevelDrop] {
		t.Fatalf("expected level_drop before answer_processed, saw %v", seen)
	}

	if len(sink.types) == 0 || sink.types[0] != engine.EventSessionInit {
		t.Fatalf("expected sink to receive session_init first, got %v", sink.types)
	}
	if sink.types[len(sink.types)-1] != engine.EventAnswerProcessed {
		t.Fatalf("expected sink to end with answer_processed, got %v", sink.types)
	}

	if _, err := service.Finish(ctx, info.ID); err != nil {
		t.Fatalf("finish: %v", err)
	}
	select {
	case _, ok := <-events:
		for ok {
			_, ok = <-events
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected subscription closed after finish")
	}
}

func TestCategoriesAndLatestResult(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(nil)

	cats, err := service.Categories(ctx, "")
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(cats) == 0 {
		t.Fatalf("expected categories")
	}
	if _, err := service.LatestResult(ctx, "nobody"); !errors.Is(err, domain.ErrResultNotFound) {
		t.Fatalf("expected result not found, got %v", err)
	}
	if _, err := service.StartSession(ctx, app.StartRequest{PoolID: "missing"}); !errors.Is(err, domain.ErrPoolEmpty) {
		t.Fatalf("expected pool empty, got %v", err)
	}
}

type recordingSink struct {
	types []string
}

func (r *recordingSink) Publish(_ context.Context, _ string, ev engine.Event) error {
	r.types = append(r.types, ev.Type)
	return nil
}

func newTestService(sink app.EventSink) (*app.QuizService, *memory.ResultStore) {
	results := memory.NewResultStore()
	pools := memory.NewPoolRepository(memory.NewFallbackPoolLoader(), 5*time.Minute)
	opts := []app.Option{}
	if sink != nil {
		opts = append(opts, app.WithEventSink(sink))
	}
	return app.NewQuizService(memory.NewSessionStore(), pools, results, opts...), results
}

func correctIndex(t *testing.T, id string) int {
	t.Helper()
	for _, q := range questionpool.Fallback() {
		if q.ID == id {
			return q.CorrectIndex
		}
	}
	t.Fatalf("unknown question %s", id)
	return 0
}
