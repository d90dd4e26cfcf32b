// Package engine implements the adaptive session state machine: it picks the next question
// for the learner's position on the level × difficulty ladder and moves that position after
// every answer.
package engine

import (
	"math/rand"
	"time"

	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/performance"
)

// Engine runs one quiz attempt. It is not safe for concurrent use; callers that share an
// engine across goroutines must serialize access.
type Engine struct {
	cfg      domain.SessionConfig
	pool     []domain.Question
	filtered []domain.Question
	state    *State

	now  func() time.Time
	rnd  *rand.Rand
	hook func(Event)
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, mainly for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRand replaces the random source used for candidate selection.
func WithRand(rnd *rand.Rand) Option {
	return func(e *Engine) {
		if rnd != nil {
			e.rnd = rnd
		}
	}
}

// WithEventHook receives every diagnostic event the engine emits. Hooks from repeated
// options all run, in the order given.
func WithEventHook(hook func(Event)) Option {
	return func(e *Engine) {
		if hook == nil {
			return
		}
		prev := e.hook
		if prev == nil {
			e.hook = hook
			return
		}
		e.hook = func(ev Event) {
			prev(ev)
			hook(ev)
		}
	}
}

// New builds an engine over an immutable question pool.
func New(pool []domain.Question, cfg domain.SessionConfig, opts ...Option) *Engine {
	e := &Engine{
		cfg:  sanitizeConfig(cfg),
		pool: append([]domain.Question(nil), pool...),
		now:  time.Now,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.filtered = e.pool
	if e.cfg.Category != "" {
		e.filtered = nil
		for _, q := range e.pool {
			if q.Category == e.cfg.Category {
				e.filtered = append(e.filtered, q)
			}
		}
		if len(e.filtered) == 0 {
			e.emit(newEvent(EventCategoryFallback, map[string]any{
				"requested": e.cfg.Category,
				"reason":    "no_questions_found",
			}))
			e.filtered = e.pool
		}
	}

	e.state = newState(e.cfg)
	e.emit(newEvent(EventSessionInit, map[string]any{
		"totalQuestions":    len(e.filtered),
		"initialLevel":      e.cfg.InitialLevel,
		"initialDifficulty": e.cfg.InitialDifficulty,
		"category":          e.cfg.Category,
		"literacyLevel":     string(e.cfg.LiteracyLevel),
	}))
	return e
}

func sanitizeConfig(cfg domain.SessionConfig) domain.SessionConfig {
	if cfg.InitialLevel == 0 {
		cfg.InitialLevel = domain.MinLevel
	}
	if cfg.LiteracyLevel == "" {
		cfg.LiteracyLevel = domain.LiteracyBeginner
	}
	if cfg.InitialDifficulty == 0 {
		cfg.InitialDifficulty = cfg.LiteracyLevel.Difficulty()
	}
	if cfg.UserName == "" {
		cfg.UserName = "User"
	}
	cfg.InitialLevel = domain.ClampInt(cfg.InitialLevel, domain.MinLevel, domain.MaxLevel)
	cfg.InitialDifficulty = domain.ClampInt(cfg.InitialDifficulty, domain.MinDifficulty, domain.MaxDifficulty)
	if cfg.QuestionLimit < 0 {
		cfg.QuestionLimit = 0
	}
	return cfg
}

// Config returns the configuration the session was started with.
func (e *Engine) Config() domain.SessionConfig {
	return e.cfg
}

// CurrentQuestion returns the question in flight, selecting one first if needed. Repeated
// calls without an answer return the same question. It reports false once the session is
// complete.
func (e *Engine) CurrentQuestion() (domain.QuestionView, bool) {
	if e.IsComplete() {
		return domain.QuestionView{}, false
	}
	if e.state.current == nil {
		next, ok := e.nextCandidate()
		if !ok {
			return domain.QuestionView{}, false
		}
		e.state.current = &next
		e.state.currentStartedAt = e.now()
	}
	return e.state.current.View(), true
}

// SubmitAnswer scores the in-flight question and adapts the ladder. It reports false, and
// changes nothing, when no question is in flight.
func (e *Engine) SubmitAnswer(selected int) (domain.AnswerResult, bool) {
	s := e.state
	if s.current == nil {
		return domain.AnswerResult{}, false
	}

	q := *s.current
	var elapsed int64
	if !s.currentStartedAt.IsZero() {
		elapsed = e.now().Sub(s.currentStartedAt).Milliseconds()
		if elapsed < 0 {
			elapsed = 0
		}
	}
	previous := s.snapshot()

	correct, points := s.recordAnswer(q, selected, elapsed)
	for _, ev := range s.applyAdaptiveRules(correct) {
		e.emit(ev)
	}

	e.emit(newEvent(EventAnswerProcessed, map[string]any{
		"questionId":  q.ID,
		"isCorrect":   correct,
		"timeTakenMs": elapsed,
		"previous": map[string]any{
			"level":        previous.CurrentLevel,
			"difficulty":   previous.CurrentDifficulty,
			"correctCount": previous.CorrectCount,
			"wrongCount":   previous.WrongCount,
			"streak":       previous.Streak,
		},
		"current": map[string]any{
			"level":          s.CurrentLevel,
			"difficulty":     s.CurrentDifficulty,
			"correctCount":   s.CorrectCount,
			"wrongCount":     s.WrongCount,
			"streak":         s.Streak,
			"dropCount":      s.DropCount,
			"promotionCount": s.PromotionCount,
		},
		"ratio": ratioField(s.Ratio()),
	}))

	s.current = nil
	s.currentStartedAt = time.Time{}

	return domain.AnswerResult{
		IsCorrect:     correct,
		CorrectAnswer: q.CorrectIndex,
		Feedback:      q.Explanation,
		PointsEarned:  points,
		Streak:        s.Streak,
		Level:         s.CurrentLevel,
		Difficulty:    s.CurrentDifficulty,
		TimeTakenMs:   elapsed,
		Score:         s.Score,
	}, true
}

// UpgradeLevel raises the level by one and restarts difficulty at the bottom. It is driven
// by the learner accepting a streak reward, not by the automatic rules, and reports false
// when the level is already at the top.
func (e *Engine) UpgradeLevel() bool {
	s := e.state
	if s.CurrentLevel >= domain.MaxLevel {
		return false
	}
	from := s.CurrentLevel
	s.CurrentLevel = domain.ClampInt(s.CurrentLevel+1, domain.MinLevel, domain.MaxLevel)
	s.CurrentDifficulty = domain.MinDifficulty
	e.emit(newEvent(EventLevelUpgrade, map[string]any{
		"fromLevel": from,
		"toLevel":   s.CurrentLevel,
		"reason":    "manual_upgrade",
		"streak":    s.Streak,
	}))
	return true
}

// IsComplete reports whether the question limit has been reached, or whether the pool is
// exhausted with nothing in flight.
func (e *Engine) IsComplete() bool {
	s := e.state
	if e.cfg.QuestionLimit > 0 && s.TotalAnswered >= e.cfg.QuestionLimit {
		return true
	}
	return s.current == nil && !e.hasRemaining()
}

// Progress reports how far into the session the learner is.
func (e *Engine) Progress() domain.Progress {
	total := e.QuestionCount()
	current := e.state.TotalAnswered
	if e.state.current != nil {
		current++
	}
	return domain.Progress{Current: min(current, total), Total: total}
}

// QuestionCount is the planned session length.
func (e *Engine) QuestionCount() int {
	if e.cfg.QuestionLimit > 0 {
		return min(e.cfg.QuestionLimit, len(e.filtered))
	}
	return len(e.filtered)
}

// State returns the live counters.
func (e *Engine) State() domain.StateSnapshot {
	return e.state.snapshot()
}

// Snapshot deep-copies the state for aggregation.
func (e *Engine) Snapshot() domain.SessionSnapshot {
	s := e.state
	return domain.SessionSnapshot{
		State:       s.snapshot(),
		History:     append([]domain.HistoryEntry(nil), s.History...),
		AnsweredIDs: append([]string(nil), s.answeredOrder...),
	}
}

// PerformanceSummary aggregates the session so far.
func (e *Engine) PerformanceSummary() domain.PerformanceSummary {
	return performance.Summarize(e.cfg, e.Snapshot())
}

// LastDifficultyIncreaseAtStreak exposes the streak-bump bookkeeping for inspection.
func (e *Engine) LastDifficultyIncreaseAtStreak() int {
	return e.state.LastDifficultyIncreaseAtStreak
}

func (e *Engine) hasRemaining() bool {
	for _, q := range e.filtered {
		if !e.state.hasAnswered(q.ID) {
			return true
		}
	}
	return false
}

// nextCandidate prefers questions matching both level and difficulty, then level only,
// then difficulty only, then anything unanswered.
func (e *Engine) nextCandidate() (domain.Question, bool) {
	var remaining []domain.Question
	for _, q := range e.filtered {
		if !e.state.hasAnswered(q.ID) {
			remaining = append(remaining, q)
		}
	}
	if len(remaining) == 0 {
		return domain.Question{}, false
	}

	level, difficulty := e.state.CurrentLevel, e.state.CurrentDifficulty
	tiers := []func(domain.Question) bool{
		func(q domain.Question) bool { return q.Level == level && q.Difficulty == difficulty },
		func(q domain.Question) bool { return q.Level == level },
		func(q domain.Question) bool { return q.Difficulty == difficulty },
	}
	for _, match := range tiers {
		var subset []domain.Question
		for _, q := range remaining {
			if match(q) {
				subset = append(subset, q)
			}
		}
		if len(subset) > 0 {
			return e.pick(subset), true
		}
	}
	return e.pick(remaining), true
}

// pick shuffles a copy and takes the first element.
func (e *Engine) pick(questions []domain.Question) domain.Question {
	shuffled := append([]domain.Question(nil), questions...)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := e.rnd.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[0]
}

func (e *Engine) emit(ev Event) {
	if e.hook == nil {
		return
	}
	ev.At = e.now()
	e.hook(ev)
}
