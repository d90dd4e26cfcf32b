package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"adaptive-quiz-service/internal/cognitive"
	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/engine"
	"adaptive-quiz-service/internal/questionpool"
)

// DefaultPoolID names the pool used when a request does not pick one.
const DefaultPoolID = "default"

// SessionRepository abstracts where live sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, bool)
	Delete(ctx context.Context, id string)
}

// PoolRepository returns normalized question pools (from cache/backing store).
type PoolRepository interface {
	GetPool(ctx context.Context, poolID string) ([]domain.Question, error)
}

// ResultRepository persists finished sessions.
type ResultRepository interface {
	SaveResult(ctx context.Context, result domain.StoredResult) error
	LatestResult(ctx context.Context, userID string) (domain.StoredResult, error)
}

// StartRequest carries the learner's setup choices. Zero values fall back to defaults.
type StartRequest struct {
	UserID        string `json:"userId"`
	UserName      string `json:"name"`
	Level         int    `json:"level"`
	Literacy      string `json:"literacyLevel"`
	Category      string `json:"category"`
	QuestionLimit int    `json:"questionLimit"`
	PoolID        string `json:"pool"`
}

// SessionInfo describes a freshly started session.
type SessionInfo struct {
	ID        string               `json:"id"`
	UserID    string               `json:"userId"`
	PoolID    string               `json:"pool"`
	Config    domain.SessionConfig `json:"config"`
	Progress  domain.Progress      `json:"progress"`
	StartedAt time.Time            `json:"startedAt"`
}

// Option customises a QuizService.
type Option func(*QuizService)

// WithEventSink forwards engine events to sink.
func WithEventSink(sink EventSink) Option {
	return func(s *QuizService) { s.sink = sink }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *QuizService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDefaultQuestionLimit caps sessions whose request does not name a limit.
func WithDefaultQuestionLimit(n int) Option {
	return func(s *QuizService) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

// WithEngineOptions passes options to every engine the service creates. Event hooks given
// here run before the session's own hook.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *QuizService) { s.engineOpts = append(s.engineOpts, opts...) }
}

// QuizService contains the adaptive quiz use cases.
type QuizService struct {
	sessions SessionRepository
	pools    PoolRepository
	results  ResultRepository
	sink     EventSink
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string

	defaultLimit int
	engineOpts   []engine.Option
}

func NewQuizService(sessions SessionRepository, pools PoolRepository, results ResultRepository, opts ...Option) *QuizService {
	s := &QuizService{
		sessions: sessions,
		pools:    pools,
		results:  results,
		logger:   slog.Default(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession loads the pool and opens a new adaptive session for the learner.
func (s *QuizService) StartSession(ctx context.Context, req StartRequest) (SessionInfo, error) {
	poolID := req.PoolID
	if poolID == "" {
		poolID = DefaultPoolID
	}
	pool, err := s.pools.GetPool(ctx, poolID)
	if err != nil {
		return SessionInfo{}, err
	}
	if len(pool) == 0 {
		return SessionInfo{}, domain.ErrPoolEmpty
	}

	userID := req.UserID
	if userID == "" {
		userID = s.newID()
	}
	limit := req.QuestionLimit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	cfg := domain.NewSessionConfig(
		req.UserName,
		req.Level,
		domain.ParseLiteracy(req.Literacy),
		questionpool.MatchCategory(pool, req.Category),
		limit,
	)

	session := newSessionWithClock(s.newID(), userID, poolID, pool, cfg, s.now, s.engineOpts...)
	if err := s.sessions.Save(ctx, session); err != nil {
		return SessionInfo{}, fmt.Errorf("save session: %w", err)
	}
	s.publish(ctx, session)

	s.logger.Info("session started", "session", session.ID(), "user", userID, "pool", poolID, "category", cfg.Category)
	return SessionInfo{
		ID:        session.ID(),
		UserID:    userID,
		PoolID:    poolID,
		Config:    cfg,
		Progress:  session.progress(),
		StartedAt: session.CreatedAt(),
	}, nil
}

// CurrentQuestion returns the question in flight, selecting one if needed.
func (s *QuizService) CurrentQuestion(ctx context.Context, sessionID string) (domain.QuestionView, domain.Progress, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.QuestionView{}, domain.Progress{}, err
	}
	q, progress, ok := session.currentQuestion()
	if !ok {
		return domain.QuestionView{}, progress, domain.ErrSessionComplete
	}
	return q, progress, nil
}

// SubmitAnswer scores the in-flight question. The bool reports whether the session has
// nothing left to serve.
func (s *QuizService) SubmitAnswer(ctx context.Context, sessionID string, selected int) (domain.AnswerResult, bool, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.AnswerResult{}, false, err
	}
	result, ok, complete := session.submitAnswer(selected)
	if !ok {
		return domain.AnswerResult{}, complete, domain.ErrNoActiveQuestion
	}
	s.publish(ctx, session)
	if err := s.sessions.Save(ctx, session); err != nil {
		s.logger.Warn("session save failed", "session", sessionID, "err", err)
	}
	return result, complete, nil
}

// UpgradeLevel accepts a streak reward: level up, difficulty back to 1.
func (s *QuizService) UpgradeLevel(ctx context.Context, sessionID string) (domain.StateSnapshot, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.StateSnapshot{}, err
	}
	state, ok := session.upgradeLevel()
	if !ok {
		return state, domain.ErrUpgradeUnavailable
	}
	s.publish(ctx, session)
	if err := s.sessions.Save(ctx, session); err != nil {
		s.logger.Warn("session save failed", "session", sessionID, "err", err)
	}
	return state, nil
}

// Progress reports how far into the session the learner is.
func (s *QuizService) Progress(ctx context.Context, sessionID string) (domain.Progress, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.Progress{}, err
	}
	return session.progress(), nil
}

// State returns the live counters.
func (s *QuizService) State(ctx context.Context, sessionID string) (domain.StateSnapshot, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.StateSnapshot{}, err
	}
	return session.state(), nil
}

// Finish summarises the session, attaches the cognitive profile, stores the result and
// drops the session. It may be called before the session is complete.
func (s *QuizService) Finish(ctx context.Context, sessionID string) (domain.StoredResult, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.StoredResult{}, err
	}

	summary := session.summary()
	profile := cognitive.Analyze(summary)
	summary.CognitiveProfile = &profile

	result := domain.StoredResult{
		ID:        s.newID(),
		SessionID: session.ID(),
		UserID:    session.UserID(),
		Summary:   summary,
		Profile:   profile,
		CreatedAt: s.now().UTC(),
	}
	if err := s.results.SaveResult(ctx, result); err != nil {
		return domain.StoredResult{}, fmt.Errorf("save result: %w", err)
	}

	s.sessions.Delete(ctx, sessionID)
	session.close()
	s.logger.Info("session finished", "session", sessionID, "user", result.UserID,
		"answered", summary.TotalQuestions, "accuracy", summary.Accuracy, "score", summary.TotalScore)
	return result, nil
}

// Abandon drops a session without storing a result.
func (s *QuizService) Abandon(ctx context.Context, sessionID string) {
	session, ok := s.sessions.Get(ctx, sessionID)
	if !ok {
		return
	}
	s.sessions.Delete(ctx, sessionID)
	session.close()
	s.logger.Info("session abandoned", "session", sessionID)
}

// LatestResult returns the most recent stored result for a user.
func (s *QuizService) LatestResult(ctx context.Context, userID string) (domain.StoredResult, error) {
	return s.results.LatestResult(ctx, userID)
}

// Categories lists the categories available in a pool.
func (s *QuizService) Categories(ctx context.Context, poolID string) ([]string, error) {
	if poolID == "" {
		poolID = DefaultPoolID
	}
	pool, err := s.pools.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	return questionpool.Categories(pool), nil
}

// Subscribe returns a channel of adaptive events for a session. The caller must invoke
// the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(ctx context.Context, sessionID string) (<-chan engine.Event, func(), error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// IsComplete reports whether the session has nothing left to serve.
func (s *QuizService) IsComplete(ctx context.Context, sessionID string) (bool, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return session.isComplete(), nil
}

func (s *QuizService) session(ctx context.Context, id string) (*Session, error) {
	session, ok := s.sessions.Get(ctx, id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *QuizService) publish(ctx context.Context, session *Session) {
	events := session.drainEvents()
	if s.sink == nil {
		return
	}
	for _, ev := range events {
		if err := s.sink.Publish(ctx, session.ID(), ev); err != nil {
			s.logger.Warn("event publish failed", "session", session.ID(), "event", ev.Type, "err", err)
		}
	}
}
