package app

import (
	"sync"
	"time"

	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/engine"
)

// Session wraps one adaptive engine so concurrent requests for the same attempt are
// serialized, and fans the engine's events out to subscribers.
type Session struct {
	id        string
	userID    string
	poolID    string
	createdAt time.Time
	now       func() time.Time

	mu          sync.Mutex
	engine      *engine.Engine
	pending     []engine.Event
	subscribers map[chan engine.Event]struct{}
	closed      bool
}

// NewSession builds a session over an already normalized pool.
func NewSession(id, userID, poolID string, pool []domain.Question, cfg domain.SessionConfig, opts ...engine.Option) *Session {
	return newSessionWithClock(id, userID, poolID, pool, cfg, time.Now, opts...)
}

func newSessionWithClock(id, userID, poolID string, pool []domain.Question, cfg domain.SessionConfig, now func() time.Time, opts ...engine.Option) *Session {
	s := &Session{
		id:          id,
		userID:      userID,
		poolID:      poolID,
		createdAt:   now(),
		now:         now,
		subscribers: make(map[chan engine.Event]struct{}),
	}
	// The hook runs inside engine calls, which only happen with s.mu held.
	opts = append([]engine.Option{engine.WithClock(now)}, opts...)
	opts = append(opts, engine.WithEventHook(s.onEventLocked))
	s.engine = engine.New(pool, cfg, opts...)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// UserID returns the owner of the session.
func (s *Session) UserID() string { return s.userID }

// PoolID returns the question pool the session draws from.
func (s *Session) PoolID() string { return s.poolID }

// CreatedAt returns when the session started.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Config returns the session configuration.
func (s *Session) Config() domain.SessionConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Config()
}

// Snapshot returns the state, history and answered ids.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Snapshot()
}

func (s *Session) currentQuestion() (domain.QuestionView, domain.Progress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.engine.CurrentQuestion()
	return q, s.engine.Progress(), ok
}

func (s *Session) submitAnswer(selected int) (domain.AnswerResult, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.engine.SubmitAnswer(selected)
	return res, ok, s.engine.IsComplete()
}

func (s *Session) upgradeLevel() (domain.StateSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.engine.UpgradeLevel()
	return s.engine.State(), ok
}

func (s *Session) progress() domain.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Progress()
}

func (s *Session) state() domain.StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.State()
}

func (s *Session) isComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.IsComplete()
}

func (s *Session) summary() domain.PerformanceSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.PerformanceSummary()
}

// drainEvents hands back events produced since the last call so they can be published
// outside the lock.
func (s *Session) drainEvents() []engine.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

func (s *Session) subscribe() (<-chan engine.Event, func()) {
	ch := make(chan engine.Event, 16)

	s.mu.Lock()
	if s.closed {
		close(ch)
		s.mu.Unlock()
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// close ends every subscription; later subscribers get an already closed channel.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) onEventLocked(ev engine.Event) {
	s.pending = append(s.pending, ev)
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Full buffer: drop the oldest event.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
