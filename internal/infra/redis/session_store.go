package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/domain"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Engines live in a local map; their state is not reconstructed from Redis.
//   - Redis holds a liveness marker and the latest state snapshot per session so other
//     instances and operators can inspect progress.
//   - The liveness key decides whether a session is still live. Local entries idle past
//     the TTL are swept on Save.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
	sessions map[string]*localSession
}

type localSession struct {
	session  *app.Session
	lastSeen time.Time
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*localSession),
	}
}

type sessionRecord struct {
	UserID    string                 `json:"userId"`
	PoolID    string                 `json:"pool"`
	CreatedAt time.Time              `json:"createdAt"`
	Snapshot  domain.SessionSnapshot `json:"snapshot"`
}

func (s *SessionStore) Save(ctx context.Context, session *app.Session) error {
	now := s.now()
	s.mu.Lock()
	s.sweepLocked(now)
	s.sessions[session.ID()] = &localSession{session: session, lastSeen: now}
	s.mu.Unlock()

	data, err := json.Marshal(sessionRecord{
		UserID:    session.UserID(),
		PoolID:    session.PoolID(),
		CreatedAt: session.CreatedAt(),
		Snapshot:  session.Snapshot(),
	})
	if err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(session.ID()), "1", s.ttl)
	pipe.Set(ctx, s.stateKey(session.ID()), data, s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Get serves the local session only while its liveness key exists, and slides the expiry of
// both keys. Redis errors are tolerated so a flaky connection does not end sessions.
func (s *SessionStore) Get(ctx context.Context, id string) (*app.Session, bool) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.ttl <= 0 {
		return entry.session, true
	}

	n, err := s.client.Exists(ctx, s.key(id)).Result()
	if err == nil && n == 0 {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		_ = s.client.Del(ctx, s.stateKey(id)).Err()
		return nil, false
	}

	s.mu.Lock()
	entry.lastSeen = s.now()
	s.mu.Unlock()

	pipe := s.client.Pipeline()
	pipe.Expire(ctx, s.key(id), s.ttl)
	pipe.Expire(ctx, s.stateKey(id), s.ttl)
	_, _ = pipe.Exec(ctx)
	return entry.session, true
}

func (s *SessionStore) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	_ = s.client.Del(ctx, s.key(id), s.stateKey(id)).Err()
}

func (s *SessionStore) sweepLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, entry := range s.sessions {
		if now.Sub(entry.lastSeen) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}

func (s *SessionStore) stateKey(id string) string {
	return "quiz:session:" + id + ":state"
}
