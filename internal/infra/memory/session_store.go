package memory

import (
	"context"
	"sync"
	"time"

	"adaptive-quiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository. Sessions idle for
// longer than the TTL are evicted; a zero TTL keeps them until deleted.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	session  *app.Session
	lastSeen time.Time
}

func NewSessionStore() *SessionStore {
	return NewSessionStoreWithTTL(0)
}

// NewSessionStoreWithTTL evicts sessions not touched within ttl.
func NewSessionStoreWithTTL(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

func (s *SessionStore) Save(_ context.Context, session *app.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.evictLocked(now)
	s.sessions[session.ID()] = &sessionEntry{session: session, lastSeen: now}
	return nil
}

// Get returns a live session and slides its expiry.
func (s *SessionStore) Get(_ context.Context, id string) (*app.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.expired(entry, now) {
		delete(s.sessions, id)
		return nil, false
	}
	entry.lastSeen = now
	return entry.session, true
}

func (s *SessionStore) Delete(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports how many sessions are live.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(s.now())
	return len(s.sessions)
}

func (s *SessionStore) evictLocked(now time.Time) {
	for id, entry := range s.sessions {
		if s.expired(entry, now) {
			delete(s.sessions, id)
		}
	}
}

func (s *SessionStore) expired(entry *sessionEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(entry.lastSeen) > s.ttl
}
