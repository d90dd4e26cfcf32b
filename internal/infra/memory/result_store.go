package memory

import (
	"context"
	"sync"

	"adaptive-quiz-service/internal/domain"
)

// ResultStore keeps finished results per user in memory, newest last.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string][]domain.StoredResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string][]domain.StoredResult)}
}

func (s *ResultStore) SaveResult(_ context.Context, result domain.StoredResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.UserID] = append(s.results[result.UserID], result)
	return nil
}

func (s *ResultStore) LatestResult(_ context.Context, userID string) (domain.StoredResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.results[userID]
	if len(list) == 0 {
		return domain.StoredResult{}, domain.ErrResultNotFound
	}
	return list[len(list)-1], nil
}
