package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/questionpool"
)

// PoolLoader fetches raw question records from a backing store (files, Postgres, ...).
type PoolLoader interface {
	LoadPool(ctx context.Context, poolID string) ([]questionpool.Raw, error)
}

// PoolRepository normalizes loaded pools once and caches them with a TTL.
type PoolRepository struct {
	loader PoolLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedPool
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewPoolRepository(loader PoolLoader, ttl time.Duration) *PoolRepository {
	return &PoolRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedPool),
	}
}

func (r *PoolRepository) GetPool(ctx context.Context, poolID string) ([]domain.Question, error) {
	if questions, ok := r.cached(poolID); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(poolID, func() (interface{}, error) {
		if questions, ok := r.cached(poolID); ok {
			return questions, nil
		}

		raw, err := r.loader.LoadPool(ctx, poolID)
		if err != nil {
			return nil, err
		}
		questions := questionpool.Normalize(raw)
		if len(questions) == 0 {
			return nil, domain.ErrPoolEmpty
		}

		r.mu.Lock()
		r.cache[poolID] = cachedPool{
			questions: questions,
			expiresAt: r.clock().Add(r.ttlWithJitterLocked()),
		}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *PoolRepository) cached(poolID string) ([]domain.Question, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[poolID]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return entry.questions, true
}

func (r *PoolRepository) ttlWithJitterLocked() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
