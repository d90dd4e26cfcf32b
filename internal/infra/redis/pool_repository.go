package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/infra/memory"
	"adaptive-quiz-service/internal/questionpool"
)

// PoolRepository caches normalized pools in Redis as one JSON blob per pool and falls back
// to a loader on cache miss.
//
//	SET quiz:pool:{poolID} <json>  EX ttl
type PoolRepository struct {
	client *redis.Client
	loader memory.PoolLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewPoolRepository(client *redis.Client, loader memory.PoolLoader, ttl time.Duration) *PoolRepository {
	return &PoolRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *PoolRepository) GetPool(ctx context.Context, poolID string) ([]domain.Question, error) {
	if questions, ok := r.cached(ctx, poolID); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(poolID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := r.cached(ctx, poolID); ok {
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

		if data, err := json.Marshal(questions); err == nil {
			// best-effort; a failed write only costs a reload
			_ = r.client.Set(ctx, r.key(poolID), data, r.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *PoolRepository) cached(ctx context.Context, poolID string) ([]domain.Question, bool) {
	data, err := r.client.Get(ctx, r.key(poolID)).Bytes()
	if err != nil || len(data) == 0 {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil || len(questions) == 0 {
		return nil, false
	}
	return questions, true
}

func (r *PoolRepository) key(poolID string) string {
	return "quiz:pool:" + poolID
}

func (r *PoolRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
