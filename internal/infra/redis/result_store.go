package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"adaptive-quiz-service/internal/domain"
)

// maxResultsPerUser bounds the per-user history list.
const maxResultsPerUser = 50

// ResultStore keeps each user's results as a JSON list, newest first.
//
//	LPUSH quiz:results:{userID} <json>
type ResultStore struct {
	client *redis.Client
}

func NewResultStore(client *redis.Client) *ResultStore {
	return &ResultStore{client: client}
}

func (s *ResultStore) SaveResult(ctx context.Context, result domain.StoredResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	key := s.key(result.UserID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, maxResultsPerUser-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *ResultStore) LatestResult(ctx context.Context, userID string) (domain.StoredResult, error) {
	data, err := s.client.LIndex(ctx, s.key(userID), 0).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.StoredResult{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.StoredResult{}, fmt.Errorf("load result: %w", err)
	}
	var result domain.StoredResult
	if err := json.Unmarshal(data, &result); err != nil {
		return domain.StoredResult{}, fmt.Errorf("unmarshal result: %w", err)
	}
	return result, nil
}

func (s *ResultStore) key(userID string) string {
	return "quiz:results:" + userID
}
