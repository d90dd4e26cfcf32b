package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/questionpool"
)

// PoolLoader loads raw question records from the question_sets JSONB column.
type PoolLoader struct {
	pool *pgxpool.Pool
}

func NewPoolLoader(pool *pgxpool.Pool) *PoolLoader {
	return &PoolLoader{pool: pool}
}

func (l *PoolLoader) LoadPool(ctx context.Context, poolID string) ([]questionpool.Raw, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_sets WHERE id=$1`, poolID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("pool %q: %w", poolID, domain.ErrPoolEmpty)
	}
	if err != nil {
		return nil, fmt.Errorf("load pool: %w", err)
	}
	var records []questionpool.Raw
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("unmarshal pool: %w", err)
	}
	return records, nil
}

// SavePool upserts a question set.
func (l *PoolLoader) SavePool(ctx context.Context, poolID string, records []questionpool.Raw) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal pool: %w", err)
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO question_sets (id, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		poolID, string(data))
	if err != nil {
		return fmt.Errorf("save pool: %w", err)
	}
	return nil
}
