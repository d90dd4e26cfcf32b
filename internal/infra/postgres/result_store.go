package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"adaptive-quiz-service/internal/domain"
)

type quizResult struct {
	bun.BaseModel `bun:"table:quiz_results"`

	ID         string                    `bun:"id,pk"`
	SessionID  string                    `bun:"session_id,notnull"`
	UserID     string                    `bun:"user_id,notnull"`
	Accuracy   int                       `bun:"accuracy,notnull"`
	TotalScore int                       `bun:"total_score,notnull"`
	FinalLevel int                       `bun:"final_level,notnull"`
	Summary    domain.PerformanceSummary `bun:"summary,type:jsonb,notnull"`
	Profile    domain.CognitiveProfile   `bun:"profile,type:jsonb,notnull"`
	CreatedAt  time.Time                 `bun:"created_at,notnull"`
}

// ResultStore persists finished sessions through bun.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) SaveResult(ctx context.Context, result domain.StoredResult) error {
	row := &quizResult{
		ID:         result.ID,
		SessionID:  result.SessionID,
		UserID:     result.UserID,
		Accuracy:   result.Summary.Accuracy,
		TotalScore: result.Summary.TotalScore,
		FinalLevel: result.Summary.FinalLevel,
		Summary:    result.Summary,
		Profile:    result.Profile,
		CreatedAt:  result.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *ResultStore) LatestResult(ctx context.Context, userID string) (domain.StoredResult, error) {
	var row quizResult
	err := s.db.NewSelect().
		Model(&row).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StoredResult{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.StoredResult{}, fmt.Errorf("load result: %w", err)
	}
	return domain.StoredResult{
		ID:        row.ID,
		SessionID: row.SessionID,
		UserID:    row.UserID,
		Summary:   row.Summary,
		Profile:   row.Profile,
		CreatedAt: row.CreatedAt,
	}, nil
}
