// Package sqlite stores finished results in a local SQLite file for single-node setups.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"adaptive-quiz-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS quiz_results (
    id          TEXT PRIMARY KEY,
    session_id  TEXT NOT NULL,
    user_id     TEXT NOT NULL,
    accuracy    INTEGER NOT NULL,
    total_score INTEGER NOT NULL,
    summary     TEXT NOT NULL,
    profile     TEXT NOT NULL,
    created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS quiz_results_user_created_idx ON quiz_results (user_id, created_at);
`

// ResultStore implements app.ResultRepository on SQLite.
type ResultStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*ResultStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &ResultStore{db: db}, nil
}

func (s *ResultStore) Close() error {
	return s.db.Close()
}

func (s *ResultStore) SaveResult(ctx context.Context, result domain.StoredResult) error {
	summary, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	profile, err := json.Marshal(result.Profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quiz_results (id, session_id, user_id, accuracy, total_score, summary, profile, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.SessionID, result.UserID, result.Summary.Accuracy, result.Summary.TotalScore,
		string(summary), string(profile), result.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *ResultStore) LatestResult(ctx context.Context, userID string) (domain.StoredResult, error) {
	var (
		result           domain.StoredResult
		summary, profile string
		createdAt        int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, user_id, summary, profile, created_at
		 FROM quiz_results WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, userID).
		Scan(&result.ID, &result.SessionID, &result.UserID, &summary, &profile, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StoredResult{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.StoredResult{}, fmt.Errorf("load result: %w", err)
	}
	if err := json.Unmarshal([]byte(summary), &result.Summary); err != nil {
		return domain.StoredResult{}, fmt.Errorf("unmarshal summary: %w", err)
	}
	if err := json.Unmarshal([]byte(profile), &result.Profile); err != nil {
		return domain.StoredResult{}, fmt.Errorf("unmarshal profile: %w", err)
	}
	result.CreatedAt = time.Unix(0, createdAt).UTC()
	return result, nil
}
