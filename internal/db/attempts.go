package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/job-autopilot/internal/types"
)

// AppendAttempt inserts one attempt record. Attempts are append-only
// history; there is no update path.
func (db *DB) AppendAttempt(ctx context.Context, attempt *types.ApplicationAttempt) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO application_attempts (id, job_id, strategy, outcome, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		attempt.ID, attempt.JobID, attempt.Strategy, attempt.Outcome,
		attempt.Error, attempt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append attempt: %w", err)
	}
	return nil
}

// ListAttempts returns all attempts for a job in chronological order.
func (db *DB) ListAttempts(ctx context.Context, jobID uuid.UUID) ([]*types.ApplicationAttempt, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, job_id, strategy, outcome, error, created_at
		 FROM application_attempts WHERE job_id = $1 ORDER BY created_at`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*types.ApplicationAttempt
	for rows.Next() {
		var a types.ApplicationAttempt
		if err := rows.Scan(&a.ID, &a.JobID, &a.Strategy, &a.Outcome, &a.Error, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, &a)
	}
	return attempts, rows.Err()
}
