package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/job-autopilot/internal/types"
)

// SaveRun inserts or updates a run record, including its counters.
func (db *DB) SaveRun(ctx context.Context, run *types.Run) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO runs (id, status, found, scored, above_threshold, applied, failed, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		   status = $2, found = $3, scored = $4, above_threshold = $5,
		   applied = $6, failed = $7, completed_at = $9`,
		run.ID, run.Status,
		run.Counters.Found, run.Counters.Scored, run.Counters.AboveThreshold,
		run.Counters.Applied, run.Counters.Failed,
		run.StartedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by id. Returns (nil, nil) when not found.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*types.Run, error) {
	var run types.Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, status, found, scored, above_threshold, applied, failed, started_at, completed_at
		 FROM runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.Status,
		&run.Counters.Found, &run.Counters.Scored, &run.Counters.AboveThreshold,
		&run.Counters.Applied, &run.Counters.Failed,
		&run.StartedAt, &run.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}
