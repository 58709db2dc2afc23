package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/job-autopilot/internal/types"
)

// SaveJob inserts or updates a job record. Scoring breakdown and generated
// content are stored as JSON columns.
func (db *DB) SaveJob(ctx context.Context, job *types.Job) error {
	var breakdownJSON, contentJSON []byte
	var err error
	if job.ScoringBreakdown != nil {
		if breakdownJSON, err = json.Marshal(job.ScoringBreakdown); err != nil {
			return fmt.Errorf("failed to marshal scoring breakdown: %w", err)
		}
	}
	if job.Content != nil {
		if contentJSON, err = json.Marshal(job.Content); err != nil {
			return fmt.Errorf("failed to marshal generated content: %w", err)
		}
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO jobs (id, run_id, source, title, company, location, description, url,
		                   application_type, relevance_score, scoring_breakdown, approved,
		                   content, status, paused_strategy, pause_reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 ON CONFLICT (id) DO UPDATE SET
		   relevance_score = $10, scoring_breakdown = $11, approved = $12,
		   content = $13, status = $14, paused_strategy = $15, pause_reason = $16`,
		job.ID, job.RunID, job.Source, job.Title, job.Company, job.Location,
		job.Description, job.URL, job.ApplicationType, job.RelevanceScore,
		breakdownJSON, job.Approved, contentJSON, job.Status,
		job.PausedStrategy, job.PauseReason, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by id. Returns (nil, nil) when not found.
func (db *DB) GetJob(ctx context.Context, jobID uuid.UUID) (*types.Job, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, run_id, source, title, company, location, description, url,
		        application_type, relevance_score, scoring_breakdown, approved,
		        content, status, paused_strategy, pause_reason, created_at
		 FROM jobs WHERE id = $1`,
		jobID,
	)
	job, err := scanJob(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// ListJobs returns all jobs belonging to a run.
func (db *DB) ListJobs(ctx context.Context, runID uuid.UUID) ([]*types.Job, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, source, title, company, location, description, url,
		        application_type, relevance_score, scoring_breakdown, approved,
		        content, status, paused_strategy, pause_reason, created_at
		 FROM jobs WHERE run_id = $1 ORDER BY created_at`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*types.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ListAwaitingHuman returns every paused job across runs, oldest first.
func (db *DB) ListAwaitingHuman(ctx context.Context) ([]*types.Job, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, source, title, company, location, description, url,
		        application_type, relevance_score, scoring_breakdown, approved,
		        content, status, paused_strategy, pause_reason, created_at
		 FROM jobs WHERE status = $1 ORDER BY created_at`,
		types.JobAwaitingHuman,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list paused jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*types.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func scanJob(row pgx.Row) (*types.Job, error) {
	var job types.Job
	var breakdownJSON, contentJSON []byte
	err := row.Scan(&job.ID, &job.RunID, &job.Source, &job.Title, &job.Company,
		&job.Location, &job.Description, &job.URL, &job.ApplicationType,
		&job.RelevanceScore, &breakdownJSON, &job.Approved, &contentJSON,
		&job.Status, &job.PausedStrategy, &job.PauseReason, &job.CreatedAt)
	if err != nil {
		return nil, err
	}
	if breakdownJSON != nil {
		_ = json.Unmarshal(breakdownJSON, &job.ScoringBreakdown)
	}
	if contentJSON != nil {
		_ = json.Unmarshal(contentJSON, &job.Content)
	}
	return &job, nil
}
