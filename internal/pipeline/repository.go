// Package pipeline provides the run orchestrator: the state machine driving
// search, scoring, content generation, and application across a batch of
// jobs, with per-job failure isolation and single-writer counter
// aggregation.
package pipeline

import (
	"context"

	"github.com/jonathan/job-autopilot/internal/types"
)

// Repository is the persistence boundary for runs, jobs, and attempts.
// The orchestrator treats persistence as best-effort: a storage failure
// never aborts a run.
type Repository interface {
	SaveRun(ctx context.Context, run *types.Run) error
	SaveJob(ctx context.Context, job *types.Job) error
	AppendAttempt(ctx context.Context, attempt *types.ApplicationAttempt) error
}

// nopRepository is used when no database is configured.
type nopRepository struct{}

func (nopRepository) SaveRun(context.Context, *types.Run) error                   { return nil }
func (nopRepository) SaveJob(context.Context, *types.Job) error                   { return nil }
func (nopRepository) AppendAttempt(context.Context, *types.ApplicationAttempt) error { return nil }
