// Package scoring provides the relevance-scoring gateway: given a job, it
// returns a 0-100 relevance score and a per-feature breakdown. Scoring
// failures are always per-job; they never abort a run.
package scoring

import (
	"context"

	"github.com/jonathan/job-autopilot/internal/types"
)

// Gateway scores a job against the applicant's profile.
type Gateway interface {
	Score(ctx context.Context, job *types.Job) (*types.Relevance, error)
}
