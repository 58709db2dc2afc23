package pipeline

import (
	"context"
	"fmt"

	"github.com/jonathan/job-autopilot/internal/apply"
	"github.com/jonathan/job-autopilot/internal/browser"
	"github.com/jonathan/job-autopilot/internal/sources"
	"github.com/jonathan/job-autopilot/internal/types"
)

// ResumeJob re-enters the strategy chain for a paused job at the strategy
// that raised NEEDS_HUMAN, not from the start. It mutates only the job: a
// completed run's counters stay immutable, so resumed outcomes surface on
// the job record and its attempt trail.
func ResumeJob(
	ctx context.Context,
	repo Repository,
	job *types.Job,
	adapter sources.Adapter,
	automator browser.Automator,
	applicant *types.ApplicantProfile,
	policy apply.RetryPolicy,
) (apply.JobOutcome, error) {
	if job.Status != types.JobAwaitingHuman {
		return apply.JobOutcome{}, fmt.Errorf("job %s is %s, not %s", job.ID, job.Status, types.JobAwaitingHuman)
	}
	if adapter == nil {
		return apply.JobOutcome{}, fmt.Errorf("no adapter configured for source %s", job.Source)
	}
	if repo == nil {
		repo = nopRepository{}
	}

	agent := apply.NewAgent(repo, policy, applicant)
	chain := apply.BuildChain(job, adapter, automator)
	out := agent.Resume(ctx, job, chain)

	switch out.Outcome {
	case types.OutcomeSuccess:
		job.Status = types.JobApplied
		job.PauseReason = ""
	case types.OutcomeFatalFailure:
		job.Status = types.JobFailed
	case types.OutcomeNeedsHuman:
		job.PausedStrategy = out.StrategyIndex
		job.PauseReason = out.Reason
	}
	_ = repo.SaveJob(ctx, job)
	return out, nil
}

// AbandonJob marks a paused job as failed without re-entering the chain.
func AbandonJob(ctx context.Context, repo Repository, job *types.Job) error {
	if job.Status != types.JobAwaitingHuman {
		return fmt.Errorf("job %s is %s, not %s", job.ID, job.Status, types.JobAwaitingHuman)
	}
	if repo == nil {
		repo = nopRepository{}
	}
	job.Status = types.JobFailed
	return repo.SaveJob(ctx, job)
}
