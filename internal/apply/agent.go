package apply

import (
	"context"
	"fmt"

	"github.com/jonathan/job-autopilot/internal/types"
)

// Recorder persists the append-only attempt audit trail.
type Recorder interface {
	AppendAttempt(ctx context.Context, attempt *types.ApplicationAttempt) error
}

// JobOutcome is the per-job result the agent reports back to the
// orchestrator. StrategyIndex identifies the chain position that produced
// the outcome; for NEEDS_HUMAN it is the index resumption re-enters at.
type JobOutcome struct {
	Outcome       types.Outcome
	Reason        string
	Strategy      string
	StrategyIndex int
}

// Agent executes the strategy chain for one job: strategies in order, each
// retried with backoff on RETRYABLE_FAILURE up to the policy budget, one
// attempt record per try, stopping at the first SUCCESS or NEEDS_HUMAN
// across the whole chain.
type Agent struct {
	Recorder  Recorder
	Policy    RetryPolicy
	Applicant *types.ApplicantProfile
}

// NewAgent creates an apply agent with the given recorder and policy.
func NewAgent(recorder Recorder, policy RetryPolicy, applicant *types.ApplicantProfile) *Agent {
	if policy.MaxRetries <= 0 {
		policy.MaxRetries = DefaultRetryPolicy().MaxRetries
	}
	return &Agent{Recorder: recorder, Policy: policy, Applicant: applicant}
}

// Apply runs the chain from the beginning.
func (a *Agent) Apply(ctx context.Context, job *types.Job, chain []Strategy) JobOutcome {
	return a.applyFrom(ctx, job, chain, 0)
}

// Resume re-enters the chain at the strategy that raised NEEDS_HUMAN, not
// from the start.
func (a *Agent) Resume(ctx context.Context, job *types.Job, chain []Strategy) JobOutcome {
	start := job.PausedStrategy
	if start < 0 || start >= len(chain) {
		start = 0
	}
	return a.applyFrom(ctx, job, chain, start)
}

func (a *Agent) applyFrom(ctx context.Context, job *types.Job, chain []Strategy, start int) JobOutcome {
	if len(chain) == 0 {
		return JobOutcome{
			Outcome: types.OutcomeFatalFailure,
			Reason:  "no applicable strategy for job",
		}
	}

	var tried []string
	for i := start; i < len(chain); i++ {
		if err := ctx.Err(); err != nil {
			// Cancelled between strategies. Nothing is in flight, so stop
			// here instead of starting a fresh strategy.
			return JobOutcome{
				Outcome:       types.OutcomeRetryableFailure,
				Reason:        fmt.Sprintf("run cancelled: %v", err),
				StrategyIndex: i,
			}
		}
		strategy := chain[i]
		tried = append(tried, strategy.Name())

	retries:
		for try := 1; try <= a.Policy.MaxRetries; try++ {
			res := a.attempt(ctx, strategy, job)
			a.record(context.WithoutCancel(ctx), job, strategy.Name(), res)

			switch res.Outcome {
			case types.OutcomeSuccess:
				return JobOutcome{
					Outcome:       types.OutcomeSuccess,
					Strategy:      strategy.Name(),
					StrategyIndex: i,
				}

			case types.OutcomeNeedsHuman:
				return JobOutcome{
					Outcome:       types.OutcomeNeedsHuman,
					Reason:        res.Reason,
					Strategy:      strategy.Name(),
					StrategyIndex: i,
				}

			case types.OutcomeFatalFailure:
				// Fatal for this strategy only; fall through to the next.
				break retries

			case types.OutcomeRetryableFailure:
				if try == a.Policy.MaxRetries {
					// Budget exhausted: treated as fatal for this strategy.
					break retries
				}
				if !wait(ctx, a.Policy.Delay(try)) {
					// Run cancelled during backoff. The in-flight attempt
					// already finished and was recorded; report the job as
					// retryable so the orchestrator leaves it unconsumed.
					return JobOutcome{
						Outcome:       types.OutcomeRetryableFailure,
						Reason:        fmt.Sprintf("cancelled during backoff: %s", res.Reason),
						Strategy:      strategy.Name(),
						StrategyIndex: i,
					}
				}
			}
		}
	}

	err := &ExhaustedRetriesError{Strategies: tried}
	return JobOutcome{
		Outcome:       types.OutcomeFatalFailure,
		Reason:        err.Error(),
		StrategyIndex: len(chain) - 1,
	}
}

// attempt executes one strategy try on a context detached from run-level
// cancellation: aborting a submission already on the wire risks a duplicate
// application, so an in-flight attempt always completes or times out on its
// own. Cancellation is honored between attempts, in the backoff wait above.
func (a *Agent) attempt(ctx context.Context, strategy Strategy, job *types.Job) Result {
	timeout := a.Policy.AttemptTimeout
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	return strategy.Attempt(attemptCtx, job, a.Applicant)
}

// record appends one attempt to the audit trail, best-effort.
func (a *Agent) record(ctx context.Context, job *types.Job, strategy string, res Result) {
	if a.Recorder == nil {
		return
	}
	_ = a.Recorder.AppendAttempt(ctx, types.NewAttempt(job.ID, strategy, res.Outcome, res.Reason))
}
