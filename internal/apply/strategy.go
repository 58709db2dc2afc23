package apply

import (
	"context"

	"github.com/jonathan/job-autopilot/internal/types"
)

// Result is the uniform outcome contract every strategy returns.
type Result struct {
	Outcome types.Outcome
	// Reason is the human-readable failure or pause explanation. For
	// NEEDS_HUMAN it names the specific obstacle so the human can resolve
	// it before resuming.
	Reason string
	// Err carries the typed error behind the outcome, when there is one.
	Err error
}

func success() Result {
	return Result{Outcome: types.OutcomeSuccess}
}

func retryable(err error) Result {
	return Result{Outcome: types.OutcomeRetryableFailure, Reason: err.Error(), Err: err}
}

func fatal(err error) Result {
	return Result{Outcome: types.OutcomeFatalFailure, Reason: err.Error(), Err: err}
}

func needsHuman(err error) Result {
	return Result{Outcome: types.OutcomeNeedsHuman, Reason: err.Error(), Err: err}
}

// Strategy is one way of submitting an application. Attempt never panics
// and never returns a Go error: all failures are classified into the
// outcome taxonomy so the chain can decide to retry, fall through, or pause.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, job *types.Job, applicant *types.ApplicantProfile) Result
}
