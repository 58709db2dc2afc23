package types

import (
	"time"

	"github.com/google/uuid"
)

// Outcome classifies the result of a single submission try.
type Outcome string

// Outcome values.
const (
	OutcomeSuccess          Outcome = "success"
	OutcomeRetryableFailure Outcome = "retryable_failure"
	OutcomeFatalFailure     Outcome = "fatal_failure"
	OutcomeNeedsHuman       Outcome = "needs_human"
)

// ApplicationAttempt records one submission try for a job via one strategy.
// Attempts form an append-only audit trail and are never mutated after
// creation.
type ApplicationAttempt struct {
	ID        uuid.UUID `json:"id"`
	JobID     uuid.UUID `json:"job_id"`
	Strategy  string    `json:"strategy"`
	Outcome   Outcome   `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAttempt creates an attempt record for a job.
func NewAttempt(jobID uuid.UUID, strategy string, outcome Outcome, detail string) *ApplicationAttempt {
	return &ApplicationAttempt{
		ID:        uuid.New(),
		JobID:     jobID,
		Strategy:  strategy,
		Outcome:   outcome,
		Error:     detail,
		CreatedAt: time.Now().UTC(),
	}
}
