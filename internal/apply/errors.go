// Package apply implements the application strategy chain and the per-job
// apply agent: ordered submission strategies with a uniform result
// contract, retry-with-backoff, obstacle detection, and pause-for-human
// semantics.
package apply

import "fmt"

// StructuralMismatchError indicates a form or schema the strategy does not
// recognize. Fatal for the strategy, not for the job: the chain falls
// through to the next strategy.
type StructuralMismatchError struct {
	URL    string
	Detail string
}

func (e *StructuralMismatchError) Error() string {
	return fmt.Sprintf("unrecognized form structure at %s: %s", e.URL, e.Detail)
}

// ObstacleDetectedError indicates a bot challenge, CAPTCHA, or unexpected
// auth prompt that only a human can clear. It pauses the job.
type ObstacleDetectedError struct {
	URL    string
	Detail string
}

func (e *ObstacleDetectedError) Error() string {
	return fmt.Sprintf("obstacle detected at %s: %s", e.URL, e.Detail)
}

// ExhaustedRetriesError indicates every applicable strategy exhausted its
// retry budget. It is the only failure that propagates to job status failed.
type ExhaustedRetriesError struct {
	Strategies []string
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("all strategies exhausted: %v", e.Strategies)
}
