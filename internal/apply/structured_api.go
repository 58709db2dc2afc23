package apply

import (
	"context"
	"errors"

	"github.com/jonathan/job-autopilot/internal/sources"
	"github.com/jonathan/job-autopilot/internal/types"
)

// StrategyStructuredAPI is the name recorded on attempts made via the
// source's structured submission API.
const StrategyStructuredAPI = "structured_api"

// StructuredAPIStrategy submits through the source's application API. It is
// the most automated strategy and only succeeds on a 2xx submission. A
// missing capability or a rejected submission is fatal for this strategy
// only; the chain proceeds to the next one.
type StructuredAPIStrategy struct {
	Adapter sources.Adapter
}

// NewStructuredAPI creates the API submission strategy for one source.
func NewStructuredAPI(adapter sources.Adapter) *StructuredAPIStrategy {
	return &StructuredAPIStrategy{Adapter: adapter}
}

// Name identifies the strategy on attempt records.
func (s *StructuredAPIStrategy) Name() string { return StrategyStructuredAPI }

// Attempt submits via the API. A job whose declared application type
// contradicts the adapter's actual capability fails here with a capability
// error rather than aborting the run.
func (s *StructuredAPIStrategy) Attempt(ctx context.Context, job *types.Job, applicant *types.ApplicantProfile) Result {
	if !s.Adapter.SupportsApplicationAPI() {
		return fatal(&sources.CapabilityError{
			Source:     s.Adapter.Name(),
			Capability: "structured application API",
		})
	}

	err := s.Adapter.SubmitViaAPI(ctx, job, applicant)
	if err == nil {
		return success()
	}

	var te *sources.TransportError
	if errors.As(err, &te) {
		return retryable(err)
	}

	var ce *sources.CapabilityError
	if errors.As(err, &ce) {
		return fatal(err)
	}

	// Non-2xx and payload rejections: fatal for this strategy.
	return fatal(err)
}
