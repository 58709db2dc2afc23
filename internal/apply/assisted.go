package apply

import (
	"context"

	"github.com/jonathan/job-autopilot/internal/browser"
	"github.com/jonathan/job-autopilot/internal/types"
)

// StrategyAssisted is the name recorded on attempts handed off to a human.
const StrategyAssisted = "assisted_external"

// AssistedStrategy pre-fills known fields into the external page and
// returns NEEDS_HUMAN unconditionally. Submission is never automatic here:
// the strategy exists to shorten manual completion, not to replace it.
type AssistedStrategy struct {
	Automator browser.Automator
}

// NewAssisted creates the human-in-the-loop strategy.
func NewAssisted(automator browser.Automator) *AssistedStrategy {
	return &AssistedStrategy{Automator: automator}
}

// Name identifies the strategy on attempt records.
func (s *AssistedStrategy) Name() string { return StrategyAssisted }

// Attempt pre-fills what it can. Pre-fill failures do not change the
// outcome: the job is handed to a human either way.
func (s *AssistedStrategy) Attempt(ctx context.Context, job *types.Job, applicant *types.ApplicantProfile) Result {
	prefilled := 0
	if s.Automator != nil {
		if session, err := s.Automator.Open(ctx, job.URL); err == nil {
			if fields, err := session.DetectFields(ctx); err == nil {
				for _, field := range fields {
					if field.Kind == browser.FieldFile {
						continue
					}
					value := fieldValue(field, job, applicant)
					if value == "" {
						continue
					}
					if err := session.Fill(ctx, field, value); err == nil {
						prefilled++
					}
				}
			}
			// The session is left open deliberately so the human can finish
			// the pre-filled form; only detached sessions get closed here.
			if prefilled == 0 {
				session.Close()
			}
		}
	}

	detail := "manual completion required"
	if prefilled > 0 {
		detail = "form pre-filled, manual review and submission required"
	}
	return needsHuman(&ObstacleDetectedError{URL: job.URL, Detail: detail})
}
