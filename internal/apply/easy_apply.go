package apply

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/job-autopilot/internal/browser"
	"github.com/jonathan/job-autopilot/internal/types"
)

// StrategyEasyApply is the name recorded on attempts made by driving the
// posting's embedded quick-apply form.
const StrategyEasyApply = "automated_easy_apply"

// EasyApplyStrategy drives the browser facility to detect the posting's
// form fields, populate them from applicant data, and submit. A detected
// bot challenge yields NEEDS_HUMAN immediately with no retry; a transient
// rendering or timeout failure is retryable; a structurally unrecognized
// form is fatal for this strategy and the chain falls through.
type EasyApplyStrategy struct {
	Automator browser.Automator
}

// NewEasyApply creates the automated form strategy.
func NewEasyApply(automator browser.Automator) *EasyApplyStrategy {
	return &EasyApplyStrategy{Automator: automator}
}

// Name identifies the strategy on attempt records.
func (s *EasyApplyStrategy) Name() string { return StrategyEasyApply }

// Attempt opens the posting, fills the detected form, and submits it.
func (s *EasyApplyStrategy) Attempt(ctx context.Context, job *types.Job, applicant *types.ApplicantProfile) Result {
	session, err := s.Automator.Open(ctx, job.URL)
	if err != nil {
		// Navigation and rendering failures are transient.
		return retryable(fmt.Errorf("opening %s: %w", job.URL, err))
	}
	defer session.Close()

	fields, err := session.DetectFields(ctx)
	if err != nil {
		return retryable(fmt.Errorf("detecting fields: %w", err))
	}
	if len(fields) == 0 {
		return fatal(&StructuralMismatchError{URL: job.URL, Detail: "no application form found"})
	}

	filled := 0
	for _, field := range fields {
		value := fieldValue(field, job, applicant)
		if value == "" {
			if field.Required && field.Kind != browser.FieldFile {
				return fatal(&StructuralMismatchError{
					URL:    job.URL,
					Detail: fmt.Sprintf("no value for required field %q", field.Label),
				})
			}
			continue
		}
		if err := session.Fill(ctx, field, value); err != nil {
			return retryable(fmt.Errorf("filling %q: %w", field.Label, err))
		}
		filled++
	}
	if filled == 0 {
		return fatal(&StructuralMismatchError{URL: job.URL, Detail: "no recognizable fields to fill"})
	}

	result, err := session.Submit(ctx)
	if err != nil {
		return retryable(fmt.Errorf("submitting: %w", err))
	}
	if result.ChallengeDetected {
		return needsHuman(&ObstacleDetectedError{URL: job.URL, Detail: "bot challenge on submission"})
	}
	if !result.OK {
		// Submission went through the motions but the page did not confirm.
		return retryable(fmt.Errorf("submission not confirmed for %s", job.URL))
	}
	return success()
}

// fieldValue maps a detected field to the applicant's data by matching the
// field label and selector against known keywords, falling back to
// generated screening answers keyed by the field label.
func fieldValue(field browser.FieldDescriptor, job *types.Job, applicant *types.ApplicantProfile) string {
	key := strings.ToLower(field.Label + " " + field.Selector)

	switch {
	case containsAny(key, "first name", "first_name", "firstname"):
		first, _ := splitOnSpace(applicant.Name)
		return first
	case containsAny(key, "last name", "last_name", "lastname", "surname"):
		_, last := splitOnSpace(applicant.Name)
		return last
	case containsAny(key, "full name", "your name", "name"):
		return applicant.Name
	case containsAny(key, "email"):
		return applicant.Email
	case containsAny(key, "phone", "mobile"):
		return applicant.Phone
	case containsAny(key, "cover letter", "cover_letter", "coverletter"):
		if job.Content != nil {
			return job.Content.CoverLetter
		}
	case containsAny(key, "summary", "about you", "introduction"):
		if job.Content != nil {
			return job.Content.Summary
		}
		return applicant.Summary
	case containsAny(key, "resume", "cv"):
		return applicant.ResumeURL
	}

	var generated map[string]string
	if job.Content != nil {
		generated = job.Content.Answers
	}
	return applicant.AnswerFor(field.Label, generated)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func splitOnSpace(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
