package types

import (
	"time"

	"github.com/google/uuid"
)

// JobSource identifies the external board a posting was discovered on.
type JobSource string

// Known job sources.
const (
	SourceGreenhouse JobSource = "greenhouse"
	SourceLever      JobSource = "lever"
	SourceWebBoard   JobSource = "webboard"
)

// ApplicationType declares how a posting expects applications to be
// submitted. It determines the initial entry point of the strategy chain;
// the chain may fall through to less automated strategies but never
// escalates to a more automated one.
type ApplicationType string

// Application type values.
const (
	ApplyStructuredAPI    ApplicationType = "structured_api"
	ApplyEasyApply        ApplicationType = "easy_apply"
	ApplyExternalAssisted ApplicationType = "external_assisted"
)

// JobStatus represents the lifecycle state of a job within a run.
type JobStatus string

// Job status values exposed externally. Transitions follow the pipeline
// order: discovered -> scored -> eligible -> content_ready -> one of
// (applied | failed | awaiting_human). A job below threshold or with a
// per-job stage failure becomes skipped.
const (
	JobDiscovered    JobStatus = "discovered"
	JobScored        JobStatus = "scored"
	JobEligible      JobStatus = "eligible"
	JobContentReady  JobStatus = "content_ready"
	JobAwaitingHuman JobStatus = "awaiting_human"
	JobApplied       JobStatus = "applied"
	JobFailed        JobStatus = "failed"
	JobSkipped       JobStatus = "skipped"
)

// IsTerminal reports whether the job status is final for the run.
// awaiting_human is paused rather than terminal: a human may later resume
// or abandon the job, but it does not block run completion.
func (s JobStatus) IsTerminal() bool {
	return s == JobApplied || s == JobFailed || s == JobSkipped
}

// GeneratedContent holds the tailored application content produced by the
// content gateway for one job. All fields are nil-equivalent until generated.
type GeneratedContent struct {
	Summary      string            `json:"summary"`
	ResumePoints []string          `json:"resume_points"`
	CoverLetter  string            `json:"cover_letter"`
	Answers      map[string]string `json:"answers,omitempty"`
}

// Job represents one posting discovered during a run.
// Jobs are created by source search and mutated by exactly one pipeline
// stage at a time; they are never deleted, only status-transitioned.
type Job struct {
	ID               uuid.UUID          `json:"id"`
	RunID            uuid.UUID          `json:"run_id"`
	Source           JobSource          `json:"source"`
	Title            string             `json:"title"`
	Company          string             `json:"company"`
	Location         string             `json:"location,omitempty"`
	Description      string             `json:"description,omitempty"`
	URL              string             `json:"url"`
	ApplicationType  ApplicationType    `json:"application_type"`
	RelevanceScore   *float64           `json:"relevance_score,omitempty"`
	ScoringBreakdown map[string]float64 `json:"scoring_breakdown,omitempty"`
	Approved         bool               `json:"approved"`
	Content          *GeneratedContent  `json:"content,omitempty"`
	Status           JobStatus          `json:"status"`

	// PausedStrategy is the index into the job's strategy chain at which a
	// NEEDS_HUMAN outcome paused it. Resumption re-enters the chain at this
	// index, not at the start. Meaningful only while Status is awaiting_human.
	PausedStrategy int    `json:"paused_strategy,omitempty"`
	PauseReason    string `json:"pause_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Relevance is the scoring gateway result for one job: a 0-100 score plus
// the per-feature contributions that produced it.
type Relevance struct {
	Score     float64            `json:"relevance_score"`
	Breakdown map[string]float64 `json:"breakdown"`
}
