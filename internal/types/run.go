// Package types defines the shared domain types for the job application pipeline.
package types

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the lifecycle state of a pipeline run.
type RunStatus string

// Run status values exposed externally.
const (
	RunPending           RunStatus = "pending"
	RunSearching         RunStatus = "searching"
	RunScoring           RunStatus = "scoring"
	RunContentGenerating RunStatus = "content_generating"
	RunApplying          RunStatus = "applying"
	RunCompleted         RunStatus = "completed"
	RunFailed            RunStatus = "failed"
)

// IsTerminal reports whether the run status is final. A terminal run is
// immutable; no stage may mutate it afterwards.
func (s RunStatus) IsTerminal() bool {
	return s == RunCompleted || s == RunFailed
}

// Counters holds the aggregate counts for one run. All counters are
// monotonically non-decreasing within a run.
type Counters struct {
	Found          int `json:"found"`
	Scored         int `json:"scored"`
	AboveThreshold int `json:"above_threshold"`
	Applied        int `json:"applied"`
	Failed         int `json:"failed"`
}

// Run represents one search-to-apply pipeline execution.
// It is owned exclusively by the orchestrator: workers report outcomes back
// and never mutate the run directly.
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Status      RunStatus  `json:"status"`
	Counters    Counters   `json:"counters"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewRun creates a pending run with a fresh identifier.
func NewRun() *Run {
	return &Run{
		ID:        uuid.New(),
		Status:    RunPending,
		StartedAt: time.Now().UTC(),
	}
}
