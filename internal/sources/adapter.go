// Package sources provides job source adapters: per-source search and
// apply primitives behind a capability-declaring interface. The strategy
// chain dispatches on declared capability, never on source identity, so new
// sources can be added without touching chain logic.
package sources

import (
	"context"
	"fmt"

	"github.com/jonathan/job-autopilot/internal/types"
)

// Posting is a raw job posting emitted by an adapter search, before it is
// promoted to a types.Job by the orchestrator.
type Posting struct {
	Title           string                `json:"title"`
	Company         string                `json:"company"`
	Location        string                `json:"location,omitempty"`
	Description     string                `json:"description,omitempty"`
	URL             string                `json:"url"`
	ApplicationType types.ApplicationType `json:"application_type"`
}

// Query describes a search request against one source.
type Query struct {
	Keywords string
	Location string
	// Limit caps the number of postings returned; zero means no cap.
	Limit int
}

// Adapter is the capability set a job source exposes. Each adapter
// documents its own capability truthfully; callers must check
// SupportsApplicationAPI before SubmitViaAPI.
type Adapter interface {
	// Name identifies the source.
	Name() types.JobSource

	// Search returns a lazy, finite, restartable sequence of postings.
	// Pagination and rate-limit backoff are internal; end-of-results is
	// never an error. Transport failures surface as *TransportError.
	Search(ctx context.Context, q Query) (*Iterator, error)

	// SupportsApplicationAPI reports whether the source accepts structured
	// API submissions.
	SupportsApplicationAPI() bool

	// SubmitViaAPI submits an application through the source's structured
	// API. Returns *CapabilityError when the source does not support it.
	SubmitViaAPI(ctx context.Context, job *types.Job, applicant *types.ApplicantProfile) error

	// DefaultApplicationType is the application type assigned to postings
	// this source discovers, when the posting itself does not declare one.
	DefaultApplicationType() types.ApplicationType
}

// TransportError indicates the source or its API was unreachable.
// It is retryable at the caller's discretion.
type TransportError struct {
	Source types.JobSource
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure against %s (%s): %v", e.Source, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// CapabilityError indicates an operation the source does not support.
// It is fatal for the strategy that needed the capability, not for the job.
type CapabilityError struct {
	Source     types.JobSource
	Capability string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("source %s does not support %s", e.Source, e.Capability)
}
