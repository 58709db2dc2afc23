// Package content provides the content-generation gateway: given an
// approved job, it produces tailored application content (summary, resume
// points, cover letter, screening answers). Generation failures are always
// per-job; they never abort a run.
package content

import (
	"context"

	"github.com/jonathan/job-autopilot/internal/types"
)

// Gateway generates tailored application content for one job.
type Gateway interface {
	Generate(ctx context.Context, job *types.Job, applicant *types.ApplicantProfile) (*types.GeneratedContent, error)
}
