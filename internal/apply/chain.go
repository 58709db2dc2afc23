package apply

import (
	"github.com/jonathan/job-autopilot/internal/browser"
	"github.com/jonathan/job-autopilot/internal/sources"
	"github.com/jonathan/job-autopilot/internal/types"
)

// BuildChain assembles the ordered strategy chain for one job: most
// automated first, falling through to less automated strategies. The job's
// application_type sets the entry point; the chain never escalates above
// it. Browser-driven strategies are included only when an automator is
// available. The chain always prefers the most automated applicable
// strategy and never skips a supported one.
func BuildChain(job *types.Job, adapter sources.Adapter, automator browser.Automator) []Strategy {
	var chain []Strategy

	if job.ApplicationType == types.ApplyStructuredAPI {
		// Included even when the adapter lacks the capability: the declared
		// type may contradict the source, and the strategy reports that as
		// a capability failure fatal for itself, not for the run.
		chain = append(chain, NewStructuredAPI(adapter))
	}

	if job.ApplicationType == types.ApplyStructuredAPI || job.ApplicationType == types.ApplyEasyApply {
		if automator != nil {
			chain = append(chain, NewEasyApply(automator))
		}
	}

	chain = append(chain, NewAssisted(automator))
	return chain
}
