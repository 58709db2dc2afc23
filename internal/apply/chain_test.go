package apply

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-autopilot/internal/browser"
	"github.com/jonathan/job-autopilot/internal/types"
)

func chainNames(chain []Strategy) []string {
	var names []string
	for _, s := range chain {
		names = append(names, s.Name())
	}
	return names
}

func TestBuildChain_StructuredAPIEntryPoint(t *testing.T) {
	adapter := &fakeAdapter{source: types.SourceGreenhouse, hasAPI: true}
	automator := &fakeAutomator{session: &fakeSession{}}

	job := easyApplyJob()
	job.ApplicationType = types.ApplyStructuredAPI

	chain := BuildChain(job, adapter, automator)
	assert.Equal(t, []string{StrategyStructuredAPI, StrategyEasyApply, StrategyAssisted}, chainNames(chain))
}

func TestBuildChain_NeverEscalates(t *testing.T) {
	adapter := &fakeAdapter{source: types.SourceGreenhouse, hasAPI: true}
	automator := &fakeAutomator{session: &fakeSession{}}

	t.Run("easy apply entry skips the API strategy", func(t *testing.T) {
		job := easyApplyJob()
		chain := BuildChain(job, adapter, automator)
		assert.Equal(t, []string{StrategyEasyApply, StrategyAssisted}, chainNames(chain))
	})

	t.Run("external assisted entry is assisted only", func(t *testing.T) {
		job := easyApplyJob()
		job.ApplicationType = types.ApplyExternalAssisted
		chain := BuildChain(job, adapter, automator)
		assert.Equal(t, []string{StrategyAssisted}, chainNames(chain))
	})
}

func TestBuildChain_NoAutomatorDropsBrowserStrategy(t *testing.T) {
	adapter := &fakeAdapter{source: types.SourceGreenhouse, hasAPI: true}

	job := easyApplyJob()
	job.ApplicationType = types.ApplyStructuredAPI

	chain := BuildChain(job, adapter, nil)
	assert.Equal(t, []string{StrategyStructuredAPI, StrategyAssisted}, chainNames(chain))
}

func TestChain_DeclaredTypeContradictsCapability(t *testing.T) {
	// STRUCTURED_API job on a source without API capability: the API
	// strategy fails fatally at once and the chain falls to easy apply.
	adapter := &fakeAdapter{source: types.SourceLever, hasAPI: false}
	session := &fakeSession{
		fields: []browser.FieldDescriptor{
			{Selector: "#email", Label: "Email", Kind: browser.FieldText},
		},
		submitResult: browser.SubmitResult{OK: true},
	}
	automator := &fakeAutomator{session: session}

	job := easyApplyJob()
	job.ApplicationType = types.ApplyStructuredAPI

	chain := BuildChain(job, adapter, automator)
	require.Equal(t, []string{StrategyStructuredAPI, StrategyEasyApply, StrategyAssisted}, chainNames(chain))

	recorder := &memRecorder{}
	agent := NewAgent(recorder, zeroDelayPolicy(3), applicant())
	out := agent.Apply(context.Background(), job, chain)

	assert.Equal(t, types.OutcomeSuccess, out.Outcome)
	assert.Equal(t, StrategyEasyApply, out.Strategy)
	// The API strategy consumed exactly one attempt before falling through.
	require.Len(t, recorder.attempts, 2)
	assert.Equal(t, StrategyStructuredAPI, recorder.attempts[0].Strategy)
	assert.Equal(t, types.OutcomeFatalFailure, recorder.attempts[0].Outcome)
	assert.Equal(t, 0, adapter.submitted)
}
