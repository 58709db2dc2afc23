package apply

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/job-autopilot/internal/browser"
	"github.com/jonathan/job-autopilot/internal/sources"
	"github.com/jonathan/job-autopilot/internal/types"
)

// memRecorder collects attempt records in memory.
type memRecorder struct {
	mu       sync.Mutex
	attempts []*types.ApplicationAttempt
}

func (r *memRecorder) AppendAttempt(_ context.Context, attempt *types.ApplicationAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt)
	return nil
}

func (r *memRecorder) outcomes() []types.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.Outcome
	for _, a := range r.attempts {
		out = append(out, a.Outcome)
	}
	return out
}

// scriptedStrategy returns pre-scripted results in order, repeating the
// last one when the script runs out. onAttempt, when set, fires at the
// start of every try so tests can cancel mid-attempt.
type scriptedStrategy struct {
	name      string
	script    []Result
	onAttempt func()
	calls     int
	jobSeen   *types.Job
}

func (s *scriptedStrategy) Name() string { return s.name }

func (s *scriptedStrategy) Attempt(_ context.Context, job *types.Job, _ *types.ApplicantProfile) Result {
	if s.onAttempt != nil {
		s.onAttempt()
	}
	s.jobSeen = job
	idx := s.calls
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	s.calls++
	return s.script[idx]
}

// fakeAdapter is a source adapter with a configurable capability set.
type fakeAdapter struct {
	source     types.JobSource
	hasAPI     bool
	submitErr  error
	submitted  int
	defaultTyp types.ApplicationType
}

func (a *fakeAdapter) Name() types.JobSource          { return a.source }
func (a *fakeAdapter) SupportsApplicationAPI() bool   { return a.hasAPI }
func (a *fakeAdapter) DefaultApplicationType() types.ApplicationType {
	if a.defaultTyp == "" {
		return types.ApplyStructuredAPI
	}
	return a.defaultTyp
}

func (a *fakeAdapter) Search(_ context.Context, _ sources.Query) (*sources.Iterator, error) {
	return sources.NewIterator(func(context.Context, int) ([]sources.Posting, bool, error) {
		return nil, false, nil
	}, 0), nil
}

func (a *fakeAdapter) SubmitViaAPI(_ context.Context, _ *types.Job, _ *types.ApplicantProfile) error {
	a.submitted++
	if !a.hasAPI {
		return &sources.CapabilityError{Source: a.source, Capability: "structured application API"}
	}
	return a.submitErr
}

// fakeSession is a scriptable browser session.
type fakeSession struct {
	fields       []browser.FieldDescriptor
	detectErr    error
	fillErr      error
	filled       map[string]string
	submitResult browser.SubmitResult
	submitErr    error
	closed       bool
}

func (s *fakeSession) DetectFields(_ context.Context) ([]browser.FieldDescriptor, error) {
	return s.fields, s.detectErr
}

func (s *fakeSession) Fill(_ context.Context, field browser.FieldDescriptor, value string) error {
	if s.fillErr != nil {
		return s.fillErr
	}
	if s.filled == nil {
		s.filled = map[string]string{}
	}
	s.filled[field.Selector] = value
	return nil
}

func (s *fakeSession) Submit(_ context.Context) (browser.SubmitResult, error) {
	return s.submitResult, s.submitErr
}

func (s *fakeSession) Close() { s.closed = true }

// fakeAutomator hands out a fixed session.
type fakeAutomator struct {
	session *fakeSession
	openErr error
	opened  []string
}

func (a *fakeAutomator) Open(_ context.Context, url string) (browser.Session, error) {
	a.opened = append(a.opened, url)
	if a.openErr != nil {
		return nil, a.openErr
	}
	return a.session, nil
}

func zeroDelayPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{MaxRetries: maxRetries}
}

func easyApplyJob() *types.Job {
	j := &types.Job{
		Source:          types.SourceLever,
		Title:           "Go Engineer",
		Company:         "Acme",
		URL:             "https://jobs.example.com/1",
		ApplicationType: types.ApplyEasyApply,
		Content: &types.GeneratedContent{
			Summary:     "Seasoned Go engineer.",
			CoverLetter: "Dear team",
			Answers:     map[string]string{"Why us?": "Great platform"},
		},
	}
	return j
}

func applicant() *types.ApplicantProfile {
	return &types.ApplicantProfile{
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		Phone:   "+1 555 0100",
		Summary: "Engineer",
	}
}

var errBoom = fmt.Errorf("boom")
