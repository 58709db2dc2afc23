package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/job-autopilot/internal/browser"
	"github.com/jonathan/job-autopilot/internal/sources"
	"github.com/jonathan/job-autopilot/internal/types"
)

// memRepo is an in-memory Repository capturing saves.
type memRepo struct {
	mu       sync.Mutex
	runs     map[string]types.Run
	jobs     map[string]types.Job
	attempts []types.ApplicationAttempt
}

func newMemRepo() *memRepo {
	return &memRepo{runs: map[string]types.Run{}, jobs: map[string]types.Job{}}
}

func (r *memRepo) SaveRun(_ context.Context, run *types.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID.String()] = *run
	return nil
}

func (r *memRepo) SaveJob(_ context.Context, job *types.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID.String()] = *job
	return nil
}

func (r *memRepo) AppendAttempt(_ context.Context, attempt *types.ApplicationAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, *attempt)
	return nil
}

func (r *memRepo) attemptsFor(jobID string) []types.ApplicationAttempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.ApplicationAttempt
	for _, a := range r.attempts {
		if a.JobID.String() == jobID {
			out = append(out, a)
		}
	}
	return out
}

// scriptedAdapter is a source adapter with canned postings and scriptable
// submission results keyed by job URL.
type scriptedAdapter struct {
	source     types.JobSource
	defaultTyp types.ApplicationType
	postings   []sources.Posting
	searchErr  error
	hasAPI     bool
	submitErrs map[string]error
	mu         sync.Mutex
	submitted  []string
}

func (a *scriptedAdapter) Name() types.JobSource        { return a.source }
func (a *scriptedAdapter) SupportsApplicationAPI() bool { return a.hasAPI }

func (a *scriptedAdapter) DefaultApplicationType() types.ApplicationType {
	if a.defaultTyp == "" {
		return types.ApplyStructuredAPI
	}
	return a.defaultTyp
}

func (a *scriptedAdapter) Search(_ context.Context, q sources.Query) (*sources.Iterator, error) {
	if a.searchErr != nil {
		return nil, a.searchErr
	}
	fetch := func(_ context.Context, page int) ([]sources.Posting, bool, error) {
		if page > 1 {
			return nil, false, nil
		}
		return a.postings, false, nil
	}
	return sources.NewIterator(fetch, q.Limit), nil
}

func (a *scriptedAdapter) SubmitViaAPI(_ context.Context, job *types.Job, _ *types.ApplicantProfile) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.submitted = append(a.submitted, job.URL)
	if !a.hasAPI {
		return &sources.CapabilityError{Source: a.source, Capability: "structured application API"}
	}
	if err, ok := a.submitErrs[job.URL]; ok {
		return err
	}
	return nil
}

// partialAdapter serves its canned postings on page one, then fails the
// next page fetch, so Collect returns a partial slice with an error.
type partialAdapter struct {
	*scriptedAdapter
}

func (a *partialAdapter) Search(_ context.Context, q sources.Query) (*sources.Iterator, error) {
	fetch := func(_ context.Context, page int) ([]sources.Posting, bool, error) {
		if page == 1 {
			return a.postings, true, nil
		}
		return nil, false, &sources.TransportError{Source: a.source, Err: errUnreachable}
	}
	return sources.NewIterator(fetch, q.Limit), nil
}

// slowAPIAdapter holds its submission open until a short timer fires,
// closing inFlight once the submission is on the wire and recording
// whether its context was cancelled before the timer.
type slowAPIAdapter struct {
	*scriptedAdapter
	inFlight chan struct{}
	mu       sync.Mutex
	aborted  bool
}

func (a *slowAPIAdapter) SubmitViaAPI(ctx context.Context, job *types.Job, _ *types.ApplicantProfile) error {
	close(a.inFlight)
	select {
	case <-ctx.Done():
		a.mu.Lock()
		a.aborted = true
		a.mu.Unlock()
		return &sources.TransportError{Source: a.source, URL: job.URL, Err: ctx.Err()}
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

func (a *slowAPIAdapter) wasAborted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.aborted
}

// mapScorer scores jobs by title.
type mapScorer struct {
	scores map[string]float64
	errFor map[string]error
}

func (s *mapScorer) Score(_ context.Context, job *types.Job) (*types.Relevance, error) {
	if err, ok := s.errFor[job.Title]; ok {
		return nil, err
	}
	score, ok := s.scores[job.Title]
	if !ok {
		score = 50
	}
	return &types.Relevance{
		Score:     score,
		Breakdown: map[string]float64{"skills": score},
	}, nil
}

// cannedGenerator returns fixed content, with per-title failures.
type cannedGenerator struct {
	errFor map[string]error
}

func (g *cannedGenerator) Generate(_ context.Context, job *types.Job, _ *types.ApplicantProfile) (*types.GeneratedContent, error) {
	if err, ok := g.errFor[job.Title]; ok {
		return nil, err
	}
	return &types.GeneratedContent{
		Summary:      "summary for " + job.Title,
		ResumePoints: []string{"point"},
		CoverLetter:  "letter for " + job.Company,
	}, nil
}

// okAutomator opens sessions that fill and submit cleanly.
type okAutomator struct{}

func (okAutomator) Open(_ context.Context, _ string) (browser.Session, error) {
	return &okSession{}, nil
}

type okSession struct{}

func (*okSession) DetectFields(context.Context) ([]browser.FieldDescriptor, error) {
	return []browser.FieldDescriptor{
		{Selector: "#email", Label: "Email", Kind: browser.FieldText, Required: true},
	}, nil
}
func (*okSession) Fill(context.Context, browser.FieldDescriptor, string) error { return nil }
func (*okSession) Submit(context.Context) (browser.SubmitResult, error) {
	return browser.SubmitResult{OK: true}, nil
}
func (*okSession) Close() {}

// challengeAutomator opens sessions whose submission hits a bot challenge.
type challengeAutomator struct{}

func (challengeAutomator) Open(_ context.Context, _ string) (browser.Session, error) {
	return &challengeSession{}, nil
}

type challengeSession struct{}

func (*challengeSession) DetectFields(context.Context) ([]browser.FieldDescriptor, error) {
	return []browser.FieldDescriptor{{Selector: "#email", Label: "Email", Kind: browser.FieldText}}, nil
}
func (*challengeSession) Fill(context.Context, browser.FieldDescriptor, string) error { return nil }
func (*challengeSession) Submit(context.Context) (browser.SubmitResult, error) {
	return browser.SubmitResult{OK: false, ChallengeDetected: true}, nil
}
func (*challengeSession) Close() {}

func posting(title, url string, typ types.ApplicationType) sources.Posting {
	return sources.Posting{
		Title:           title,
		Company:         "Acme",
		URL:             url,
		ApplicationType: typ,
	}
}

var errUnreachable = fmt.Errorf("connection refused")
