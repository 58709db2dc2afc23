package server

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/job-autopilot/internal/browser"
	"github.com/jonathan/job-autopilot/internal/sources"
	"github.com/jonathan/job-autopilot/internal/types"
)

// memStore is an in-memory Store for handler tests.
type memStore struct {
	mu       sync.Mutex
	runs     map[uuid.UUID]*types.Run
	jobs     map[uuid.UUID]*types.Job
	attempts map[uuid.UUID][]*types.ApplicationAttempt
}

func newMemStore() *memStore {
	return &memStore{
		runs:     map[uuid.UUID]*types.Run{},
		jobs:     map[uuid.UUID]*types.Job{},
		attempts: map[uuid.UUID][]*types.ApplicationAttempt{},
	}
}

func (m *memStore) SaveRun(_ context.Context, run *types.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

func (m *memStore) GetRun(_ context.Context, runID uuid.UUID) (*types.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return nil, nil
	}
	cp := *run
	return &cp, nil
}

func (m *memStore) SaveJob(_ context.Context, job *types.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memStore) GetJob(_ context.Context, jobID uuid.UUID) (*types.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, nil
	}
	cp := *job
	return &cp, nil
}

func (m *memStore) ListJobs(_ context.Context, runID uuid.UUID) ([]*types.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.Job
	for _, job := range m.jobs {
		if job.RunID == runID {
			cp := *job
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) ListAwaitingHuman(_ context.Context) ([]*types.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.Job
	for _, job := range m.jobs {
		if job.Status == types.JobAwaitingHuman {
			cp := *job
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) AppendAttempt(_ context.Context, attempt *types.ApplicationAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *attempt
	m.attempts[attempt.JobID] = append(m.attempts[attempt.JobID], &cp)
	return nil
}

func (m *memStore) ListAttempts(_ context.Context, jobID uuid.UUID) ([]*types.ApplicationAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*types.ApplicationAttempt(nil), m.attempts[jobID]...), nil
}

// stubAdapter satisfies sources.Adapter for resume handler tests.
type stubAdapter struct {
	source types.JobSource
}

func (a *stubAdapter) Name() types.JobSource                             { return a.source }
func (a *stubAdapter) SupportsApplicationAPI() bool                      { return false }
func (a *stubAdapter) DefaultApplicationType() types.ApplicationType     { return types.ApplyEasyApply }
func (a *stubAdapter) Search(context.Context, sources.Query) (*sources.Iterator, error) {
	return sources.NewIterator(func(context.Context, int) ([]sources.Posting, bool, error) {
		return nil, false, nil
	}, 0), nil
}
func (a *stubAdapter) SubmitViaAPI(context.Context, *types.Job, *types.ApplicantProfile) error {
	return &sources.CapabilityError{Source: a.source, Capability: "structured application API"}
}

// formAutomator opens sessions that fill and submit cleanly.
type formAutomator struct{}

func (formAutomator) Open(context.Context, string) (browser.Session, error) {
	return &formSession{}, nil
}

type formSession struct{}

func (*formSession) DetectFields(context.Context) ([]browser.FieldDescriptor, error) {
	return []browser.FieldDescriptor{
		{Selector: "#email", Label: "Email", Kind: browser.FieldText, Required: true},
	}, nil
}
func (*formSession) Fill(context.Context, browser.FieldDescriptor, string) error { return nil }
func (*formSession) Submit(context.Context) (browser.SubmitResult, error) {
	return browser.SubmitResult{OK: true}, nil
}
func (*formSession) Close() {}

func newTestServer(store Store) *Server {
	return &Server{
		store:     store,
		events:    NewHub(),
		adapters:  []sources.Adapter{&stubAdapter{source: types.SourceWebBoard}},
		automator: formAutomator{},
		applicant: &types.ApplicantProfile{Name: "Ada Lovelace", Email: "ada@example.com"},
	}
}

func storedPausedJob(store *memStore) *types.Job {
	job := &types.Job{
		ID:              uuid.New(),
		RunID:           uuid.New(),
		Source:          types.SourceWebBoard,
		Title:           "Guarded Form",
		Company:         "Acme",
		URL:             "https://board.example/jobs/1",
		ApplicationType: types.ApplyEasyApply,
		Status:          types.JobAwaitingHuman,
		Approved:        true,
		PauseReason:     "bot challenge detected",
		Content: &types.GeneratedContent{
			Summary:      "summary",
			ResumePoints: []string{"point"},
			CoverLetter:  "letter",
		},
	}
	_ = store.SaveJob(context.Background(), job)
	return job
}
