package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/jonathan/job-autopilot/internal/apply"
	"github.com/jonathan/job-autopilot/internal/browser"
	"github.com/jonathan/job-autopilot/internal/content"
	"github.com/jonathan/job-autopilot/internal/scoring"
	"github.com/jonathan/job-autopilot/internal/sources"
	"github.com/jonathan/job-autopilot/internal/types"
)

// ProgressEvent represents a progress update during run execution.
type ProgressEvent struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	JobID   string `json:"job_id,omitempty"`
}

// ProgressCallback is called when run progress occurs.
type ProgressCallback func(event ProgressEvent)

// DefaultWorkers bounds the apply worker pool when no value is configured.
// One job means one browser session, so the bound also limits overlapping
// UI sessions against the same external account.
const DefaultWorkers = 3

// Options holds configuration for running the pipeline.
type Options struct {
	Adapters  []sources.Adapter
	Scorer    scoring.Gateway
	Generator content.Gateway
	Automator browser.Automator
	Repo      Repository
	Applicant *types.ApplicantProfile

	Query              sources.Query
	RelevanceThreshold float64
	// AutoApprove marks every eligible job approved without waiting for a
	// human. When false, eligible jobs hold at the approval gate and the
	// run completes without applying to them.
	AutoApprove bool
	Workers     int
	RetryPolicy apply.RetryPolicy

	// RunID pre-assigns the run identifier when non-nil, so callers that
	// start runs in the background can hand out the id before the run
	// record exists.
	RunID uuid.UUID

	OnProgress ProgressCallback
	Verbose    bool
}

// Orchestrator owns the Run record. Workers report outcomes back over a
// channel; only the orchestrator folds them into the run's counters.
type Orchestrator struct {
	opts     Options
	repo     Repository
	adapters map[types.JobSource]sources.Adapter
}

// New creates an orchestrator from options, applying defaults.
func New(opts Options) (*Orchestrator, error) {
	if len(opts.Adapters) == 0 {
		return nil, fmt.Errorf("at least one source adapter is required")
	}
	if opts.Scorer == nil {
		return nil, fmt.Errorf("a scoring gateway is required")
	}
	if opts.Generator == nil {
		return nil, fmt.Errorf("a content gateway is required")
	}
	if opts.Applicant == nil {
		return nil, fmt.Errorf("an applicant profile is required")
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.RetryPolicy.MaxRetries <= 0 {
		opts.RetryPolicy = apply.DefaultRetryPolicy()
	}
	repo := opts.Repo
	if repo == nil {
		repo = nopRepository{}
	}

	adapters := make(map[types.JobSource]sources.Adapter, len(opts.Adapters))
	for _, a := range opts.Adapters {
		adapters[a.Name()] = a
	}

	return &Orchestrator{opts: opts, repo: repo, adapters: adapters}, nil
}

// emit calls the progress callback if configured.
func (o *Orchestrator) emit(run *types.Run, stage, message, jobID string) {
	if o.opts.OnProgress != nil {
		o.opts.OnProgress(ProgressEvent{
			Stage:   stage,
			Message: message,
			RunID:   run.ID.String(),
			JobID:   jobID,
		})
	}
}

// transition moves the run to the next state and persists it, best-effort.
func (o *Orchestrator) transition(ctx context.Context, run *types.Run, status types.RunStatus) {
	run.Status = status
	if status.IsTerminal() {
		now := time.Now().UTC()
		run.CompletedAt = &now
	}
	_ = o.repo.SaveRun(ctx, run)
	o.emit(run, string(status), fmt.Sprintf("run entered %s", status), "")
}

// Run executes the full pipeline once: search, score, generate content,
// apply. Transitions are sequential and single-pass; no state is revisited
// within one run. The returned jobs include every discovered posting,
// including those frozen below threshold, for audit.
func (o *Orchestrator) Run(ctx context.Context) (*types.Run, []*types.Job, error) {
	run := types.NewRun()
	if o.opts.RunID != uuid.Nil {
		run.ID = o.opts.RunID
	}
	_ = o.repo.SaveRun(ctx, run)

	jobs, err := o.search(ctx, run)
	if err != nil {
		o.transition(ctx, run, types.RunFailed)
		return run, jobs, err
	}

	o.score(ctx, run, jobs)
	o.generateContent(ctx, run, jobs)
	o.applyAll(ctx, run, jobs)

	o.transition(ctx, run, types.RunCompleted)
	return run, jobs, nil
}

// search drives every configured adapter and collects postings into jobs.
// Individual adapter failures are logged and skipped; the run aborts only
// when every adapter is unreachable.
func (o *Orchestrator) search(ctx context.Context, run *types.Run) ([]*types.Job, error) {
	o.transition(ctx, run, types.RunSearching)

	var jobs []*types.Job
	failures := 0
	for _, adapter := range o.opts.Adapters {
		it, err := adapter.Search(ctx, o.opts.Query)
		if err != nil {
			failures++
			o.emit(run, string(types.RunSearching),
				fmt.Sprintf("source %s failed: %v", adapter.Name(), err), "")
			continue
		}
		postings, err := it.Collect(ctx)
		if err != nil {
			failures++
			o.emit(run, string(types.RunSearching),
				fmt.Sprintf("source %s failed: %v", adapter.Name(), err), "")
			// Postings fetched before the failure are still usable.
		}
		for i := range postings {
			jobs = append(jobs, o.newJob(run, adapter, &postings[i]))
		}
	}

	// Postings gathered before an abort still count; a failed run keeps
	// its partial counters.
	run.Counters.Found = len(jobs)
	if failures == len(o.opts.Adapters) {
		return jobs, fmt.Errorf("all %d job sources unreachable", failures)
	}

	_ = o.repo.SaveRun(ctx, run)
	for _, job := range jobs {
		_ = o.repo.SaveJob(ctx, job)
	}
	o.emit(run, string(types.RunSearching), fmt.Sprintf("found %d postings", len(jobs)), "")
	return jobs, nil
}

func (o *Orchestrator) newJob(run *types.Run, adapter sources.Adapter, p *sources.Posting) *types.Job {
	appType := p.ApplicationType
	if appType == "" {
		appType = adapter.DefaultApplicationType()
	}
	return &types.Job{
		ID:              uuid.New(),
		RunID:           run.ID,
		Source:          adapter.Name(),
		Title:           p.Title,
		Company:         p.Company,
		Location:        p.Location,
		Description:     p.Description,
		URL:             p.URL,
		ApplicationType: appType,
		Status:          types.JobDiscovered,
		CreatedAt:       time.Now().UTC(),
	}
}

// score sends every job to the scoring gateway. Jobs at or above the
// threshold become eligible; the rest are frozen in scored status but
// retained for audit. Scoring failures skip the job, never the run.
func (o *Orchestrator) score(ctx context.Context, run *types.Run, jobs []*types.Job) {
	o.transition(ctx, run, types.RunScoring)

	for _, job := range jobs {
		rel, err := o.opts.Scorer.Score(ctx, job)
		if err != nil {
			job.Status = types.JobSkipped
			_ = o.repo.SaveJob(ctx, job)
			o.emit(run, string(types.RunScoring),
				fmt.Sprintf("scoring failed for %q: %v", job.Title, err), job.ID.String())
			continue
		}

		score := rel.Score
		job.RelevanceScore = &score
		job.ScoringBreakdown = rel.Breakdown
		job.Status = types.JobScored
		run.Counters.Scored++

		if score >= o.opts.RelevanceThreshold {
			job.Status = types.JobEligible
			run.Counters.AboveThreshold++
		}
		_ = o.repo.SaveJob(ctx, job)
	}

	_ = o.repo.SaveRun(ctx, run)
	o.emit(run, string(types.RunScoring),
		fmt.Sprintf("scored %d jobs, %d above threshold", run.Counters.Scored, run.Counters.AboveThreshold), "")
}

// generateContent runs the approval gate and the content gateway over
// eligible jobs. Failures here are per-job and non-fatal to the run: the
// job is marked skipped and excluded from applying.
func (o *Orchestrator) generateContent(ctx context.Context, run *types.Run, jobs []*types.Job) {
	o.transition(ctx, run, types.RunContentGenerating)

	for _, job := range jobs {
		if job.Status != types.JobEligible {
			continue
		}
		if o.opts.AutoApprove {
			job.Approved = true
		}
		if !job.Approved {
			// Holds at the approval gate; a later run or the resume flow
			// picks it up once a human approves.
			_ = o.repo.SaveJob(ctx, job)
			continue
		}

		generated, err := o.opts.Generator.Generate(ctx, job, o.opts.Applicant)
		if err != nil {
			job.Status = types.JobSkipped
			_ = o.repo.SaveJob(ctx, job)
			o.emit(run, string(types.RunContentGenerating),
				fmt.Sprintf("content generation failed for %q: %v", job.Title, err), job.ID.String())
			continue
		}

		job.Content = generated
		job.Status = types.JobContentReady
		_ = o.repo.SaveJob(ctx, job)
		o.emit(run, string(types.RunContentGenerating),
			fmt.Sprintf("content ready for %q", job.Title), job.ID.String())
	}
}

// jobOutcome is the immutable message a worker sends back to the
// orchestrator when its job reaches a terminal or paused state.
type jobOutcome struct {
	job *types.Job
	out apply.JobOutcome
}

// applyAll drives the apply agent over every approved content-bearing job
// through a bounded worker pool: one job, and therefore one browser
// session, per worker. Workers never touch the run; the collector below is
// the single writer folding outcomes into counters.
func (o *Orchestrator) applyAll(ctx context.Context, run *types.Run, jobs []*types.Job) {
	o.transition(ctx, run, types.RunApplying)

	var ready []*types.Job
	for _, job := range jobs {
		if job.Status == types.JobContentReady && job.Approved {
			ready = append(ready, job)
		}
	}
	if len(ready) == 0 {
		return
	}

	agent := apply.NewAgent(o.repo, o.opts.RetryPolicy, o.opts.Applicant)
	sem := semaphore.NewWeighted(int64(o.opts.Workers))
	results := make(chan jobOutcome)

	go func() {
		defer close(results)
		for _, job := range ready {
			// Cancellation stops dispatching new jobs; in-flight attempts
			// finish on their own.
			if err := sem.Acquire(ctx, 1); err != nil {
				break
			}
			go func(job *types.Job) {
				defer sem.Release(1)
				chain := apply.BuildChain(job, o.adapters[job.Source], o.opts.Automator)
				out := agent.Apply(ctx, job, chain)
				results <- jobOutcome{job: job, out: out}
			}(job)
		}
		// Wait for in-flight workers before closing the channel.
		_ = sem.Acquire(context.Background(), int64(o.opts.Workers))
	}()

	for msg := range results {
		o.fold(ctx, run, msg)
	}
	_ = o.repo.SaveRun(ctx, run)
}

// fold applies one worker outcome to the job and the run counters. It runs
// on the orchestrator goroutine only, so counter updates never race.
func (o *Orchestrator) fold(ctx context.Context, run *types.Run, msg jobOutcome) {
	job, out := msg.job, msg.out
	switch out.Outcome {
	case types.OutcomeSuccess:
		job.Status = types.JobApplied
		run.Counters.Applied++
	case types.OutcomeFatalFailure:
		job.Status = types.JobFailed
		run.Counters.Failed++
	case types.OutcomeNeedsHuman:
		// Pauses this job only, never the run.
		job.Status = types.JobAwaitingHuman
		job.PausedStrategy = out.StrategyIndex
		job.PauseReason = out.Reason
	case types.OutcomeRetryableFailure:
		// Run was cancelled mid-backoff; the job stays content_ready so a
		// later run can pick it up.
	}
	_ = o.repo.SaveJob(ctx, job)
	o.emit(run, string(types.RunApplying),
		fmt.Sprintf("job %q finished with %s", job.Title, out.Outcome), job.ID.String())
}
