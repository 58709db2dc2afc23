package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/job-autopilot/internal/content"
	"github.com/jonathan/job-autopilot/internal/llm"
	"github.com/jonathan/job-autopilot/internal/pipeline"
	"github.com/jonathan/job-autopilot/internal/scoring"
	"github.com/jonathan/job-autopilot/internal/sources"
	"github.com/jonathan/job-autopilot/internal/types"
)

// RunRequest represents the request body for POST /api/runs
type RunRequest struct {
	Query              string  `json:"query"`
	Location           string  `json:"location,omitempty"`
	Limit              int     `json:"limit,omitempty"`
	RelevanceThreshold float64 `json:"relevance_threshold,omitempty"`
	AutoApprove        *bool   `json:"auto_approve,omitempty"`
	Workers            int     `json:"workers,omitempty"`
}

// RunResponse represents the response for POST /api/runs
type RunResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// ResumeResponse represents the response for POST /api/jobs/{id}/resume
type ResumeResponse struct {
	JobID    string `json:"job_id"`
	Outcome  string `json:"outcome"`
	Strategy string `json:"strategy,omitempty"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
}

// pipelineOptions assembles run options from the request and the server's
// configured dependencies. The returned closer releases the LLM client.
func (s *Server) pipelineOptions(ctx context.Context, req RunRequest, onProgress pipeline.ProgressCallback) (pipeline.Options, func(), error) {
	client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), s.apiKey)
	if err != nil {
		return pipeline.Options{}, nil, err
	}

	threshold := req.RelevanceThreshold
	if threshold == 0 {
		threshold = s.threshold
	}
	workers := req.Workers
	if workers == 0 {
		workers = s.workers
	}
	autoApprove := s.autoApprove
	if req.AutoApprove != nil {
		autoApprove = *req.AutoApprove
	}

	opts := pipeline.Options{
		Adapters:           s.adapters,
		Scorer:             scoring.NewGeminiScorer(client, s.applicant),
		Generator:          content.NewGeminiGenerator(client),
		Automator:          s.automator,
		Repo:               s.store,
		Applicant:          s.applicant,
		Query:              sources.Query{Keywords: req.Query, Location: req.Location, Limit: req.Limit},
		RelevanceThreshold: threshold,
		AutoApprove:        autoApprove,
		Workers:            workers,
		RetryPolicy:        s.retryPolicy,
		OnProgress:         onProgress,
	}
	return opts, func() { _ = client.Close() }, nil
}

// handleStartRun starts a pipeline run in the background
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		s.errorResponse(w, http.StatusBadRequest, "query is required")
		return
	}

	runID := uuid.New()
	opts, closeClient, err := s.pipelineOptions(r.Context(), req, s.events.Publish)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to initialize pipeline: "+err.Error())
		return
	}
	opts.RunID = runID

	orch, err := pipeline.New(opts)
	if err != nil {
		closeClient()
		s.errorResponse(w, http.StatusInternalServerError, "Failed to initialize pipeline: "+err.Error())
		return
	}

	log.Printf("Starting pipeline run %s", runID)

	// Run pipeline in background
	go func() {
		defer closeClient()
		if _, _, err := orch.Run(context.Background()); err != nil {
			log.Printf("Pipeline run %s failed: %v", runID, err)
		}
	}()

	s.jsonResponse(w, http.StatusAccepted, RunResponse{
		RunID:  runID.String(),
		Status: "started",
	})
}

// handleRunStream runs a pipeline synchronously, streaming progress as SSE
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		s.errorResponse(w, http.StatusBadRequest, "query is required")
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	onProgress := func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("step", event); err != nil {
			log.Printf("Error writing SSE event: %v", err)
		}
	}
	opts, closeClient, err := s.pipelineOptions(r.Context(), req, onProgress)
	if err != nil {
		sse.WriteError(err.Error())
		return
	}
	defer closeClient()

	orch, err := pipeline.New(opts)
	if err != nil {
		sse.WriteError(err.Error())
		return
	}

	log.Printf("Starting streaming pipeline run...")

	run, _, err := orch.Run(r.Context())
	if err != nil {
		log.Printf("Pipeline run failed: %v", err)
		sse.WriteError(err.Error())
		return
	}

	sse.WriteComplete(run.ID.String(), string(run.Status))
	log.Printf("Streaming pipeline run completed")
}

// handleGetRun returns a run with its counters
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.pathUUID(w, r, "id", "run")
	if !ok {
		return
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if run == nil {
		notFound := &ErrRunNotFound{RunID: runID}
		s.errorResponse(w, HTTPStatus(notFound), notFound.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, run)
}

// handleListRunJobs returns every job discovered by a run
func (s *Server) handleListRunJobs(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.pathUUID(w, r, "id", "run")
	if !ok {
		return
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if run == nil {
		notFound := &ErrRunNotFound{RunID: runID}
		s.errorResponse(w, HTTPStatus(notFound), notFound.Error())
		return
	}

	jobs, err := s.store.ListJobs(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"run_id": runID.String(),
		"jobs":   jobs,
	})
}

// handleRunEvents streams live progress events for one run as SSE.
// Events published before the subscription are not replayed; clients
// should subscribe before starting the run they want to observe.
func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.pathUUID(w, r, "id", "run")
	if !ok {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	events, cancel := s.events.Subscribe(runID.String())
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			if err := sse.WriteEvent("step", event); err != nil {
				return
			}
			if types.RunStatus(event.Stage).IsTerminal() {
				sse.WriteComplete(runID.String(), event.Stage)
				return
			}
		}
	}
}

// handleGetJob returns one job
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadJob(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

// handleListAttempts returns the attempt trail for one job
func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadJob(w, r)
	if !ok {
		return
	}

	attempts, err := s.store.ListAttempts(r.Context(), job.ID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"job_id":   job.ID.String(),
		"attempts": attempts,
	})
}

// handleListAwaitingHuman returns every paused job across runs
func (s *Server) handleListAwaitingHuman(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.ListAwaitingHuman(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"jobs": jobs})
}

// handleResumeJob re-enters the strategy chain for a paused job
func (s *Server) handleResumeJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadJob(w, r)
	if !ok {
		return
	}
	if job.Status != types.JobAwaitingHuman {
		notPaused := &ErrJobNotPaused{JobID: job.ID, Status: string(job.Status)}
		s.errorResponse(w, HTTPStatus(notPaused), notPaused.Error())
		return
	}

	adapter := s.adapterFor(job.Source)
	if adapter == nil {
		s.errorResponse(w, http.StatusInternalServerError, "No adapter configured for source "+string(job.Source))
		return
	}

	out, err := pipeline.ResumeJob(r.Context(), s.store, job, adapter, s.automator, s.applicant, s.retryPolicy)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Resume failed: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, ResumeResponse{
		JobID:    job.ID.String(),
		Outcome:  string(out.Outcome),
		Strategy: out.Strategy,
		Status:   string(job.Status),
		Reason:   out.Reason,
	})
}

// handleAbandonJob marks a paused job failed without re-entering the chain
func (s *Server) handleAbandonJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadJob(w, r)
	if !ok {
		return
	}
	if job.Status != types.JobAwaitingHuman {
		notPaused := &ErrJobNotPaused{JobID: job.ID, Status: string(job.Status)}
		s.errorResponse(w, HTTPStatus(notPaused), notPaused.Error())
		return
	}

	if err := pipeline.AbandonJob(r.Context(), s.store, job); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Abandon failed: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"job_id": job.ID.String(),
		"status": string(job.Status),
	})
}

// pathUUID parses a UUID path value, writing the error response itself on
// failure.
func (s *Server) pathUUID(w http.ResponseWriter, r *http.Request, key, kind string) (uuid.UUID, bool) {
	idStr := r.PathValue(key)
	if idStr == "" {
		s.errorResponse(w, http.StatusBadRequest, kind+" ID is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid "+kind+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

// loadJob fetches the job named in the path, writing the error response
// itself when it is missing or the id is malformed.
func (s *Server) loadJob(w http.ResponseWriter, r *http.Request) (*types.Job, bool) {
	jobID, ok := s.pathUUID(w, r, "id", "job")
	if !ok {
		return nil, false
	}

	job, err := s.store.GetJob(r.Context(), jobID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return nil, false
	}
	if job == nil {
		notFound := &ErrJobNotFound{JobID: jobID}
		s.errorResponse(w, HTTPStatus(notFound), notFound.Error())
		return nil, false
	}
	return job, true
}

// adapterFor returns the configured adapter for a source, or nil.
func (s *Server) adapterFor(source types.JobSource) sources.Adapter {
	for _, a := range s.adapters {
		if a.Name() == source {
			return a
		}
	}
	return nil
}
