package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-autopilot/internal/types"
)

func doRequest(s *Server, method, path string, body string) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(newMemStore())
	rec := doRequest(s, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHandleGetRun(t *testing.T) {
	store := newMemStore()
	s := newTestServer(store)

	run := types.NewRun()
	run.Status = types.RunCompleted
	run.Counters = types.Counters{Found: 4, Scored: 4, AboveThreshold: 2, Applied: 1, Failed: 1}
	require.NoError(t, store.SaveRun(context.Background(), run))

	rec := doRequest(s, http.MethodGet, "/api/runs/"+run.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got types.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, types.RunCompleted, got.Status)
	assert.Equal(t, 2, got.Counters.AboveThreshold)
}

func TestHandleGetRun_NotFound(t *testing.T) {
	s := newTestServer(newMemStore())
	rec := doRequest(s, http.MethodGet, "/api/runs/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "run not found")
}

func TestHandleGetRun_BadID(t *testing.T) {
	s := newTestServer(newMemStore())
	rec := doRequest(s, http.MethodGet, "/api/runs/not-a-uuid", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListRunJobs(t *testing.T) {
	store := newMemStore()
	s := newTestServer(store)

	run := types.NewRun()
	require.NoError(t, store.SaveRun(context.Background(), run))
	for i := 0; i < 3; i++ {
		job := &types.Job{ID: uuid.New(), RunID: run.ID, Title: "Engineer", Status: types.JobScored}
		require.NoError(t, store.SaveJob(context.Background(), job))
	}

	rec := doRequest(s, http.MethodGet, "/api/runs/"+run.ID.String()+"/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		RunID string       `json:"run_id"`
		Jobs  []*types.Job `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, run.ID.String(), resp.RunID)
	assert.Len(t, resp.Jobs, 3)
}

func TestHandleGetJob_NotFound(t *testing.T) {
	s := newTestServer(newMemStore())
	rec := doRequest(s, http.MethodGet, "/api/jobs/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "job not found")
}

func TestHandleListAttempts(t *testing.T) {
	store := newMemStore()
	s := newTestServer(store)
	job := storedPausedJob(store)

	attempt := types.NewAttempt(job.ID, "automated_easy_apply", types.OutcomeNeedsHuman, "bot challenge detected")
	require.NoError(t, store.AppendAttempt(context.Background(), attempt))

	rec := doRequest(s, http.MethodGet, "/api/jobs/"+job.ID.String()+"/attempts", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Attempts []*types.ApplicationAttempt `json:"attempts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Attempts, 1)
	assert.Equal(t, types.OutcomeNeedsHuman, resp.Attempts[0].Outcome)
}

func TestHandleListAwaitingHuman(t *testing.T) {
	store := newMemStore()
	s := newTestServer(store)
	storedPausedJob(store)

	applied := &types.Job{ID: uuid.New(), Status: types.JobApplied}
	require.NoError(t, store.SaveJob(context.Background(), applied))

	rec := doRequest(s, http.MethodGet, "/api/jobs/awaiting-human", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Jobs []*types.Job `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, types.JobAwaitingHuman, resp.Jobs[0].Status)
}

func TestHandleResumeJob(t *testing.T) {
	store := newMemStore()
	s := newTestServer(store)
	job := storedPausedJob(store)

	rec := doRequest(s, http.MethodPost, "/api/jobs/"+job.ID.String()+"/resume", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ResumeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(types.OutcomeSuccess), resp.Outcome)
	assert.Equal(t, string(types.JobApplied), resp.Status)

	saved, err := store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobApplied, saved.Status)
}

func TestHandleResumeJob_NotPaused(t *testing.T) {
	store := newMemStore()
	s := newTestServer(store)

	job := &types.Job{ID: uuid.New(), Source: types.SourceWebBoard, Status: types.JobApplied}
	require.NoError(t, store.SaveJob(context.Background(), job))

	rec := doRequest(s, http.MethodPost, "/api/jobs/"+job.ID.String()+"/resume", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "not awaiting_human")
}

func TestHandleResumeJob_NoAdapter(t *testing.T) {
	store := newMemStore()
	s := newTestServer(store)
	s.adapters = nil
	job := storedPausedJob(store)

	rec := doRequest(s, http.MethodPost, "/api/jobs/"+job.ID.String()+"/resume", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "No adapter configured")
}

func TestHandleAbandonJob(t *testing.T) {
	store := newMemStore()
	s := newTestServer(store)
	job := storedPausedJob(store)

	rec := doRequest(s, http.MethodPost, "/api/jobs/"+job.ID.String()+"/abandon", "")
	require.Equal(t, http.StatusOK, rec.Code)

	saved, err := store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, types.JobFailed, saved.Status)
}

func TestHandleAbandonJob_NotPaused(t *testing.T) {
	store := newMemStore()
	s := newTestServer(store)

	job := &types.Job{ID: uuid.New(), Status: types.JobFailed}
	require.NoError(t, store.SaveJob(context.Background(), job))

	rec := doRequest(s, http.MethodPost, "/api/jobs/"+job.ID.String()+"/abandon", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleStartRun_MissingQuery(t *testing.T) {
	s := newTestServer(newMemStore())
	rec := doRequest(s, http.MethodPost, "/api/runs", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "query is required")
}

func TestHandleStartRun_InvalidBody(t *testing.T) {
	s := newTestServer(newMemStore())
	rec := doRequest(s, http.MethodPost, "/api/runs", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request body")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"run not found", &ErrRunNotFound{RunID: uuid.New()}, http.StatusNotFound},
		{"job not found", &ErrJobNotFound{JobID: uuid.New()}, http.StatusNotFound},
		{"job not paused", &ErrJobNotPaused{JobID: uuid.New(), Status: "applied"}, http.StatusConflict},
		{"validation", &ErrValidation{Field: "query", Message: "required"}, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
