//go:build integration

package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-autopilot/internal/types"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	database, err := Connect(context.Background(), url)
	require.NoError(t, err)
	return database
}

func TestIntegration_RunRoundTrip(t *testing.T) {
	database := getTestDB(t)
	defer database.Close()
	ctx := context.Background()

	run := types.NewRun()
	run.Status = types.RunSearching
	run.Counters.Found = 7
	require.NoError(t, database.SaveRun(ctx, run))

	run.Status = types.RunCompleted
	run.Counters.Applied = 3
	require.NoError(t, database.SaveRun(ctx, run))

	got, err := database.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, types.RunCompleted, got.Status)
	assert.Equal(t, 7, got.Counters.Found)
	assert.Equal(t, 3, got.Counters.Applied)
}

func TestIntegration_JobAndAttempts(t *testing.T) {
	database := getTestDB(t)
	defer database.Close()
	ctx := context.Background()

	run := types.NewRun()
	require.NoError(t, database.SaveRun(ctx, run))

	score := 91.0
	job := &types.Job{
		ID:               run.ID, // reuse uuid for uniqueness across test runs
		RunID:            run.ID,
		Source:           types.SourceGreenhouse,
		Title:            "Go Engineer",
		Company:          "Acme",
		URL:              "https://boards.greenhouse.io/acme/jobs/1",
		ApplicationType:  types.ApplyStructuredAPI,
		RelevanceScore:   &score,
		ScoringBreakdown: map[string]float64{"skills": 60, "location": 31},
		Status:           types.JobEligible,
		CreatedAt:        run.StartedAt,
	}
	require.NoError(t, database.SaveJob(ctx, job))

	got, err := database.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 91.0, *got.RelevanceScore, 0.01)
	assert.InDelta(t, 60, got.ScoringBreakdown["skills"], 0.01)

	attempt := types.NewAttempt(job.ID, "structured_api", types.OutcomeSuccess, "")
	require.NoError(t, database.AppendAttempt(ctx, attempt))

	attempts, err := database.ListAttempts(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, types.OutcomeSuccess, attempts[0].Outcome)
}
