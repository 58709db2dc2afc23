package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-autopilot/internal/apply"
	"github.com/jonathan/job-autopilot/internal/types"
)

func pausedJob() *types.Job {
	score := 85.0
	return &types.Job{
		ID:              uuid.New(),
		RunID:           uuid.New(),
		Source:          types.SourceWebBoard,
		Title:           "Guarded Form",
		Company:         "Acme",
		URL:             "https://board.example/jobs/1",
		ApplicationType: types.ApplyEasyApply,
		Status:          types.JobAwaitingHuman,
		RelevanceScore:  &score,
		Approved:        true,
		PausedStrategy:  0,
		PauseReason:     "bot challenge detected",
		Content: &types.GeneratedContent{
			Summary:      "summary",
			ResumePoints: []string{"point"},
			CoverLetter:  "letter",
		},
		CreatedAt: time.Now().UTC(),
	}
}

func resumeApplicant() *types.ApplicantProfile {
	return &types.ApplicantProfile{Name: "Ada Lovelace", Email: "ada@example.com"}
}

func TestResumeJob_ClearedChallengeApplies(t *testing.T) {
	// The human cleared the challenge; re-entering the easy-apply strategy
	// now goes through cleanly.
	repo := newMemRepo()
	job := pausedJob()
	adapter := &scriptedAdapter{source: types.SourceWebBoard, defaultTyp: types.ApplyEasyApply}

	out, err := ResumeJob(context.Background(), repo, job, adapter, okAutomator{}, resumeApplicant(), apply.RetryPolicy{})
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeSuccess, out.Outcome)
	assert.Equal(t, apply.StrategyEasyApply, out.Strategy)
	assert.Equal(t, types.JobApplied, job.Status)
	assert.Empty(t, job.PauseReason)
	assert.Len(t, repo.attemptsFor(job.ID.String()), 1)
}

func TestResumeJob_StillBlockedStaysPaused(t *testing.T) {
	repo := newMemRepo()
	job := pausedJob()
	adapter := &scriptedAdapter{source: types.SourceWebBoard, defaultTyp: types.ApplyEasyApply}

	out, err := ResumeJob(context.Background(), repo, job, adapter, challengeAutomator{}, resumeApplicant(), apply.RetryPolicy{})
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeNeedsHuman, out.Outcome)
	assert.Equal(t, types.JobAwaitingHuman, job.Status)
	assert.Equal(t, out.StrategyIndex, job.PausedStrategy)
	assert.NotEmpty(t, job.PauseReason)
}

func TestResumeJob_ReentersAtPausedStrategy(t *testing.T) {
	// Paused at the assisted strategy: resumption must not re-run the
	// automated easy-apply step before it.
	repo := newMemRepo()
	job := pausedJob()
	job.PausedStrategy = 1
	adapter := &scriptedAdapter{source: types.SourceWebBoard, defaultTyp: types.ApplyEasyApply}

	out, err := ResumeJob(context.Background(), repo, job, adapter, challengeAutomator{}, resumeApplicant(), apply.RetryPolicy{})
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeNeedsHuman, out.Outcome)
	assert.Equal(t, apply.StrategyAssisted, out.Strategy)
	assert.Equal(t, 1, out.StrategyIndex)

	attempts := repo.attemptsFor(job.ID.String())
	require.Len(t, attempts, 1)
	assert.Equal(t, apply.StrategyAssisted, attempts[0].Strategy)
}

func TestResumeJob_RejectsNonPausedJob(t *testing.T) {
	job := pausedJob()
	job.Status = types.JobApplied
	adapter := &scriptedAdapter{source: types.SourceWebBoard}

	_, err := ResumeJob(context.Background(), newMemRepo(), job, adapter, nil, resumeApplicant(), apply.RetryPolicy{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(types.JobAwaitingHuman))
}

func TestResumeJob_RequiresAdapter(t *testing.T) {
	job := pausedJob()
	_, err := ResumeJob(context.Background(), newMemRepo(), job, nil, nil, resumeApplicant(), apply.RetryPolicy{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adapter")
}

func TestAbandonJob(t *testing.T) {
	repo := newMemRepo()
	job := pausedJob()

	require.NoError(t, AbandonJob(context.Background(), repo, job))
	assert.Equal(t, types.JobFailed, job.Status)

	saved, ok := repo.jobs[job.ID.String()]
	require.True(t, ok)
	assert.Equal(t, types.JobFailed, saved.Status)
}

func TestAbandonJob_RejectsNonPausedJob(t *testing.T) {
	job := pausedJob()
	job.Status = types.JobApplied
	assert.Error(t, AbandonJob(context.Background(), newMemRepo(), job))
}
