package engine

import (
	"context"
	"testing"

	"github.com/lordgreg/taskcrafter/internal/cache"
	"github.com/lordgreg/taskcrafter/internal/executor"
	"github.com/lordgreg/taskcrafter/internal/model"
	"github.com/lordgreg/taskcrafter/internal/pluginapi"
	_ "github.com/lordgreg/taskcrafter/internal/pluginapi/builtin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob(id, plugin string) *model.Job {
	j := model.NewJob()
	j.ID = id
	j.Plugin = plugin
	return j
}

func newTestManager(t *testing.T, jobs []*model.Job) *Manager {
	t.Helper()
	byID := make(map[string]*model.Job, len(jobs))
	for _, j := range jobs {
		byID[j.ID] = j
	}
	doc := &model.Document{Jobs: jobs, JobByID: byID}

	c, err := cache.New(t.TempDir())
	require.NoError(t, err)

	exec := executor.New(pluginapi.NewRegistry())
	return NewManager(doc, c, exec)
}

func TestRunJobEchoOneShotSucceeds(t *testing.T) {
	job := newTestJob("a", "echo")
	job.Params["message"] = "hello"
	m := newTestManager(t, []*model.Job{job})

	outcome := m.RunJob(context.Background(), job, nil, false)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, model.StatusSuccess, job.Result.GetStatus())
	require.Len(t, m.ExecutedJobs(), 1)
	assert.Equal(t, "a", m.ExecutedJobs()[0].JobID)
}

func TestRunJobLinearDependencyChain(t *testing.T) {
	a := newTestJob("a", "echo")
	b := newTestJob("b", "echo")
	b.DependsOn = []string{"a"}
	m := newTestManager(t, []*model.Job{a, b})

	outcome := m.RunJob(context.Background(), b, nil, false)
	assert.Equal(t, OutcomePending, outcome)
	assert.Equal(t, model.StatusPending, b.Result.GetStatus())

	outcome = m.RunJob(context.Background(), a, nil, false)
	assert.Equal(t, OutcomeSuccess, outcome)

	// a's success sweeps b, which is now unblocked.
	assert.Equal(t, model.StatusSuccess, b.Result.GetStatus())
}

func TestRunJobDisabledJobIsSkippedWithoutForce(t *testing.T) {
	job := newTestJob("a", "echo")
	job.Enabled = false
	m := newTestManager(t, []*model.Job{job})

	outcome := m.RunJob(context.Background(), job, nil, false)
	assert.Equal(t, OutcomePending, outcome)
	assert.Equal(t, model.StatusUnstarted, job.Result.GetStatus())
}

func TestRunJobForceOverridesDisabled(t *testing.T) {
	job := newTestJob("a", "echo")
	job.Enabled = false
	m := newTestManager(t, []*model.Job{job})

	outcome := m.RunJob(context.Background(), job, nil, true)
	assert.Equal(t, OutcomeSuccess, outcome)
}

func TestRunJobRetriesThenFailsExhaustingAttempts(t *testing.T) {
	job := newTestJob("a", "fail")
	job.Retries = model.Retries{Count: 2, IntervalSeconds: 0}
	m := newTestManager(t, []*model.Job{job})

	outcome := m.RunJob(context.Background(), job, nil, false)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Equal(t, model.StatusError, job.Result.GetStatus())
	assert.Equal(t, 2, job.Result.Snapshot().RetriesUsed)
}

func TestRunJobOnFailureFansOut(t *testing.T) {
	cleanup := newTestJob("cleanup", "echo")
	failing := newTestJob("a", "fail")
	failing.OnFailure = []string{"cleanup"}
	m := newTestManager(t, []*model.Job{failing, cleanup})

	outcome := m.RunJob(context.Background(), failing, nil, false)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Equal(t, model.StatusSuccess, cleanup.Result.GetStatus())
}

func TestRunJobOnSuccessFansOut(t *testing.T) {
	next := newTestJob("b", "echo")
	first := newTestJob("a", "echo")
	first.OnSuccess = []string{"b"}
	m := newTestManager(t, []*model.Job{first, next})

	outcome := m.RunJob(context.Background(), first, nil, false)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, model.StatusSuccess, next.Result.GetStatus())
}

func TestRunJobKillSignalSkipsSweepAndFinish(t *testing.T) {
	finisher := newTestJob("finish", "echo")
	killer := newTestJob("a", "exit")
	killer.OnFinish = []string{"finish"}
	m := newTestManager(t, []*model.Job{killer, finisher})

	outcome := m.RunJob(context.Background(), killer, nil, false)
	assert.Equal(t, OutcomeKilled, outcome)
	assert.Equal(t, model.StatusUnstarted, finisher.Result.GetStatus())
	require.Len(t, m.ExecutedJobs(), 1)
}

func TestRunJobRuntimeCycleGuardReturnsPending(t *testing.T) {
	job := newTestJob("a", "echo")
	m := newTestManager(t, []*model.Job{job})

	outcome := m.RunJob(context.Background(), job, []string{"a"}, false)
	assert.Equal(t, OutcomePending, outcome)
}

func TestInProgressCountsNonTerminalEnabledJobs(t *testing.T) {
	a := newTestJob("a", "echo")
	b := newTestJob("b", "echo")
	b.DependsOn = []string{"a"}
	m := newTestManager(t, []*model.Job{a, b})

	assert.Equal(t, 2, m.InProgress())
	m.RunJob(context.Background(), a, nil, false)
	assert.Equal(t, 1, m.InProgress())
}
