// Package engine wires the validator, cache, templater, executor, and
// container driver together into the job/hook/scheduler runtime.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lordgreg/taskcrafter/internal/cache"
	"github.com/lordgreg/taskcrafter/internal/containerdriver"
	"github.com/lordgreg/taskcrafter/internal/executor"
	"github.com/lordgreg/taskcrafter/internal/logging"
	"github.com/lordgreg/taskcrafter/internal/model"
	"github.com/lordgreg/taskcrafter/internal/taskerrors"
	"github.com/lordgreg/taskcrafter/internal/template"
	"github.com/rs/zerolog"
)

// Outcome tags how a run_job call chain terminated, replacing the
// reference's exception-as-control-flow with an explicit result.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomePending
	OutcomeFailed
	OutcomeKilled
)

// ExecutedJob is one terminal snapshot appended to the manager's history
// each time run_job resolves, independent of the live Job it was taken from.
type ExecutedJob struct {
	JobID  string
	Result model.JobResult
}

// Manager owns the job collection and drives each job through
// dependency gating, input resolution, templating, dispatch, and
// transition fan-out.
type Manager struct {
	jobs     []*model.Job
	byID     map[string]*model.Job
	resolver *cache.Resolver
	cache    *cache.Cache
	exec     *executor.Executor

	executed []ExecutedJob
}

func NewManager(doc *model.Document, c *cache.Cache, exec *executor.Executor) *Manager {
	return &Manager{
		jobs:     doc.Jobs,
		byID:     doc.JobByID,
		resolver: cache.NewResolver(c),
		cache:    c,
		exec:     exec,
	}
}

// ExecutedJobs returns the accumulated history of terminal run_job calls.
func (m *Manager) ExecutedJobs() []ExecutedJob {
	return append([]ExecutedJob(nil), m.executed...)
}

// InProgress counts enabled jobs whose status is neither SUCCESS nor ERROR.
func (m *Manager) InProgress() int {
	n := 0
	for _, j := range m.jobs {
		if !j.Enabled {
			continue
		}
		s := j.Result.GetStatus()
		if s != model.StatusSuccess && s != model.StatusError {
			n++
		}
	}
	return n
}

// RunJob drives a single job to a terminal (or PENDING) state, following
// the dependency-gate / resolve / template / dispatch / retry / fan-out
// sequence. execStack is the caller's active-call chain, used both as a
// runtime cycle guard and as the provenance trail recorded on the result.
func (m *Manager) RunJob(ctx context.Context, job *model.Job, execStack []string, force bool) Outcome {
	log := logging.Engine().With().Str("job", job.ID).Logger()

	if !job.Enabled && !force {
		log.Info().Msg("job disabled, skipping")
		return OutcomePending
	}

	for _, id := range execStack {
		if id == job.ID {
			log.Warn().Strs("stack", execStack).Msg("cycle guard tripped at runtime, refusing to re-enter job")
			return OutcomePending
		}
	}

	stack := append(append([]string(nil), execStack...), job.ID)
	job.Result.Start(stack)

	for _, depID := range job.DependsOn {
		dep, ok := m.byID[depID]
		if !ok || dep.Result.GetStatus() != model.StatusSuccess {
			job.Result.SetStatus(model.StatusPending)
			log.Debug().Str("dependency", depID).Msg("dependency not satisfied, job pending")
			return OutcomePending
		}
	}

	if len(job.Input) > 0 {
		for key, token := range job.Input {
			resolved := m.resolver.Resolve(token)
			if resolved == "" {
				log.Warn().Str("key", key).Str("token", token).Msg("input token did not resolve, skipping merge")
				continue
			}
			job.Params[key] = resolved
		}
	}

	job.Result.SetStatus(model.StatusRunning)

	outcome, err := m.attemptLoop(ctx, job, stack, log)

	if outcome == OutcomeKilled {
		// A kill signal propagates straight to the scheduler: no dependant
		// sweep, no on_finish fan-out.
		job.Result.Stop()
		m.executed = append(m.executed, ExecutedJob{JobID: job.ID, Result: job.Result.Snapshot()})
		log.Error().Err(err).Msg("kill signal received")
		return outcome
	}

	m.sweepDependants(ctx, job, log)

	for _, id := range job.OnFinish {
		if next, ok := m.byID[id]; ok {
			m.RunJob(ctx, next, append([]string(nil), stack...), true)
		}
	}

	job.Result.Stop()
	m.executed = append(m.executed, ExecutedJob{JobID: job.ID, Result: job.Result.Snapshot()})

	return outcome
}

// attemptLoop runs the templating/dispatch/retry body and fans out to
// on_success/on_failure before returning the terminal outcome.
func (m *Manager) attemptLoop(ctx context.Context, job *model.Job, stack []string, log zerolog.Logger) (Outcome, error) {
	retryCount := job.Retries.Count

	for attempt := 0; attempt <= retryCount; attempt++ {
		if attempt > 0 {
			if job.Retries.IntervalSeconds > 0 {
				time.Sleep(time.Duration(job.Retries.IntervalSeconds) * time.Second)
			}
			log.Info().Int("attempt", attempt).Msg("retrying job")
		}

		tctx := template.BuildContext(job)
		params := template.Apply(job.Params, tctx).(map[string]any)

		value, err := m.dispatch(ctx, job, params)

		if errors.Is(err, taskerrors.ErrPluginTimeout) {
			job.Result.SetStatus(model.StatusError)
			return OutcomeFailed, err
		}

		if errors.Is(err, taskerrors.ErrJobKill) {
			job.Result.SetStatus(model.StatusError)
			return OutcomeKilled, err
		}

		if err != nil {
			job.Result.SetRetriesUsed(attempt)
			if writeErr := m.cache.WriteOutput(job.ID, fmt.Sprintf("%v", err), attempt+1, true); writeErr != nil {
				log.Warn().Err(writeErr).Msg("failed to write stderr cache")
			}
			if attempt == retryCount {
				job.Result.SetStatus(model.StatusError)
				for _, id := range job.OnFailure {
					if next, ok := m.byID[id]; ok {
						m.RunJob(ctx, next, append([]string(nil), stack...), true)
					}
				}
				return OutcomeFailed, err
			}
			continue
		}

		if writeErr := m.cache.WriteOutput(job.ID, value, attempt+1, false); writeErr != nil {
			log.Warn().Err(writeErr).Msg("failed to write stdout cache")
		}

		for _, id := range job.OnSuccess {
			if next, ok := m.byID[id]; ok {
				m.RunJob(ctx, next, append([]string(nil), stack...), true)
			}
		}

		if job.Schedule != "" {
			job.Result.SetStatus(model.StatusRunning)
			job.Result.SetRetriesUsed(job.Result.Snapshot().RetriesUsed + 1)
		} else {
			job.Result.SetStatus(model.StatusSuccess)
		}
		return OutcomeSuccess, nil
	}

	job.Result.SetStatus(model.StatusError)
	return OutcomeFailed, taskerrors.ErrJobFailed
}

func (m *Manager) dispatch(ctx context.Context, job *model.Job, params map[string]any) (any, error) {
	if job.Container != nil {
		return m.dispatchContainer(ctx, job, params)
	}
	return m.exec.Dispatch(ctx, job.ID, job.Plugin, params, job.Timeout)
}

func (m *Manager) dispatchContainer(ctx context.Context, job *model.Job, params map[string]any) (any, error) {
	engineURL, err := job.Container.EngineURL()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", taskerrors.ErrContainer, err)
	}
	driver := containerdriver.New(engineURL)

	env := make(map[string]string, len(params))
	for k, v := range params {
		env[k] = fmt.Sprintf("%v", v)
	}

	_, logs, err := driver.Run(ctx, job, env)
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// sweepDependants re-drives every job whose unmet dependency has just
// succeeded, ahead of the on_finish fan-out (the ordering SPEC_FULL
// preserves from the original).
func (m *Manager) sweepDependants(ctx context.Context, job *model.Job, log zerolog.Logger) {
	if job.Result.GetStatus() != model.StatusSuccess {
		return
	}
	for _, candidate := range m.jobs {
		if candidate.Result.GetStatus() != model.StatusPending {
			continue
		}
		dependsOnJob := false
		for _, depID := range candidate.DependsOn {
			if depID == job.ID {
				dependsOnJob = true
				break
			}
		}
		if !dependsOnJob {
			continue
		}
		if !candidate.Enabled {
			log.Debug().Str("dependant", candidate.ID).Msg("pending dependant disabled, skipping sweep")
			continue
		}
		m.RunJob(ctx, candidate, nil, false)
	}
}
