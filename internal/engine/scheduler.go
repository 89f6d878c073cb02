package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lordgreg/taskcrafter/internal/logging"
	"github.com/lordgreg/taskcrafter/internal/model"
	"github.com/robfig/cron/v3"
)

// Scheduler is the event-driven main loop: it registers one trigger per
// enabled job (one-shot or cron), fires lifecycle hooks at BEFORE_ALL /
// BEFORE_JOB / AFTER_JOB / ON_ERROR / AFTER_ALL, and terminates once no
// job remains in progress.
type Scheduler struct {
	manager *Manager
	hooks   *HookManager
	cron    *cron.Cron

	events chan schedulerEvent

	mu             sync.Mutex
	afterAllFired  bool
	terminateGate  chan struct{}
	gateClosedOnce sync.Once
}

func NewScheduler(manager *Manager, hooks *HookManager) *Scheduler {
	return &Scheduler{
		manager:       manager,
		hooks:         hooks,
		cron:          cron.New(),
		events:        make(chan schedulerEvent, 64),
		terminateGate: make(chan struct{}),
	}
}

// Run registers every enabled job, fires BEFORE_ALL, starts the cron
// loop and the event-consumer goroutine, then blocks until the
// termination gate closes or ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	log := logging.Scheduler()

	s.runHook(ctx, model.HookBeforeAll, "")

	for _, job := range s.manager.jobs {
		if err := s.register(ctx, job); err != nil {
			return fmt.Errorf("scheduler: registering job %q: %w", job.ID, err)
		}
	}

	s.cron.Start()
	defer s.cron.Stop()

	go s.consumeEvents(ctx)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("context cancelled, stopping scheduler")
			return ctx.Err()
		case <-s.terminateGate:
			log.Info().Msg("termination gate closed, stopping scheduler")
			return nil
		case <-ticker.C:
			// Poll: a cron job finishing on its own tick can close
			// in_progress without any event firing in between.
			s.maybeCloseGate(ctx)
		}
	}
}

func (s *Scheduler) register(ctx context.Context, job *model.Job) error {
	if !job.Enabled {
		return nil
	}

	var schedule cron.Schedule
	isCron := job.Schedule != ""
	if isCron {
		parsed, err := cron.ParseStandard(job.Schedule)
		if err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", job.Schedule, err)
		}
		schedule = parsed
	} else {
		schedule = newOneShotSchedule()
	}

	j := job
	s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.dispatchTrigger(ctx, j, isCron)
	}))
	return nil
}

func (s *Scheduler) dispatchTrigger(ctx context.Context, job *model.Job, isCron bool) {
	log := logging.Scheduler()

	s.runHook(ctx, model.HookBeforeJob, job.ID)

	outcome := s.manager.RunJob(ctx, job, nil, false)

	s.events <- schedulerEvent{schedulerID: job.ID, isCron: isCron, outcome: outcome}
	log.Debug().Str("job", job.ID).Str("outcome", outcomeString(outcome)).Msg("job dispatch resolved")
}

func (s *Scheduler) consumeEvents(ctx context.Context) {
	log := logging.Scheduler()
	for ev := range s.events {
		if isHookEvent(ev) {
			continue
		}

		switch ev.outcome {
		case OutcomeKilled:
			log.Warn().Str("job", ev.schedulerID).Msg("kill signal observed, closing termination gate")
			s.closeGate()
			return
		case OutcomeFailed:
			s.runHook(ctx, model.HookOnError, ev.schedulerID)
		}

		if ev.isCron {
			// A recurring job's trigger stays registered; AFTER_JOB and
			// the AFTER_ALL check only apply to terminal (one-shot) runs.
			continue
		}

		s.runHook(ctx, model.HookAfterJob, ev.schedulerID)
		s.maybeCloseGate(ctx)
	}
}

// maybeCloseGate fires AFTER_ALL once in_progress reaches zero, then
// closes the termination gate (or closes it immediately if no AFTER_ALL
// hook is defined).
func (s *Scheduler) maybeCloseGate(ctx context.Context) {
	if s.manager.InProgress() > 0 {
		return
	}

	s.mu.Lock()
	alreadyFired := s.afterAllFired
	s.afterAllFired = true
	s.mu.Unlock()

	if !alreadyFired {
		s.runHook(ctx, model.HookAfterAll, "")
	}
	s.closeGate()
}

func (s *Scheduler) closeGate() {
	s.gateClosedOnce.Do(func() { close(s.terminateGate) })
}

// runHook executes a hook's job list against a scoped manager so hook
// jobs never touch the main graph, seeding the execution stack with the
// "Hook(" provenance prefix. Hook jobs run inline here rather than through
// dispatchTrigger, so they send no scheduler events: they never retrigger
// BEFORE_JOB/AFTER_JOB and never recurse into other hooks.
func (s *Scheduler) runHook(ctx context.Context, hookType model.HookType, parentJobID string) {
	hook, err := s.hooks.Get(hookType)
	if err != nil || len(hook.Jobs) == 0 {
		return
	}

	log := logging.Scheduler()
	stackSeed := []string{SchedulerID(hookType, parentJobID)}

	hookManager := &Manager{
		jobs:     hook.Jobs,
		byID:     indexJobs(hook.Jobs),
		resolver: s.manager.resolver,
		cache:    s.manager.cache,
		exec:     s.manager.exec,
	}

	for _, job := range hook.Jobs {
		log.Info().Str("hook_type", string(hookType)).Str("job", job.ID).Msg("running hook job")
		hookManager.RunJob(ctx, job, stackSeed, true)
	}
}

func indexJobs(jobs []*model.Job) map[string]*model.Job {
	byID := make(map[string]*model.Job, len(jobs))
	for _, j := range jobs {
		byID[j.ID] = j
	}
	return byID
}

func outcomeString(o Outcome) string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomePending:
		return "pending"
	case OutcomeFailed:
		return "failed"
	case OutcomeKilled:
		return "killed"
	default:
		return "unknown"
	}
}
