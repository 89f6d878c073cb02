package engine

import (
	"fmt"

	"github.com/lordgreg/taskcrafter/internal/logging"
	"github.com/lordgreg/taskcrafter/internal/model"
	"github.com/lordgreg/taskcrafter/internal/taskerrors"
)

// HookManager resolves each hook type's job-id list into deep copies of the
// main graph's jobs, so running a hook never mutates the jobs it triggered
// from.
type HookManager struct {
	hooks map[model.HookType]*model.Hook
}

// NewHookManager builds the hook set from a document. Hook-job references
// are expected to already be validated against the document's job ids;
// unknown hook type names are dropped with a warning rather than rejected.
func NewHookManager(doc *model.Document) *HookManager {
	hm := &HookManager{hooks: map[model.HookType]*model.Hook{}}

	for hookType, jobIDs := range doc.HookJobs {
		if !model.ValidHookTypes[hookType] {
			logging.Engine().Warn().Str("hook_type", string(hookType)).Msg("unknown hook type dropped")
			continue
		}
		jobs := make([]*model.Job, 0, len(jobIDs))
		for _, id := range jobIDs {
			job, ok := doc.JobByID[id]
			if !ok {
				logging.Engine().Warn().Str("hook_type", string(hookType)).Str("job_id", id).Msg("hook references unknown job, skipped")
				continue
			}
			jobs = append(jobs, job.Clone())
		}
		hm.hooks[hookType] = &model.Hook{Type: hookType, Jobs: jobs}
	}

	return hm
}

// Get returns the hook for a type, or ErrHookNotFound if the document
// defines none — a document without a given hook type is a routine case
// for callers (they skip it), not a program error, but the lookup still
// surfaces a matchable sentinel rather than an ambiguous nil.
func (hm *HookManager) Get(t model.HookType) (*model.Hook, error) {
	hook, ok := hm.hooks[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", taskerrors.ErrHookNotFound, t)
	}
	return hook, nil
}

// SchedulerID namespaces a hook job's scheduler identity so the scheduler
// can recognize it and skip BEFORE_JOB/AFTER_JOB firing for it.
func SchedulerID(hookType model.HookType, jobID string) string {
	return fmt.Sprintf("Hook(%s):%s", hookType, jobID)
}
