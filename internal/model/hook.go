package model

import "strings"

// HookType is a recognized lifecycle point hooks may attach to.
type HookType string

const (
	HookBeforeAll HookType = "before_all"
	HookAfterAll  HookType = "after_all"
	HookBeforeJob HookType = "before_job"
	HookAfterJob  HookType = "after_job"
	HookOnError   HookType = "on_error"
)

// ValidHookTypes lists every recognized hook type name, used by the
// validator to reject unknown entries and by the hook manager to drop them.
var ValidHookTypes = map[HookType]bool{
	HookBeforeAll: true,
	HookAfterAll:  true,
	HookBeforeJob: true,
	HookAfterJob:  true,
	HookOnError:   true,
}

// Hook ties a lifecycle point to a deep-copied job list; hook execution
// mutates these copies, never the main graph's jobs.
type Hook struct {
	Type      HookType
	Jobs      []*Job
	ParentJob string
}

// IsHookJob reports whether a scheduler id belongs to a hook-triggered
// execution, identified by the "Hook(" prefix convention.
func IsHookJob(schedulerID string) bool {
	return strings.HasPrefix(schedulerID, "Hook(")
}
