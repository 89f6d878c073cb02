package engine

import "github.com/lordgreg/taskcrafter/internal/model"

// schedulerEvent is the single message type the orchestrator goroutine
// consumes, replacing the reference's event-bus listener with a typed
// channel read by one goroutine. Run's once-a-second poll also reaches the
// AFTER_ALL check and the termination gate, which is why those are guarded
// by a mutex and a sync.Once.
type schedulerEvent struct {
	schedulerID string
	isCron      bool
	outcome     Outcome
}

func isHookEvent(ev schedulerEvent) bool {
	return model.IsHookJob(ev.schedulerID)
}
