// Package executor dispatches a single plugin invocation to an isolated
// goroutine with a bounded timeout, standing in for the reference's
// subprocess worker (see SPEC_FULL.md §3.6 for the tradeoff this implies).
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lordgreg/taskcrafter/internal/logging"
	"github.com/lordgreg/taskcrafter/internal/pluginapi"
	"github.com/lordgreg/taskcrafter/internal/taskerrors"
)

// result is the single value written to the dispatch channel, whichever
// of the goroutine's two exits (return or panic) produces it.
type result struct {
	value any
	err   error
}

// Executor runs plugin bodies in isolation. It holds no state beyond the
// registry it dispatches against.
type Executor struct {
	registry *pluginapi.Registry
}

func New(registry *pluginapi.Registry) *Executor {
	return &Executor{registry: registry}
}

// Dispatch runs the named plugin with params, bounded by timeoutSeconds
// (0 means no bound beyond ctx's own deadline). One goroutine per
// dispatch; the result channel is single-use and buffered so an abandoned
// goroutine (the timeout case) never blocks trying to send.
func (e *Executor) Dispatch(ctx context.Context, jobID, pluginName string, params map[string]any, timeoutSeconds int) (any, error) {
	handler, ok := e.registry.Lookup(pluginName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", taskerrors.ErrPluginNotFound, pluginName)
	}

	dispatchCtx := ctx
	var cancel context.CancelFunc
	if timeoutSeconds > 0 {
		dispatchCtx, cancel = context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
		defer cancel()
	}

	correlationID := uuid.New().String()
	log := logging.Plugin().With().Str("plugin", pluginName).Str("job", jobID).Str("dispatch", correlationID).Logger()

	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("%w: panic: %v", taskerrors.ErrPluginExecution, r)}
			}
		}()

		value, err := handler.Run(dispatchCtx, &pluginapi.PluginContext{JobID: jobID}, params)
		if errors.Is(err, taskerrors.ErrJobKill) {
			ch <- result{err: taskerrors.ErrJobKill}
			return
		}
		if err != nil {
			ch <- result{err: fmt.Errorf("%w: %v", taskerrors.ErrPluginExecution, err)}
			return
		}
		ch <- result{value: value}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			log.Debug().Err(r.err).Msg("plugin dispatch failed")
		}
		return r.value, classify(r.err)
	case <-dispatchCtx.Done():
		log.Warn().Msg("plugin dispatch timed out; worker abandoned")
		return nil, taskerrors.ErrPluginTimeout
	}
}

// classify lets a kill signal pass through untouched (it is not a plain
// execution failure) while anything else is already wrapped by the caller.
func classify(err error) error {
	return err
}
