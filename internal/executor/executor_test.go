package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lordgreg/taskcrafter/internal/pluginapi"
	"github.com/lordgreg/taskcrafter/internal/taskerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowPlugin struct {
	pluginapi.BasePlugin
	delay time.Duration
}

func (p *slowPlugin) Run(ctx context.Context, pctx *pluginapi.PluginContext, params map[string]any) (any, error) {
	select {
	case <-time.After(p.delay):
		return "done", nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type killPlugin struct{ pluginapi.BasePlugin }

func (p *killPlugin) Run(ctx context.Context, pctx *pluginapi.PluginContext, params map[string]any) (any, error) {
	return nil, taskerrors.ErrJobKill
}

type panicPlugin struct{ pluginapi.BasePlugin }

func (p *panicPlugin) Run(ctx context.Context, pctx *pluginapi.PluginContext, params map[string]any) (any, error) {
	panic("boom")
}

func newTestRegistry(name string, factory func() pluginapi.PluginHandler) *pluginapi.Registry {
	pluginapi.RegisterBuiltin(name, factory)
	return pluginapi.NewRegistry()
}

func TestDispatchReturnsPluginValue(t *testing.T) {
	registry := newTestRegistry("exec-fast", func() pluginapi.PluginHandler {
		return &slowPlugin{BasePlugin: pluginapi.BasePlugin{PluginName: "exec-fast"}, delay: 0}
	})
	e := New(registry)

	value, err := e.Dispatch(context.Background(), "job-1", "exec-fast", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "done", value)
}

func TestDispatchUnknownPlugin(t *testing.T) {
	e := New(pluginapi.NewRegistry())
	_, err := e.Dispatch(context.Background(), "job-1", "does-not-exist", nil, 0)
	assert.ErrorIs(t, err, taskerrors.ErrPluginNotFound)
}

func TestDispatchTimesOut(t *testing.T) {
	registry := newTestRegistry("exec-slow", func() pluginapi.PluginHandler {
		return &slowPlugin{BasePlugin: pluginapi.BasePlugin{PluginName: "exec-slow"}, delay: 2 * time.Second}
	})
	e := New(registry)

	_, err := e.Dispatch(context.Background(), "job-1", "exec-slow", nil, 1)
	assert.ErrorIs(t, err, taskerrors.ErrPluginTimeout)
}

func TestDispatchPropagatesKillSignalUnwrapped(t *testing.T) {
	registry := newTestRegistry("exec-kill", func() pluginapi.PluginHandler {
		return &killPlugin{BasePlugin: pluginapi.BasePlugin{PluginName: "exec-kill"}}
	})
	e := New(registry)

	_, err := e.Dispatch(context.Background(), "job-1", "exec-kill", nil, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, taskerrors.ErrJobKill))
	assert.False(t, errors.Is(err, taskerrors.ErrPluginExecution))
}

func TestDispatchRecoversPanic(t *testing.T) {
	registry := newTestRegistry("exec-panic", func() pluginapi.PluginHandler {
		return &panicPlugin{BasePlugin: pluginapi.BasePlugin{PluginName: "exec-panic"}}
	})
	e := New(registry)

	_, err := e.Dispatch(context.Background(), "job-1", "exec-panic", nil, 0)
	assert.ErrorIs(t, err, taskerrors.ErrPluginExecution)
}
