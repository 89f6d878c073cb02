package builtin

import (
	"context"
	"runtime"
	"testing"

	"github.com/lordgreg/taskcrafter/internal/pluginapi"
	"github.com/lordgreg/taskcrafter/internal/taskerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEchoPlugin(t *testing.T) {
	p := (&echoPlugin{}).Run
	value, err := p(context.Background(), &pluginapi.PluginContext{}, map[string]any{"message": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", value)

	value, err = p(context.Background(), &pluginapi.PluginContext{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello World!", value)
}

func TestExitPluginKills(t *testing.T) {
	p := &exitPlugin{}
	_, err := p.Run(context.Background(), &pluginapi.PluginContext{}, nil)
	assert.ErrorIs(t, err, taskerrors.ErrJobKill)
}

func TestFailPluginAlwaysErrors(t *testing.T) {
	p := &failPlugin{}
	_, err := p.Run(context.Background(), &pluginapi.PluginContext{}, nil)
	assert.Error(t, err)
}

func TestBinaryPluginRunsCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("binary plugin test assumes a posix shell")
	}
	p := &binaryPlugin{}
	value, err := p.Run(context.Background(), &pluginapi.PluginContext{}, map[string]any{
		"command": "echo",
		"args":    []any{"hello"},
	})
	require.NoError(t, err)
	assert.Contains(t, value.(string), "hello")
}

func TestBinaryPluginMissingCommand(t *testing.T) {
	p := &binaryPlugin{}
	_, err := p.Run(context.Background(), &pluginapi.PluginContext{}, nil)
	assert.ErrorContains(t, err, "missing 'command' parameter")
}
