package builtin

import (
	"context"

	"github.com/lordgreg/taskcrafter/internal/pluginapi"
	"github.com/lordgreg/taskcrafter/internal/taskerrors"
)

// exitPlugin is the poison pill: dispatching it always signals
// ErrJobKill, which the executor passes through unwrapped and the manager
// treats as a kill. The manager does not look at the plugin name itself.
type exitPlugin struct {
	pluginapi.BasePlugin
}

func init() {
	pluginapi.RegisterBuiltin("exit", func() pluginapi.PluginHandler {
		return &exitPlugin{BasePlugin: pluginapi.BasePlugin{
			PluginName: "exit",
			Desc:       "Exits the program; no further jobs or hooks run afterwards.",
		}}
	})
}

func (p *exitPlugin) Run(ctx context.Context, pctx *pluginapi.PluginContext, params map[string]any) (any, error) {
	return nil, taskerrors.ErrJobKill
}
