package builtin

import (
	"context"
	"fmt"

	"github.com/lordgreg/taskcrafter/internal/pluginapi"
)

// failPlugin always errors; used by the retry/on_failure test scenarios so
// they don't depend on an external collaborator's failure mode.
type failPlugin struct {
	pluginapi.BasePlugin
}

func init() {
	pluginapi.RegisterBuiltin("fail", func() pluginapi.PluginHandler {
		return &failPlugin{BasePlugin: pluginapi.BasePlugin{
			PluginName: "fail",
			Desc:       "Always fails; for exercising retry and on_failure behavior.",
		}}
	})
}

func (p *failPlugin) Run(ctx context.Context, pctx *pluginapi.PluginContext, params map[string]any) (any, error) {
	return nil, fmt.Errorf("this is the exception from the fail plugin")
}
