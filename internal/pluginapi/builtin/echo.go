package builtin

import (
	"context"
	"fmt"

	"github.com/lordgreg/taskcrafter/internal/pluginapi"
)

type echoPlugin struct {
	pluginapi.BasePlugin
}

func init() {
	pluginapi.RegisterBuiltin("echo", func() pluginapi.PluginHandler {
		return &echoPlugin{BasePlugin: pluginapi.BasePlugin{
			PluginName: "echo",
			Desc:       "Echoes the message passed to it.",
		}}
	})
}

func (p *echoPlugin) Run(ctx context.Context, pctx *pluginapi.PluginContext, params map[string]any) (any, error) {
	message := "Hello World!"
	if m, ok := params["message"]; ok {
		message = fmt.Sprintf("%v", m)
	}
	return message, nil
}
