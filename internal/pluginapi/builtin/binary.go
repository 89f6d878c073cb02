package builtin

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/lordgreg/taskcrafter/internal/pluginapi"
)

type binaryPlugin struct {
	pluginapi.BasePlugin
}

func init() {
	pluginapi.RegisterBuiltin("binary", func() pluginapi.PluginHandler {
		return &binaryPlugin{BasePlugin: pluginapi.BasePlugin{
			PluginName: "binary",
			Desc:       "Executes a binary file with arguments.",
		}}
	})
}

func (p *binaryPlugin) Run(ctx context.Context, pctx *pluginapi.PluginContext, params map[string]any) (any, error) {
	command, _ := params["command"].(string)
	if command == "" {
		return nil, fmt.Errorf("missing 'command' parameter for binary plugin")
	}

	var args []string
	if rawArgs, ok := params["args"].([]any); ok {
		for _, a := range rawArgs {
			args = append(args, fmt.Sprintf("%v", a))
		}
	}

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Env = os.Environ()
	if env, ok := params["env"].(map[string]any); ok {
		for k, v := range env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%v", k, v))
		}
	}

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("binary execution failed: %w", err)
	}
	return string(out), nil
}
