// Package pluginapi defines the plugin contract and the registry jobs
// dispatch against. Built-in plugins self-register via init(); external
// plugins load from a file: path the same way discovery.go loads a
// dynamic .so plugin.
package pluginapi

import "context"

// PluginContext carries information a plugin may want at run time, kept
// deliberately small: a plugin is a pure function of its params plus these
// ambient facts, not a stateful service.
type PluginContext struct {
	JobID string
}

// PluginHandler is the contract every plugin, built-in or external, must
// satisfy. Run returns a string, a map[string]string (named outputs), or
// an error; any other return type is a programmer error in the plugin.
type PluginHandler interface {
	Name() string
	Description() string
	Doc() string
	OutputHint() string
	Run(ctx context.Context, pctx *PluginContext, params map[string]any) (any, error)
}

// BasePlugin supplies zero-value defaults for the parts of the contract a
// plugin doesn't care to customize; plugins embed it and supply their own
// Run (BasePlugin has none).
type BasePlugin struct {
	PluginName string
	Desc       string
}

func (b *BasePlugin) Name() string        { return b.PluginName }
func (b *BasePlugin) Description() string { return b.Desc }
func (b *BasePlugin) Doc() string         { return b.Desc }
func (b *BasePlugin) OutputHint() string  { return "string" }
