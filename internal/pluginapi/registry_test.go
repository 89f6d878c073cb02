package pluginapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPlugin struct {
	BasePlugin
}

func (s *stubPlugin) Run(ctx context.Context, pctx *PluginContext, params map[string]any) (any, error) {
	return "stub", nil
}

func TestRegisterBuiltinAndNewRegistry(t *testing.T) {
	RegisterBuiltin("stub-test", func() PluginHandler {
		return &stubPlugin{BasePlugin: BasePlugin{PluginName: "stub-test", Desc: "a stub"}}
	})

	r := NewRegistry()
	handler, ok := r.Lookup("stub-test")
	require.True(t, ok)
	assert.Equal(t, "stub-test", handler.Name())
	assert.Equal(t, "a stub", handler.Description())

	value, err := handler.Run(context.Background(), &PluginContext{JobID: "j"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "stub", value)
}

func TestRegistryLookupMissing(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Lookup("does-not-exist")
	assert.False(t, ok)
}

func TestRegistryList(t *testing.T) {
	RegisterBuiltin("stub-list", func() PluginHandler {
		return &stubPlugin{BasePlugin: BasePlugin{PluginName: "stub-list"}}
	})
	r := NewRegistry()
	handlers := r.List()

	found := false
	for _, h := range handlers {
		if h.Name() == "stub-list" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLoadExternalMissingFile(t *testing.T) {
	r := NewRegistry()
	_, err := r.LoadExternal("/nonexistent/plugin.so")
	assert.Error(t, err)
}
