package pluginapi

import (
	"fmt"
	"plugin"
	"sync"

	"github.com/lordgreg/taskcrafter/internal/logging"
	"github.com/lordgreg/taskcrafter/internal/taskerrors"
)

// PluginFactory builds a fresh PluginHandler instance. Built-ins register a
// factory at init() time rather than a shared instance so the registry can
// hand out stateless, independently-constructed handlers.
type PluginFactory func() PluginHandler

var (
	builtinMu      sync.RWMutex
	builtinFactory = map[string]PluginFactory{}
)

// RegisterBuiltin adds a built-in plugin factory to the global built-in
// directory. Called from builtin packages' init() functions, mirroring the
// auto-registration pattern the registry is grounded on.
func RegisterBuiltin(name string, factory PluginFactory) {
	builtinMu.Lock()
	defer builtinMu.Unlock()

	if _, exists := builtinFactory[name]; exists {
		logging.Plugin().Warn().Str("plugin", name).Msg("built-in plugin already registered, overwriting")
	}
	builtinFactory[name] = factory
}

// Registry indexes plugin handlers by name, populated once at startup
// (built-ins plus any file: plugin referenced by a job) and read-only
// thereafter.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]PluginHandler
}

// NewRegistry builds a registry seeded with every registered built-in
// plugin.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]PluginHandler)}

	builtinMu.RLock()
	defer builtinMu.RUnlock()
	for name, factory := range builtinFactory {
		r.entries[name] = factory()
	}
	return r
}

// LoadExternal opens a file: path with the stdlib plugin loader, looks up
// its NewPlugin symbol, and registers the resulting handler under its own
// declared name (which need not match the file path).
func (r *Registry) LoadExternal(path string) (PluginHandler, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", taskerrors.ErrPluginExternal, err)
	}

	sym, err := p.Lookup("NewPlugin")
	if err != nil {
		return nil, fmt.Errorf("%w: missing NewPlugin symbol: %v", taskerrors.ErrPluginExternal, err)
	}

	factory, ok := sym.(func() PluginHandler)
	if !ok {
		return nil, fmt.Errorf("%w: NewPlugin has the wrong signature", taskerrors.ErrPluginWrongInterface)
	}

	handler := factory()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[handler.Name()]; exists {
		logging.Plugin().Warn().Str("plugin", handler.Name()).Msg("plugin already registered, overwriting")
	}
	r.entries[handler.Name()] = handler
	return handler, nil
}

// Lookup returns the handler registered under name, if any.
func (r *Registry) Lookup(name string) (PluginHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.entries[name]
	return h, ok
}

// List returns every registered plugin, for the CLI's `plugins list`.
func (r *Registry) List() []PluginHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PluginHandler, 0, len(r.entries))
	for _, h := range r.entries {
		out = append(out, h)
	}
	return out
}
