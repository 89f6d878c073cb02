package engine

import (
	"fmt"
	"strings"

	"github.com/lordgreg/taskcrafter/internal/logging"
	"github.com/lordgreg/taskcrafter/internal/model"
	"github.com/lordgreg/taskcrafter/internal/pluginapi"
)

const externalPluginPrefix = "file:"

// ResolveExternalPlugins loads every job-referenced "file:<path>" plugin
// into the registry and rewrites the job's plugin field to the handler's
// own declared name, so dispatch can look it up like any built-in.
func ResolveExternalPlugins(doc *model.Document, registry *pluginapi.Registry) error {
	for _, job := range doc.Jobs {
		if !strings.HasPrefix(job.Plugin, externalPluginPrefix) {
			continue
		}
		path := strings.TrimPrefix(job.Plugin, externalPluginPrefix)
		handler, err := registry.LoadExternal(path)
		if err != nil {
			return fmt.Errorf("job %q: %w", job.ID, err)
		}
		logging.Engine().Info().Str("job", job.ID).Str("path", path).Str("plugin", handler.Name()).Msg("loaded external plugin")
		job.Plugin = handler.Name()
	}
	return nil
}
