// Package preview renders the job/hook tree and plugin catalog as plain
// text for the CLI's list/info subcommands.
package preview

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lordgreg/taskcrafter/internal/model"
	"github.com/lordgreg/taskcrafter/internal/pluginapi"
)

// PrintJobTree renders each job followed by its depends_on/on_success/
// on_failure/on_finish edges, and each hook's job list beneath it.
func PrintJobTree(w io.Writer, doc *model.Document) {
	fmt.Fprintf(w, "jobs (%d):\n", len(doc.Jobs))
	for _, job := range doc.Jobs {
		target := job.Plugin
		if job.Container != nil {
			target = "container:" + job.Container.Image
		}
		fmt.Fprintf(w, "  - %s  [%s]  status=%s\n", job.ID, target, job.Result.GetStatus())
		printEdges(w, "depends_on", job.DependsOn)
		printEdges(w, "on_success", job.OnSuccess)
		printEdges(w, "on_failure", job.OnFailure)
		printEdges(w, "on_finish", job.OnFinish)
	}

	if len(doc.HookJobs) == 0 {
		return
	}
	fmt.Fprintln(w, "hooks:")
	hookNames := make([]string, 0, len(doc.HookJobs))
	for name := range doc.HookJobs {
		hookNames = append(hookNames, string(name))
	}
	sort.Strings(hookNames)
	for _, name := range hookNames {
		ids := doc.HookJobs[model.HookType(name)]
		fmt.Fprintf(w, "  - %s: %s\n", name, strings.Join(ids, ", "))
	}
}

func printEdges(w io.Writer, label string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(w, "      %s -> %s\n", label, strings.Join(ids, ", "))
}

// PrintResultTable renders one row per terminal job execution.
func PrintResultTable(w io.Writer, jobID string, status model.JobStatus, retries int, elapsed string) {
	fmt.Fprintf(w, "%-24s %-10s retries=%-3d elapsed=%s\n", jobID, status, retries, elapsed)
}

// PrintPluginList renders the registered plugin names and descriptions.
func PrintPluginList(w io.Writer, registry *pluginapi.Registry) {
	handlers := registry.List()
	sort.Slice(handlers, func(i, j int) bool { return handlers[i].Name() < handlers[j].Name() })
	for _, handler := range handlers {
		fmt.Fprintf(w, "%-16s %s\n", handler.Name(), handler.Description())
	}
}

// PrintPluginInfo renders a single plugin's full documentation.
func PrintPluginInfo(w io.Writer, registry *pluginapi.Registry, name string) error {
	handler, ok := registry.Lookup(name)
	if !ok {
		return fmt.Errorf("plugin %q not found", name)
	}
	fmt.Fprintf(w, "name:        %s\n", handler.Name())
	fmt.Fprintf(w, "description: %s\n", handler.Description())
	fmt.Fprintf(w, "output:      %s\n", handler.OutputHint())
	if doc := handler.Doc(); doc != "" {
		fmt.Fprintf(w, "\n%s\n", doc)
	}
	return nil
}
