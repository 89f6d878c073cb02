// Package validate implements the document, job-graph, and hook-graph
// checks the engine runs before ever dispatching a job.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lordgreg/taskcrafter/internal/model"
	"github.com/lordgreg/taskcrafter/internal/pluginapi"
	"github.com/lordgreg/taskcrafter/internal/taskerrors"
)

var resultTokenPattern = regexp.MustCompile(`^result:[\w-]+(?::[\w-]+)?$`)

// ValidateSchema enforces the document's structural shape: a parsed
// document must carry a jobs array and/or a hooks mapping, each job must
// at minimum declare an id, declared fields must be of the expected kind,
// and the document must not contain fields the model doesn't know about
// (caught by LoadDocument's strict decode pass and carried on
// doc.UnknownFields, since by the time a Document exists the offending
// raw YAML keys are already gone). This stands in for a JSON-schema
// validator (see DESIGN.md for why the corpus has no library suited to an
// arbitrary parsed-document shape): it walks the same structure jobs/hooks
// already unmarshal into.
func ValidateSchema(doc *model.Document) error {
	if doc == nil {
		return taskerrors.ErrNoData
	}
	if len(doc.UnknownFields) > 0 {
		return fmt.Errorf("%w: unrecognized field(s) in document: %s", taskerrors.ErrSchema, strings.Join(doc.UnknownFields, "; "))
	}
	seen := map[string]bool{}
	for _, job := range doc.Jobs {
		if job.ID == "" {
			return fmt.Errorf("%w: a job is missing its id", taskerrors.ErrSchema)
		}
		if seen[job.ID] {
			return fmt.Errorf("%w: duplicate job id %q", taskerrors.ErrSchema, job.ID)
		}
		seen[job.ID] = true
		if job.Plugin == "" && job.Container == nil {
			return fmt.Errorf("%w: job %q must declare a plugin or a container", taskerrors.ErrSchema, job.ID)
		}
	}
	for hookType := range doc.HookJobs {
		if !model.ValidHookTypes[hookType] {
			continue // unknown hook types are logged and dropped by the hook manager, not a schema error
		}
	}
	return nil
}

// ValidateJobs enforces id uniqueness, reference resolution, the
// plugin-or-container requirement, plugin existence, result: token syntax,
// and acyclic depends_on/transition graphs. registry may be nil when no
// plugin existence check is desired (e.g. validating before plugin
// discovery has run).
func ValidateJobs(jobs []*model.Job, registry *pluginapi.Registry) error {
	ids := map[string]bool{}
	byID := map[string]*model.Job{}

	for _, job := range jobs {
		if job.ID == "" {
			return fmt.Errorf("%w: each job must have an id", taskerrors.ErrJobValidation)
		}
		if ids[job.ID] {
			return fmt.Errorf("%w: duplicate job id found: %s", taskerrors.ErrJobValidation, job.ID)
		}
		ids[job.ID] = true
		byID[job.ID] = job
	}

	checkRefs := func(job *model.Job, field string, refs []string) error {
		for _, ref := range refs {
			if !ids[ref] {
				return fmt.Errorf("%w: job %q has invalid reference in %q: %s", taskerrors.ErrJobValidation, job.ID, field, ref)
			}
		}
		return nil
	}

	for _, job := range jobs {
		if err := checkRefs(job, "depends_on", job.DependsOn); err != nil {
			return err
		}
		if err := checkRefs(job, "on_success", job.OnSuccess); err != nil {
			return err
		}
		if err := checkRefs(job, "on_failure", job.OnFailure); err != nil {
			return err
		}
		if err := checkRefs(job, "on_finish", job.OnFinish); err != nil {
			return err
		}
		if err := validateJobPluginAndInputs(job, registry); err != nil {
			return err
		}
	}

	if err := detectDependsOnCycle(jobs, byID); err != nil {
		return err
	}

	for _, field := range []string{"on_success", "on_failure", "on_finish"} {
		if err := detectTransitionCycles(jobs, byID, field); err != nil {
			return err
		}
	}

	return nil
}

func validateJobPluginAndInputs(job *model.Job, registry *pluginapi.Registry) error {
	if job.Plugin == "" && job.Container == nil {
		return fmt.Errorf("%w: job %q is missing a plugin name or container object", taskerrors.ErrJobValidation, job.ID)
	}

	if job.Container != nil {
		if _, err := job.Container.EngineURL(); err != nil {
			return fmt.Errorf("%w: job %q: %v", taskerrors.ErrJobValidation, job.ID, err)
		}
		return nil
	}

	if registry != nil {
		if _, ok := registry.Lookup(job.Plugin); !ok {
			return fmt.Errorf("%w: plugin %q in job %q not found", taskerrors.ErrJobValidation, job.Plugin, job.ID)
		}
	}

	for key, value := range job.Input {
		if len(value) >= 7 && value[:7] == "result:" && !resultTokenPattern.MatchString(value) {
			return fmt.Errorf("%w: invalid input format in job %q for key %q: %s", taskerrors.ErrJobValidation, job.ID, key, value)
		}
	}
	return nil
}

func fieldRefs(job *model.Job, field string) []string {
	switch field {
	case "on_success":
		return job.OnSuccess
	case "on_failure":
		return job.OnFailure
	case "on_finish":
		return job.OnFinish
	}
	return nil
}

// detectDependsOnCycle runs a DFS over depends_on with an active-path set,
// following the original validator's visit_dep/path/visited split.
func detectDependsOnCycle(jobs []*model.Job, byID map[string]*model.Job) error {
	visited := map[string]bool{}
	path := map[string]bool{}

	var visit func(id string) error
	visit = func(id string) error {
		if path[id] {
			return fmt.Errorf("%w: circular dependency detected involving job %q", taskerrors.ErrJobValidation, id)
		}
		if visited[id] {
			return nil
		}
		path[id] = true
		for _, dep := range byID[id].DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		delete(path, id)
		visited[id] = true
		return nil
	}

	for _, job := range jobs {
		if err := visit(job.ID); err != nil {
			return err
		}
	}
	return nil
}

// detectTransitionCycles walks a single transition field's graph with a
// fresh active-path set per starting job, since transitions are not
// required to be acyclic across fields, only within one.
func detectTransitionCycles(jobs []*model.Job, byID map[string]*model.Job, field string) error {
	var visit func(id string, path map[string]bool) error
	visit = func(id string, path map[string]bool) error {
		if path[id] {
			return fmt.Errorf("%w: circular reference in %q starting at job %q", taskerrors.ErrJobValidation, field, id)
		}
		path[id] = true
		for _, next := range fieldRefs(byID[id], field) {
			if _, ok := byID[next]; !ok {
				continue
			}
			nextPath := make(map[string]bool, len(path)+1)
			for k := range path {
				nextPath[k] = true
			}
			if err := visit(next, nextPath); err != nil {
				return err
			}
		}
		return nil
	}

	for _, job := range jobs {
		if err := visit(job.ID, map[string]bool{}); err != nil {
			return err
		}
	}
	return nil
}

// ValidateHooks enforces recognized hook types, non-empty job lists, id
// uniqueness within a hook, and transition-cycle freedom scoped to the
// hook's own deep-copied jobs.
func ValidateHooks(hooks []*model.Hook) error {
	for _, hook := range hooks {
		if !model.ValidHookTypes[hook.Type] {
			return fmt.Errorf("%w: unknown hook type: %s", taskerrors.ErrHookValidation, hook.Type)
		}
		if len(hook.Jobs) == 0 {
			return fmt.Errorf("%w: hook %q must define at least one job", taskerrors.ErrHookValidation, hook.Type)
		}

		ids := map[string]bool{}
		byID := map[string]*model.Job{}
		for _, job := range hook.Jobs {
			if job.ID == "" {
				return fmt.Errorf("%w: hook %q contains a job without an id", taskerrors.ErrHookValidation, hook.Type)
			}
			if ids[job.ID] {
				return fmt.Errorf("%w: duplicate job id %q in hook %q", taskerrors.ErrHookValidation, job.ID, hook.Type)
			}
			ids[job.ID] = true
			byID[job.ID] = job
		}

		for _, field := range []string{"on_success", "on_failure", "on_finish"} {
			if err := detectTransitionCycles(hook.Jobs, byID, field); err != nil {
				return fmt.Errorf("%w (hook %s)", err, hook.Type)
			}
		}
	}
	return nil
}
