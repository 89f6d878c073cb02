package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lordgreg/taskcrafter/internal/cache"
	"github.com/lordgreg/taskcrafter/internal/engine"
	"github.com/lordgreg/taskcrafter/internal/executor"
	"github.com/lordgreg/taskcrafter/internal/model"
	"github.com/lordgreg/taskcrafter/internal/pluginapi"
	_ "github.com/lordgreg/taskcrafter/internal/pluginapi/builtin"
	"github.com/lordgreg/taskcrafter/internal/preview"
	"github.com/lordgreg/taskcrafter/internal/taskerrors"
	"github.com/lordgreg/taskcrafter/internal/validate"
	"github.com/spf13/cobra"
)

func newJobsCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and run jobs",
	}
	cmd.AddCommand(newJobsRunCmd(state))
	cmd.AddCommand(newJobsValidateCmd(state))
	cmd.AddCommand(newJobsListCmd(state))
	return cmd
}

func newJobsRunCmd(state *cliState) *cobra.Command {
	var onlyJob string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute all enabled jobs, or only the named one",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, _, manager, hooks, err := loadEngine(state.jobsFile)
			if err != nil {
				return err
			}

			if onlyJob != "" {
				job, ok := doc.JobByID[onlyJob]
				if !ok {
					return fmt.Errorf("%w: %s", taskerrors.ErrJobNotFound, onlyJob)
				}
				ctx, cancel := signalContext()
				defer cancel()
				outcome := manager.RunJob(ctx, job, nil, true)
				if outcome == engine.OutcomeFailed || outcome == engine.OutcomeKilled {
					os.Exit(1)
				}
				return nil
			}

			sched := engine.NewScheduler(manager, hooks)
			ctx, cancel := signalContext()
			defer cancel()
			if err := sched.Run(ctx); err != nil {
				return err
			}

			for _, ej := range manager.ExecutedJobs() {
				if ej.Result.Status == model.StatusError {
					os.Exit(1)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&onlyJob, "job", "", "run only this job id")
	return cmd
}

func newJobsValidateCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the job document's schema, references, and graphs",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, registry, err := loadDocument(state.jobsFile)
			if err != nil {
				return err
			}
			if err := validate.ValidateSchema(doc); err != nil {
				return err
			}
			if err := engine.ResolveExternalPlugins(doc, registry); err != nil {
				return err
			}
			if err := validate.ValidateJobs(doc.Jobs, registry); err != nil {
				return err
			}
			hooks := buildHooks(doc)
			if err := validate.ValidateHooks(hooks); err != nil {
				return err
			}
			fmt.Println("document is valid")
			return nil
		},
	}
}

func newJobsListCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Render the job/hook tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := loadDocument(state.jobsFile)
			if err != nil {
				return err
			}
			preview.PrintJobTree(os.Stdout, doc)
			return nil
		},
	}
}

func loadDocument(path string) (*model.Document, *pluginapi.Registry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := model.LoadDocument(content)
	if err != nil {
		return nil, nil, err
	}
	return doc, pluginapi.NewRegistry(), nil
}

func buildHooks(doc *model.Document) []*model.Hook {
	hm := engine.NewHookManager(doc)
	hooks := make([]*model.Hook, 0, len(model.ValidHookTypes))
	for t := range model.ValidHookTypes {
		if h, err := hm.Get(t); err == nil {
			hooks = append(hooks, h)
		}
	}
	return hooks
}

func loadEngine(path string) (*model.Document, *pluginapi.Registry, *cache.Cache, *engine.Manager, *engine.HookManager, error) {
	doc, registry, err := loadDocument(path)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	if err := validate.ValidateSchema(doc); err != nil {
		return nil, nil, nil, nil, nil, err
	}
	if err := engine.ResolveExternalPlugins(doc, registry); err != nil {
		return nil, nil, nil, nil, nil, err
	}
	if err := validate.ValidateJobs(doc.Jobs, registry); err != nil {
		return nil, nil, nil, nil, nil, err
	}

	c, err := cache.New(".cache")
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	exec := executor.New(registry)
	manager := engine.NewManager(doc, c, exec)
	hooks := engine.NewHookManager(doc)

	return doc, registry, c, manager, hooks, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
