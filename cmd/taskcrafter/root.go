// Command taskcrafter loads a declarative job document, validates it, and
// drives its jobs to completion.
package main

import (
	"fmt"
	"os"

	"github.com/lordgreg/taskcrafter/internal/logging"
	"github.com/spf13/cobra"
)

const defaultJobsFile = "jobs/jobs.yaml"

// cliState holds the global flags shared across subcommands.
type cliState struct {
	jobsFile string
}

func newRootCmd() *cobra.Command {
	state := &cliState{}

	root := &cobra.Command{
		Use:   "taskcrafter",
		Short: "A declarative task-orchestration engine",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Initialize("info", true)
		},
	}
	root.PersistentFlags().StringVarP(&state.jobsFile, "file", "f", defaultJobsFile, "path to the job document")

	root.AddCommand(newJobsCmd(state))
	root.AddCommand(newPluginsCmd(state))
	root.AddCommand(newHelpCmd())

	return root
}

func newHelpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "help",
		Short: "Print help plus discovered subcommands",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(os.Stdout, cmd.Root().UsageString())
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
