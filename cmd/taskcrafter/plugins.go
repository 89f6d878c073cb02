package main

import (
	"fmt"
	"os"

	"github.com/lordgreg/taskcrafter/internal/pluginapi"
	_ "github.com/lordgreg/taskcrafter/internal/pluginapi/builtin"
	"github.com/lordgreg/taskcrafter/internal/preview"
	"github.com/spf13/cobra"
)

func newPluginsCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect the plugin catalog",
	}
	cmd.AddCommand(newPluginsListCmd())
	cmd.AddCommand(newPluginsInfoCmd())
	return cmd
}

func newPluginsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Render the plugin catalog",
		Run: func(cmd *cobra.Command, args []string) {
			preview.PrintPluginList(os.Stdout, pluginapi.NewRegistry())
		},
	}
}

func newPluginsInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <name>",
		Short: "Render a plugin's documentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := preview.PrintPluginInfo(os.Stdout, pluginapi.NewRegistry(), args[0]); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return nil
		},
	}
}
