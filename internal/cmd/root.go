package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for odc-colab
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "odc-colab",
		Short: "Batch test runner for Open Data Cube notebooks",
		Long: `odc-colab executes a tree of Open Data Cube notebooks one at a time,
classifies each as Working or Error, and writes HTML and CSV reports.

Notebooks that already ran successfully are remembered in a success set
and skipped on later runs, so an interrupted run resumes where it stopped.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .odc-colab/config.yaml)")

	// Add subcommands
	cmd.AddCommand(NewTestCommand())
	cmd.AddCommand(NewResetCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewDBURLCommand())
	cmd.AddCommand(NewPopulateCommand(nil))

	return cmd
}
