package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/odc-colab/internal/history"
	"github.com/harrison/odc-colab/internal/models"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent test runs and the notebooks that fail most often",
		Long: `Show recent test runs recorded in the history database, newest first,
followed by the notebooks with the most recorded failures.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().Int("limit", 10, "Number of runs and notebooks to show")
	cmd.Flags().String("db-path", "", "Path to history database (default: from config)")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dbPath := cfg.History.DBPath
	if cmd.Flags().Changed("db-path") {
		dbPath, _ = cmd.Flags().GetString("db-path")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", limit)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(out, "No run history found.\n")
		fmt.Fprintf(out, "Database path: %s\n", dbPath)
		return nil
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	runs, err := store.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("get recent runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintf(out, "No run history found.\n")
		return nil
	}

	bold := color.New(color.Bold)
	bold.Fprintf(out, "=== Recent Runs ===\n\n")
	fmt.Fprintf(out, "%-19s  %-10s  %5s  %7s  %8s  %7s  %6s\n",
		"Started", "State", "Found", "Skipped", "Executed", "Working", "Errors")
	for _, run := range runs {
		fmt.Fprintf(out, "%-19s  %-10s  %5d  %7d  %8d  %7d  %6d\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"), runState(run),
			run.Enumerated, run.Skipped, run.Executed, run.Working, run.Errors)
	}

	failures, err := store.FailureCounts(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("get failure counts: %w", err)
	}
	if len(failures) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	bold.Fprintf(out, "=== Most Frequent Failures ===\n\n")
	for _, fc := range failures {
		fmt.Fprintf(out, "  %s: %d failure(s)\n", fc.Notebook, fc.Failures)
		if fc.LastError != "" {
			fmt.Fprintf(out, "      last error: %s\n", truncate(firstLine(fc.LastError), 100))
		}
	}
	return nil
}

// runState shows runs that never finished as interrupted.
func runState(run history.Run) string {
	if run.FinishedAt.IsZero() && run.State != models.StateDone && run.State != models.StateFailed {
		return "interrupted"
	}
	return string(run.State)
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

// truncate shortens s to at most max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

