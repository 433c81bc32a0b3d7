package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/odc-colab/internal/config"
	"github.com/harrison/odc-colab/internal/dbconf"
	"github.com/harrison/odc-colab/internal/discovery"
	"github.com/harrison/odc-colab/internal/display"
	"github.com/harrison/odc-colab/internal/executor"
	"github.com/harrison/odc-colab/internal/history"
	"github.com/harrison/odc-colab/internal/logger"
	"github.com/harrison/odc-colab/internal/models"
	"github.com/harrison/odc-colab/internal/report"
	"github.com/harrison/odc-colab/internal/runner"
	"github.com/harrison/odc-colab/internal/successset"
)

// NewTestCommand creates the test command
func NewTestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test [notebook-root]",
		Short: "Execute every notebook under a directory and report the results",
		Long: `Execute every notebook under the notebook root, one at a time, and record
each one as Working or Error.

Notebooks listed in the success set are skipped. Each notebook that runs
successfully is added to the success set straight away, so an interrupted
run picks up where it stopped. Failed notebooks are retried on every run.

HTML reports (full, errors, successes) are rewritten after every notebook;
CSV reports are written when the run finishes.

Configuration is loaded from .odc-colab/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  odc-colab test notebooks/
  odc-colab test notebooks/ --exclude Sentinel_1.ipynb --exclude scratch/demo.ipynb
  odc-colab test --dry-run                  # List notebooks that would run
  odc-colab test --timeout 30m notebooks/   # Bound each notebook's execution
  odc-colab test --kernel python3 notebooks/`,
		Args: cobra.MaximumNArgs(1),
		RunE: runTest,
	}

	cmd.Flags().StringSlice("exclude", nil, "Notebook to skip, by relative path or file name (repeatable)")
	cmd.Flags().String("report-dir", "", "Directory for HTML and CSV reports")
	cmd.Flags().String("success-set", "", "File recording notebooks that already passed")
	cmd.Flags().String("log-level", "", "Log level (trace, debug, info, warn, error)")
	cmd.Flags().String("log-dir", "", "Directory for log files")
	cmd.Flags().Bool("dry-run", false, "List the notebooks that would run without executing them")
	cmd.Flags().String("kernel", "", "Kernel to execute notebooks with (default: each notebook's own)")
	cmd.Flags().String("timeout", "", "Maximum execution time per notebook (e.g., 30m, 1h); unbounded by default")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
	cmd.Flags().Bool("default-dbconf", false, "Write a local-socket datacube.conf if no ODC configuration is found")

	return cmd
}

// testOverrides collects the flags the user actually set.
func testOverrides(cmd *cobra.Command, args []string) (config.Overrides, error) {
	var o config.Overrides
	flags := cmd.Flags()

	if len(args) == 1 {
		root := args[0]
		o.NotebookRoot = &root
	}
	o.Exclude, _ = flags.GetStringSlice("exclude")

	stringFlag := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}
	o.ReportDir = stringFlag("report-dir")
	o.SuccessSet = stringFlag("success-set")
	o.LogLevel = stringFlag("log-level")
	o.LogDir = stringFlag("log-dir")
	o.KernelName = stringFlag("kernel")

	if flags.Changed("dry-run") {
		v, _ := flags.GetBool("dry-run")
		o.DryRun = &v
	}
	if flags.Changed("no-history") {
		v, _ := flags.GetBool("no-history")
		o.NoHistory = &v
	}
	if s := stringFlag("timeout"); s != nil {
		timeout, err := time.ParseDuration(*s)
		if err != nil {
			return o, fmt.Errorf("invalid timeout format %q: %w", *s, err)
		}
		o.Timeout = &timeout
	}
	return o, nil
}

// runTest implements the test command logic
func runTest(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	overrides, err := testOverrides(cmd, args)
	if err != nil {
		return err
	}
	cfg.MergeWithFlags(overrides)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	checkDBConfig(cmd)

	source, err := discovery.New(cfg.NotebookRoot, discovery.NewExclusionSet(cfg.Exclude...))
	if err != nil {
		return fmt.Errorf("failed to enumerate notebooks: %w", err)
	}
	store := successset.NewStore(cfg.SuccessSet)

	if cfg.DryRun {
		return runDryRun(cmd, source, store)
	}

	jupyter, err := executor.CheckJupyter(cfg.Execution.JupyterPath)
	if err != nil {
		return err
	}

	consoleLog := logger.NewConsoleLogger(out, cfg.LogLevel)
	fileLog, err := logger.NewFileLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer fileLog.Close()

	multiLog := &multiLogger{
		loggers: []runner.Logger{consoleLog, fileLog},
	}

	opts := runner.Options{
		Source: source,
		Store:  store,
		Classifier: executor.NewClassifier(
			executor.NewNbconvertExecutor(jupyter, cfg.Execution.KernelName, nil),
			cfg.Execution.Timeout,
		),
		Reports: report.NewAccumulator(cfg.ReportDir),
		Logger:  multiLog,
	}

	if cfg.History.Enabled {
		ledger, err := history.Open(cfg.History.DBPath)
		if err != nil {
			multiLog.LogWarn(fmt.Sprintf("Run history disabled: %v", err))
		} else {
			defer ledger.Close()
			opts.History = ledger
		}
	}

	r, err := runner.New(opts)
	if err != nil {
		return err
	}

	result, err := r.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("test run failed: %w", err)
	}

	fmt.Fprintf(out, "\nReports written to: %s\n", cfg.ReportDir)
	fmt.Fprintf(out, "Logs written to: %s\n", cfg.LogDir)

	if result.Errors > 0 {
		return fmt.Errorf("%d notebook(s) failed", result.Errors)
	}
	return nil
}

// checkDBConfig warns when ODC has no database configuration, optionally
// writing a default one first.
func checkDBConfig(cmd *cobra.Command) {
	errOut := cmd.ErrOrStderr()

	if writeDefault, _ := cmd.Flags().GetBool("default-dbconf"); writeDefault && !dbconf.DetectConfig() {
		path, err := dbconf.WriteDefaultConfig(".")
		if err != nil {
			fmt.Fprintf(errOut, "Warning: failed to write default ODC config: %v\n", err)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default ODC config to %s\n", path)
		}
	}

	if dbconf.DetectConfig() {
		return
	}
	display.Warning{
		Title:   "No Open Data Cube database configuration found",
		Message: "Notebooks that instantiate a Datacube may fail.",
		Options: []string{
			fmt.Sprintf("Set %s to a connection string (see 'odc-colab db-url')", dbconf.EnvDBURL),
			fmt.Sprintf("Set %s to an existing configuration file", dbconf.EnvConfigPath),
			"Create /etc/datacube.conf, ~/.datacube.conf or ./datacube.conf",
		},
		Suggestion: "odc-colab test --default-dbconf",
	}.Display(errOut, colorEnabled(errOut))
}

// runDryRun lists the notebooks the next run would execute.
func runDryRun(cmd *cobra.Command, source runner.NotebookSource, store runner.SuccessStore) error {
	out := cmd.OutOrStdout()

	r, err := runner.New(runner.Options{Source: source, Store: store, DryRun: true})
	if err != nil {
		return err
	}
	result, err := r.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("dry run failed: %w", err)
	}

	fmt.Fprintf(out, "Dry-run mode: %d notebook(s) found under %s, %d already working.\n\n",
		result.Enumerated, result.Root, result.Skipped)

	if len(result.Pending) == 0 {
		fmt.Fprintf(out, "Nothing to execute.\n")
		return nil
	}

	progress := display.NewProgressIndicator(out, len(result.Pending), colorEnabled(out))
	progress.Start("Notebooks that would execute")
	for _, id := range result.Pending {
		progress.Step(id)
	}
	progress.Complete(fmt.Sprintf("%d notebook(s) pending", len(result.Pending)))
	return nil
}

// multiLogger implements runner.Logger by delegating to multiple loggers
type multiLogger struct {
	loggers []runner.Logger
}

// LogRunStart forwards to all loggers
func (ml *multiLogger) LogRunStart(runID, root string, total, pending int) {
	for _, l := range ml.loggers {
		l.LogRunStart(runID, root, total, pending)
	}
}

// LogSkipped forwards to all loggers
func (ml *multiLogger) LogSkipped(id string) {
	for _, l := range ml.loggers {
		l.LogSkipped(id)
	}
}

// LogNotebookStart forwards to all loggers
func (ml *multiLogger) LogNotebookStart(id string, index, pending int) {
	for _, l := range ml.loggers {
		l.LogNotebookStart(id, index, pending)
	}
}

// LogNotebookResult forwards to all loggers
func (ml *multiLogger) LogNotebookResult(row models.ReportRow, index, pending int) {
	for _, l := range ml.loggers {
		l.LogNotebookResult(row, index, pending)
	}
}

// LogSummary forwards to all loggers
func (ml *multiLogger) LogSummary(result models.RunResult) {
	for _, l := range ml.loggers {
		l.LogSummary(result)
	}
}

func (ml *multiLogger) LogDebug(message string) { ml.each(func(l runner.Logger) { l.LogDebug(message) }) }
func (ml *multiLogger) LogInfo(message string)  { ml.each(func(l runner.Logger) { l.LogInfo(message) }) }
func (ml *multiLogger) LogWarn(message string)  { ml.each(func(l runner.Logger) { l.LogWarn(message) }) }
func (ml *multiLogger) LogError(message string) { ml.each(func(l runner.Logger) { l.LogError(message) }) }

func (ml *multiLogger) each(fn func(runner.Logger)) {
	for _, l := range ml.loggers {
		fn(l)
	}
}
