// Package logger provides logging implementations for notebook test runs.
//
// ConsoleLogger writes levelled, timestamped lines to a terminal or any
// writer; FileLogger keeps a per-run log file plus one log per failing
// notebook. Both satisfy runner.Logger and are safe for concurrent use.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/odc-colab/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs run progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// Color output is enabled automatically when the writer is a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	progress    *ProgressBar
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive); anything
// else falls back to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return NewConsoleLoggerWithColor(writer, logLevel, isTerminal(writer))
}

// NewConsoleLoggerWithColor creates a ConsoleLogger with colour forced on or off.
func NewConsoleLoggerWithColor(writer io.Writer, logLevel string, colorOutput bool) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: colorOutput,
	}
}

// ColorEnabled reports whether output is colourised.
func (cl *ConsoleLogger) ColorEnabled() bool {
	return cl.colorOutput
}

// isTerminal reports whether w is a TTY and colour has not been disabled
// with NO_COLOR.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) { cl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) { cl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) { cl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) { cl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) { cl.logWithLevel("ERROR", message) }

// logWithLevel logs "[HH:MM:SS] [LEVEL] message" if filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	label := level
	if cl.colorOutput {
		label = levelColor(level).Sprint(level)
	}
	cl.write(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), label, message))
}

func levelColor(level string) *color.Color {
	switch level {
	case "TRACE":
		return forced(color.FgHiBlack)
	case "DEBUG":
		return forced(color.FgCyan)
	case "WARN":
		return forced(color.FgYellow)
	case "ERROR":
		return forced(color.FgRed)
	default:
		return forced(color.FgBlue)
	}
}

// LogRunStart logs the run header at INFO level.
// Format: "[HH:MM:SS] Run <id>: <pending> of <total> notebooks to execute in <root>"
func (cl *ConsoleLogger) LogRunStart(runID, root string, total, pending int) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	cl.progress = NewProgressBar(pending, 20, cl.colorOutput)
	cl.mutex.Unlock()

	id := runID
	if cl.colorOutput {
		id = forced(color.Bold).Sprint(runID)
	}
	cl.write(fmt.Sprintf("[%s] Run %s: %d of %d %s to execute in %s\n",
		timestamp(), id, pending, total, pluralize(total, "notebook"), root))
}

// LogSkipped logs a notebook skipped via the success set at DEBUG level.
func (cl *ConsoleLogger) LogSkipped(notebook string) {
	cl.LogDebug(fmt.Sprintf("Skipping %s (already succeeded)", notebook))
}

// LogNotebookStart logs the start of a notebook execution at INFO level.
// Format: "[HH:MM:SS] [3/10] Executing <id>"
func (cl *ConsoleLogger) LogNotebookStart(notebook string, index, pending int) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}
	cl.write(fmt.Sprintf("[%s] [%d/%d] Executing %s\n", timestamp(), index, pending, notebook))
}

// LogNotebookResult logs a classified notebook at INFO level (Working) or
// ERROR level (Error, with the first line of the detail), followed by the
// progress bar.
func (cl *ConsoleLogger) LogNotebookResult(row models.ReportRow, index, pending int) {
	if cl.writer == nil {
		return
	}

	level := "info"
	if row.Status == models.StatusError {
		level = "error"
	}
	if !cl.shouldLog(level) {
		return
	}

	status := string(row.Status)
	if cl.colorOutput {
		status = newColorScheme().status(row.Status).Sprint(status)
	}
	line := fmt.Sprintf("[%s] [%d/%d] %s: %s (%s)\n",
		timestamp(), index, pending, row.Notebook, status, formatDuration(row.Duration))
	if row.Status == models.StatusError && row.Detail != "" {
		line += fmt.Sprintf("[%s]     %s\n", timestamp(), firstLine(row.Detail))
	}

	cl.mutex.Lock()
	if cl.progress != nil && cl.shouldLog("info") {
		cl.progress.Update(index)
		line += fmt.Sprintf("[%s] Progress: %s\n", timestamp(), cl.progress.Render())
	}
	cl.mutex.Unlock()

	cl.write(line)
}

// LogSummary logs the run summary at INFO level.
func (cl *ConsoleLogger) LogSummary(result models.RunResult) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	ts := timestamp()
	scheme := newColorScheme()
	paint := func(c *color.Color, s string) string {
		if cl.colorOutput {
			return c.Sprint(s)
		}
		return s
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n", ts, paint(forced(color.Bold), "=== Notebook Test Summary ==="))
	fmt.Fprintf(&b, "[%s] Notebooks found: %d\n", ts, result.Enumerated)
	fmt.Fprintf(&b, "[%s] Skipped (already working): %d\n", ts, result.Skipped)
	fmt.Fprintf(&b, "[%s] Executed: %d\n", ts, result.Executed)
	fmt.Fprintf(&b, "[%s] %s\n", ts, paint(scheme.success, fmt.Sprintf("Working: %d", result.Working)))
	if result.Errors > 0 {
		fmt.Fprintf(&b, "[%s] %s\n", ts, paint(scheme.fail, fmt.Sprintf("Errors: %d", result.Errors)))
	} else {
		fmt.Fprintf(&b, "[%s] Errors: 0\n", ts)
	}
	fmt.Fprintf(&b, "[%s] Duration: %s\n", ts, formatDuration(result.Duration))
	if result.State != models.StateDone {
		fmt.Fprintf(&b, "[%s] %s\n", ts, paint(scheme.fail, fmt.Sprintf("Run ended in state %s", result.State)))
	}

	if len(result.Failures) > 0 {
		fmt.Fprintf(&b, "[%s] %s\n", ts, paint(scheme.fail, "Failed notebooks:"))
		for _, row := range result.Failures {
			fmt.Fprintf(&b, "[%s]   - %s: %s\n", ts, paint(scheme.label, row.Notebook), firstLine(row.Detail))
		}
	}

	cl.write(b.String())
}

func (cl *ConsoleLogger) write(s string) {
	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	io.WriteString(cl.writer, s)
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

func pluralize(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	}
}

// NoOpLogger discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

func (n *NoOpLogger) LogRunStart(runID, root string, total, pending int)          {}
func (n *NoOpLogger) LogSkipped(notebook string)                                  {}
func (n *NoOpLogger) LogNotebookStart(notebook string, index, pending int)        {}
func (n *NoOpLogger) LogNotebookResult(row models.ReportRow, index, pending int) {}
func (n *NoOpLogger) LogSummary(result models.RunResult)                          {}
func (n *NoOpLogger) LogDebug(message string)                                     {}
func (n *NoOpLogger) LogInfo(message string)                                      {}
func (n *NoOpLogger) LogWarn(message string)                                      {}
func (n *NoOpLogger) LogError(message string)                                     {}
