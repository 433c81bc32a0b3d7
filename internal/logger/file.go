package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/odc-colab/internal/models"
)

// FileLogger logs run events to files under a log directory.
// It creates timestamped per-run log files, one detailed log per failing
// notebook under notebooks/, and maintains a latest.log symlink pointing to
// the most recent run. It is thread-safe and implements runner.Logger.
type FileLogger struct {
	logDir       string
	runLog       *os.File
	runFile      string
	notebooksDir string
	logLevel     string
	mu           sync.Mutex
}

// NewFileLogger creates a FileLogger under logDir with the given level.
// It creates the log directory if it doesn't exist, opens a timestamped
// run log file, and creates/updates the latest.log symlink.
func NewFileLogger(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	notebooksDir := filepath.Join(logDir, "notebooks")
	if err := os.MkdirAll(notebooksDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create notebooks log directory: %w", err)
	}

	// Generate timestamped filename: run-YYYYMMDD-HHMMSS.log
	ts := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", ts))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		logDir:       logDir,
		runLog:       file,
		runFile:      runFile,
		notebooksDir: notebooksDir,
		logLevel:     normalizeLogLevel(logLevel),
	}

	logger.writeRunLog("=== odc-colab Run Log ===\n")
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// RunFile returns the path of this run's log file.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

// NotebookLogPath returns the failure log location for a notebook identifier.
// The notebook tree is mirrored under notebooks/, so distinct identifiers
// never share a log file.
func (fl *FileLogger) NotebookLogPath(notebook string) string {
	return filepath.Join(fl.notebooksDir, filepath.FromSlash(notebook)+".log")
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) { fl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) { fl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) { fl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) { fl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) { fl.logWithLevel("ERROR", message) }

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// LogRunStart records the run header.
func (fl *FileLogger) LogRunStart(runID, root string, total, pending int) {
	if !fl.shouldLog("info") {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] Run %s\n[%s] Root: %s\n[%s] Notebooks: %d found, %d to execute\n",
		timestamp(), runID, timestamp(), root, timestamp(), total, pending))
}

// LogSkipped records a skipped notebook at DEBUG level.
func (fl *FileLogger) LogSkipped(notebook string) {
	fl.LogDebug(fmt.Sprintf("Skipping %s (already succeeded)", notebook))
}

// LogNotebookStart records the start of a notebook at INFO level.
func (fl *FileLogger) LogNotebookStart(notebook string, index, pending int) {
	fl.LogInfo(fmt.Sprintf("[%d/%d] Executing %s", index, pending, notebook))
}

// LogNotebookResult records the outcome in the run log and, for Error rows,
// writes the full detail to the notebook's own log file.
func (fl *FileLogger) LogNotebookResult(row models.ReportRow, index, pending int) {
	if fl.shouldLog("info") || row.Status == models.StatusError {
		fl.writeRunLog(fmt.Sprintf("[%s] [%d/%d] %s: %s (%.1fs)\n",
			timestamp(), index, pending, row.Notebook, row.Status, row.Duration.Seconds()))
	}
	if row.Status != models.StatusError {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Notebook: %s\n", row.Notebook)
	fmt.Fprintf(&b, "Status: %s\n", row.Status)
	fmt.Fprintf(&b, "Duration: %.1fs\n", row.Duration.Seconds())
	fmt.Fprintf(&b, "Recorded: %s\n\n", time.Now().Format(time.RFC3339))
	b.WriteString(row.Detail)
	b.WriteString("\n")

	path := fl.NotebookLogPath(row.Notebook)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		fl.writeRunLog(fmt.Sprintf("[%s] [WARN] failed to create %s: %v\n", timestamp(), filepath.Dir(path), err))
		return
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		fl.writeRunLog(fmt.Sprintf("[%s] [WARN] failed to write %s: %v\n", timestamp(), path, err))
	}
}

// LogSummary records the final statistics at INFO level.
func (fl *FileLogger) LogSummary(result models.RunResult) {
	if !fl.shouldLog("info") {
		return
	}

	ts := timestamp()
	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s] === Summary ===\n", ts)
	fmt.Fprintf(&b, "[%s] Run:        %s\n", ts, result.RunID)
	fmt.Fprintf(&b, "[%s] State:      %s\n", ts, result.State)
	fmt.Fprintf(&b, "[%s] Found:      %d\n", ts, result.Enumerated)
	fmt.Fprintf(&b, "[%s] Skipped:    %d\n", ts, result.Skipped)
	fmt.Fprintf(&b, "[%s] Executed:   %d\n", ts, result.Executed)
	fmt.Fprintf(&b, "[%s] Working:    %d\n", ts, result.Working)
	fmt.Fprintf(&b, "[%s] Errors:     %d\n", ts, result.Errors)
	fmt.Fprintf(&b, "[%s] Duration:   %.1fs\n", ts, result.Duration.Seconds())
	for _, row := range result.Failures {
		fmt.Fprintf(&b, "[%s]   - %s (see %s)\n", ts, row.Notebook, fl.NotebookLogPath(row.Notebook))
	}
	fl.writeRunLog(b.String())
}

// Close flushes and closes the run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog == nil {
		return nil
	}
	if err := fl.runLog.Sync(); err != nil {
		fl.runLog.Close()
		fl.runLog = nil
		return fmt.Errorf("failed to sync run log: %w", err)
	}
	err := fl.runLog.Close()
	fl.runLog = nil
	return err
}

// writeRunLog writes message to the run log and syncs so the file is
// readable mid-run.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		fl.runLog.Sync()
	}
}
