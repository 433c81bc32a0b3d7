// Package runner drives one batch test run: it enumerates notebooks, skips
// the ones already known to work, executes and classifies the rest in order,
// and records every outcome as it happens.
package runner

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/odc-colab/internal/filelock"
	"github.com/harrison/odc-colab/internal/models"
	"github.com/harrison/odc-colab/internal/successset"
)

// ErrRunInProgress is returned when another process holds the run lock.
var ErrRunInProgress = errors.New("another test run is in progress")

// Logger receives run progress events.
type Logger interface {
	LogRunStart(runID, root string, total, pending int)
	LogSkipped(id string)
	LogNotebookStart(id string, index, pending int)
	LogNotebookResult(row models.ReportRow, index, pending int)
	LogSummary(result models.RunResult)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
}

// NotebookSource yields the notebooks under the enumeration root.
type NotebookSource interface {
	Root() string
	All() iter.Seq[models.Notebook]
	Skipped() []string
}

// SuccessStore persists the set of notebooks known to work.
type SuccessStore interface {
	Load() (successset.Set, error)
	Save(set successset.Set) error
	LockPath() string
}

// Classifier executes one notebook and classifies the outcome.
type Classifier interface {
	Classify(ctx context.Context, nb models.Notebook) (models.ReportRow, error)
}

// Recorder accumulates report rows and writes the report files.
type Recorder interface {
	Record(row models.ReportRow) error
	Finalize() error
}

// Ledger records runs and executions in the history database.
type Ledger interface {
	StartRun(ctx context.Context, runID, root string) error
	RecordRow(ctx context.Context, runID string, row models.ReportRow) error
	FinishRun(ctx context.Context, result models.RunResult) error
}

// Options wires a Runner's collaborators. History and Logger are optional.
type Options struct {
	Source     NotebookSource
	Store      SuccessStore
	Classifier Classifier
	Reports    Recorder
	History    Ledger
	Logger     Logger
	DryRun     bool
	NewRunID   func() string
}

// Runner executes a batch run. A Runner is single-use.
type Runner struct {
	source     NotebookSource
	store      SuccessStore
	classifier Classifier
	reports    Recorder
	history    Ledger
	logger     Logger
	dryRun     bool
	newRunID   func() string

	ledger Ledger // set once the run is registered in history
	states []models.RunState
}

// New validates opts and returns a Runner in the idle state.
func New(opts Options) (*Runner, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("notebook source cannot be nil")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("success set store cannot be nil")
	}
	if !opts.DryRun {
		if opts.Classifier == nil {
			return nil, fmt.Errorf("classifier cannot be nil")
		}
		if opts.Reports == nil {
			return nil, fmt.Errorf("report recorder cannot be nil")
		}
	}

	r := &Runner{
		source:     opts.Source,
		store:      opts.Store,
		classifier: opts.Classifier,
		reports:    opts.Reports,
		history:    opts.History,
		logger:     opts.Logger,
		dryRun:     opts.DryRun,
		newRunID:   opts.NewRunID,
		states:     []models.RunState{models.StateIdle},
	}
	if r.logger == nil {
		r.logger = nopLogger{}
	}
	if r.newRunID == nil {
		r.newRunID = uuid.NewString
	}
	return r, nil
}

// State returns the current state.
func (r *Runner) State() models.RunState {
	return r.states[len(r.states)-1]
}

// States returns every state visited so far, in order.
func (r *Runner) States() []models.RunState {
	return slices.Clone(r.states)
}

func (r *Runner) enter(state models.RunState) {
	r.states = append(r.states, state)
}

// Run performs the batch run. Notebook failures are recorded and do not stop
// the run; any other error aborts it in the failed state. The returned result
// is non-nil even when err is not.
func (r *Runner) Run(ctx context.Context) (*models.RunResult, error) {
	start := time.Now()
	result := &models.RunResult{
		RunID: r.newRunID(),
		Root:  r.source.Root(),
		State: models.StateIdle,
	}

	r.enter(models.StateEnumerating)

	if !r.dryRun {
		lock, err := filelock.Acquire(r.store.LockPath())
		if err != nil {
			if errors.Is(err, filelock.ErrLocked) {
				err = fmt.Errorf("%w (lock %s)", ErrRunInProgress, r.store.LockPath())
			}
			return r.fail(ctx, result, start, err)
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				r.logger.LogWarn(fmt.Sprintf("release run lock: %v", err))
			}
		}()
	}

	success, err := r.store.Load()
	if err != nil {
		return r.fail(ctx, result, start, fmt.Errorf("load success set: %w", err))
	}

	notebooks := slices.Collect(r.source.All())
	for _, dir := range r.source.Skipped() {
		r.logger.LogWarn(fmt.Sprintf("Skipped unreadable directory %s", dir))
	}
	result.Enumerated = len(notebooks)

	pending := 0
	for _, nb := range notebooks {
		if !success.Has(nb.ID) {
			pending++
		}
	}

	r.logger.LogRunStart(result.RunID, result.Root, len(notebooks), pending)

	if r.dryRun {
		return r.dryRunResult(result, notebooks, success, start), nil
	}

	r.startHistory(ctx, result)

	index := 0
	for _, nb := range notebooks {
		r.enter(models.StateFiltering)
		if success.Has(nb.ID) {
			result.Skipped++
			r.logger.LogSkipped(nb.ID)
			continue
		}
		index++

		r.enter(models.StateExecuting)
		r.logger.LogNotebookStart(nb.ID, index, pending)
		row, err := r.classifier.Classify(ctx, nb)
		if err != nil {
			return r.fail(ctx, result, start, err)
		}

		r.enter(models.StateClassifying)
		result.Executed++

		r.enter(models.StateRecording)
		if err := r.reports.Record(row); err != nil {
			return r.fail(ctx, result, start, fmt.Errorf("record %s: %w", nb.ID, err))
		}
		if row.Status == models.StatusWorking {
			result.Working++
			success.Add(nb.ID)
			if err := r.store.Save(success); err != nil {
				return r.fail(ctx, result, start, fmt.Errorf("persist success set: %w", err))
			}
		} else {
			result.Errors++
			result.Failures = append(result.Failures, row)
		}
		r.recordHistory(ctx, result.RunID, row)
		r.logger.LogNotebookResult(row, index, pending)
	}

	r.enter(models.StateFinalizing)
	if err := r.reports.Finalize(); err != nil {
		return r.fail(ctx, result, start, fmt.Errorf("finalize reports: %w", err))
	}

	r.enter(models.StateDone)
	result.State = models.StateDone
	result.Duration = time.Since(start)
	r.finishHistory(ctx, result)
	r.logger.LogSummary(*result)
	return result, nil
}

func (r *Runner) dryRunResult(result *models.RunResult, notebooks []models.Notebook, success successset.Set, start time.Time) *models.RunResult {
	for _, nb := range notebooks {
		r.enter(models.StateFiltering)
		if success.Has(nb.ID) {
			result.Skipped++
			r.logger.LogSkipped(nb.ID)
			continue
		}
		result.Pending = append(result.Pending, nb.ID)
	}
	r.enter(models.StateDone)
	result.State = models.StateDone
	result.Duration = time.Since(start)
	return result
}

func (r *Runner) fail(ctx context.Context, result *models.RunResult, start time.Time, err error) (*models.RunResult, error) {
	r.enter(models.StateFailed)
	result.State = models.StateFailed
	result.Duration = time.Since(start)
	r.logger.LogError(fmt.Sprintf("Run aborted: %v", err))
	r.finishHistory(ctx, result)
	r.logger.LogSummary(*result)
	return result, err
}

// History writes are best effort. A ledger failure is logged and disables
// the ledger for the rest of the run.
func (r *Runner) startHistory(ctx context.Context, result *models.RunResult) {
	if r.history == nil {
		return
	}
	if err := r.history.StartRun(ctx, result.RunID, result.Root); err != nil {
		r.logger.LogWarn(fmt.Sprintf("history disabled for this run: %v", err))
		return
	}
	r.ledger = r.history
}

func (r *Runner) recordHistory(ctx context.Context, runID string, row models.ReportRow) {
	if r.ledger == nil {
		return
	}
	if err := r.ledger.RecordRow(ctx, runID, row); err != nil {
		r.logger.LogWarn(fmt.Sprintf("history disabled for this run: %v", err))
		r.ledger = nil
	}
}

func (r *Runner) finishHistory(ctx context.Context, result *models.RunResult) {
	if r.ledger == nil {
		return
	}
	if err := r.ledger.FinishRun(ctx, *result); err != nil {
		r.logger.LogWarn(fmt.Sprintf("record run in history: %v", err))
	}
}

type nopLogger struct{}

func (nopLogger) LogRunStart(string, string, int, int) {}
func (nopLogger) LogSkipped(string) {}
func (nopLogger) LogNotebookStart(string, int, int) {}
func (nopLogger) LogNotebookResult(models.ReportRow, int, int) {}
func (nopLogger) LogSummary(models.RunResult) {}
func (nopLogger) LogDebug(string) {}
func (nopLogger) LogInfo(string) {}
func (nopLogger) LogWarn(string) {}
func (nopLogger) LogError(string) {}
