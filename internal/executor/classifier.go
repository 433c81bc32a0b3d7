package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harrison/odc-colab/internal/display"
	"github.com/harrison/odc-colab/internal/models"
)

// Classifier turns one notebook execution into a ReportRow.
type Classifier struct {
	executor Executor
	timeout  time.Duration // zero means wait indefinitely
}

// NewClassifier creates a classifier around exec. A timeout of zero leaves
// execution unbounded.
func NewClassifier(exec Executor, timeout time.Duration) *Classifier {
	return &Classifier{executor: exec, timeout: timeout}
}

// Timeout returns the per-notebook execution bound, zero when unbounded.
func (c *Classifier) Timeout() time.Duration {
	return c.timeout
}

// Classify executes nb and classifies the outcome. Success yields a Working
// row with empty detail. An ExecutionFault, or exceeding the timeout, yields
// an Error row whose detail has terminal escape sequences removed. Any other
// failure, including an unreadable notebook file, is returned as an error.
func (c *Classifier) Classify(ctx context.Context, nb models.Notebook) (models.ReportRow, error) {
	f, err := os.Open(nb.Path)
	if err != nil {
		return models.ReportRow{}, fmt.Errorf("open notebook %s: %w", nb.ID, err)
	}
	f.Close()

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	err = c.executor.Execute(runCtx, nb.Path, filepath.Dir(nb.Path))
	row := models.ReportRow{
		Notebook: nb.ID,
		Status:   models.StatusWorking,
		Duration: time.Since(start),
	}
	if err == nil {
		return row, nil
	}

	row.Status = models.StatusError
	if c.timeout > 0 && ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		row.Detail = fmt.Sprintf("execution timed out after %s", c.timeout)
		return row, nil
	}
	if fault, ok := IsExecutionFault(err); ok {
		detail := fault.Detail
		if detail == "" {
			detail = fault.Error()
		}
		row.Detail = display.StripANSI(detail)
		return row, nil
	}
	return models.ReportRow{}, fmt.Errorf("execute notebook %s: %w", nb.ID, err)
}
