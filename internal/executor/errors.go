package executor

import (
	"errors"
	"fmt"
)

// ExecutionFault reports a notebook that failed to run to completion. It is
// recovered by the classifier into an Error row; every other error returned
// by an Executor aborts the run.
type ExecutionFault struct {
	Notebook string // Path of the notebook that failed
	Detail   string // Diagnostic text, usually the failing cell's traceback
	Err      error  // Underlying error (optional)
}

// Error implements the error interface for ExecutionFault.
func (e *ExecutionFault) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("notebook %s failed: %s", e.Notebook, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("notebook %s failed: %v", e.Notebook, e.Err)
	}
	return fmt.Sprintf("notebook %s failed", e.Notebook)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ExecutionFault) Unwrap() error {
	return e.Err
}

// IsExecutionFault reports whether err is, or wraps, an ExecutionFault.
func IsExecutionFault(err error) (*ExecutionFault, bool) {
	var fault *ExecutionFault
	if errors.As(err, &fault) {
		return fault, true
	}
	return nil, false
}
