package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

const cellErrorMarker = "CellExecutionError"

// Executor runs a notebook to completion. It returns nil on success, an
// *ExecutionFault when the notebook itself fails, and any other error for
// faults outside the notebook (missing tooling, I/O failures).
type Executor interface {
	Execute(ctx context.Context, notebookPath, workDir string) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, notebookPath, workDir string) error

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, notebookPath, workDir string) error {
	return f(ctx, notebookPath, workDir)
}

// NbconvertExecutor executes notebooks with `jupyter nbconvert --execute`.
// The executed copy is written to a scratch directory so the source
// notebook is never modified.
type NbconvertExecutor struct {
	JupyterPath string
	KernelName  string // empty uses the notebook's own kernelspec
	Runner      CommandRunner
}

// NewNbconvertExecutor creates an executor. An empty jupyterPath means
// "jupyter" on PATH; a nil runner uses ExecCommandRunner.
func NewNbconvertExecutor(jupyterPath, kernelName string, runner CommandRunner) *NbconvertExecutor {
	if jupyterPath == "" {
		jupyterPath = "jupyter"
	}
	if runner == nil {
		runner = NewExecCommandRunner()
	}
	return &NbconvertExecutor{
		JupyterPath: jupyterPath,
		KernelName:  kernelName,
		Runner:      runner,
	}
}

// Args returns the nbconvert arguments for executing notebookPath into outputDir.
// The preprocessor timeout is disabled; any bound is applied through ctx.
func (e *NbconvertExecutor) Args(notebookPath, outputDir string) []string {
	args := []string{
		"nbconvert",
		"--to", "notebook",
		"--execute",
		"--ExecutePreprocessor.timeout=-1",
		"--output-dir", outputDir,
		"--output", "executed",
	}
	if e.KernelName != "" {
		args = append(args, "--ExecutePreprocessor.kernel_name="+e.KernelName)
	}
	return append(args, notebookPath)
}

// Execute runs the notebook with workDir as the kernel's working directory.
func (e *NbconvertExecutor) Execute(ctx context.Context, notebookPath, workDir string) error {
	outputDir, err := os.MkdirTemp("", "odc-colab-exec-*")
	if err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}
	defer os.RemoveAll(outputDir)

	output, err := e.Runner.Run(ctx, workDir, e.JupyterPath, e.Args(notebookPath, outputDir)...)
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return fmt.Errorf("%w: %s", ErrJupyterNotFound, e.JupyterPath)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("execute %s: %w", notebookPath, ctx.Err())
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return &ExecutionFault{
			Notebook: notebookPath,
			Detail:   CellError(output),
			Err:      err,
		}
	}
	return fmt.Errorf("execute %s: %w", notebookPath, err)
}

// CellError extracts the failing cell's report from nbconvert output: the
// text following the CellExecutionError exception name, or the whole output
// when the marker is absent.
func CellError(output string) string {
	if i := strings.LastIndex(output, cellErrorMarker); i >= 0 {
		rest := output[i+len(cellErrorMarker):]
		rest = strings.TrimPrefix(rest, ":")
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(output)
}
