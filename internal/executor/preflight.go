package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"time"
)

// ErrJupyterNotFound indicates the jupyter executable could not be located.
var ErrJupyterNotFound = errors.New("jupyter executable not found")

// CommandRunner abstracts external command execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (output string, err error)
}

// ExitError reports a command that ran but exited with a non-zero status.
type ExitError struct {
	Name string
	Code int
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Name, e.Code)
}

// DefaultWaitDelay bounds how long Run waits for output pipes after the
// command exits or its context is cancelled.
const DefaultWaitDelay = 5 * time.Second

// ExecCommandRunner runs commands directly, without a shell. Each command
// runs in its own process group, and the whole group is killed when the
// context is cancelled or the command exits, so a kernel spawned by
// nbconvert never outlives its notebook.
type ExecCommandRunner struct {
	WaitDelay time.Duration // zero uses DefaultWaitDelay
}

// NewExecCommandRunner creates a CommandRunner that executes real processes.
func NewExecCommandRunner() *ExecCommandRunner {
	return &ExecCommandRunner{WaitDelay: DefaultWaitDelay}
}

// Run executes name with args in dir and returns combined stdout/stderr.
// A non-zero exit is reported as *ExitError.
func (r *ExecCommandRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}
	setProcessGroup(cmd)

	output, err := cmd.CombinedOutput()
	killProcessGroup(cmd)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(output), &ExitError{Name: name, Code: exitErr.ExitCode()}
	}
	return string(output), err
}

// CheckJupyter resolves the jupyter executable before a run starts so a
// missing installation fails fast instead of on the first notebook.
func CheckJupyter(jupyterPath string) (string, error) {
	if jupyterPath == "" {
		jupyterPath = "jupyter"
	}
	resolved, err := exec.LookPath(jupyterPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrJupyterNotFound, jupyterPath)
	}
	return resolved, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}
