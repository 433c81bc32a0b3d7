package executor

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

// FakeCommandRunner implements CommandRunner for testing
type FakeCommandRunner struct {
	output string
	err    error
	calls  []fakeCall
}

type fakeCall struct {
	dir  string
	name string
	args []string
}

// Run records the call and returns the configured output/error
func (f *FakeCommandRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	f.calls = append(f.calls, fakeCall{dir: dir, name: name, args: args})

	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return f.output, f.err
}

func TestExecCommandRunner_Success(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	runner := NewExecCommandRunner()

	out, err := runner.Run(context.Background(), dir, "sh", "-c", "pwd; echo hello")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("output = %q, want it to contain hello", out)
	}
}

func TestExecCommandRunner_NonZeroExit(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	runner := NewExecCommandRunner()

	out, err := runner.Run(context.Background(), "", "sh", "-c", "echo boom >&2; exit 3")

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run() error = %v, want *ExitError", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("Code = %d, want 3", exitErr.Code)
	}
	if exitErr.Error() != "sh exited with status 3" {
		t.Errorf("Error() = %q", exitErr.Error())
	}
	if !strings.Contains(out, "boom") {
		t.Errorf("output = %q, want stderr captured", out)
	}
}

func TestExecCommandRunner_NotFound(t *testing.T) {
	runner := NewExecCommandRunner()

	_, err := runner.Run(context.Background(), "", "odc-colab-no-such-binary")
	if err == nil {
		t.Fatal("Run() expected error for missing binary")
	}
	if !isNotFound(err) {
		t.Errorf("isNotFound(%v) = false, want true", err)
	}
}

func TestCheckJupyter_Missing(t *testing.T) {
	_, err := CheckJupyter("/nonexistent/bin/jupyter")
	if !errors.Is(err, ErrJupyterNotFound) {
		t.Fatalf("CheckJupyter() error = %v, want ErrJupyterNotFound", err)
	}
	if !strings.Contains(err.Error(), "/nonexistent/bin/jupyter") {
		t.Errorf("error %q should name the path", err)
	}
}

func TestCheckJupyter_Found(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	got, err := CheckJupyter(sh)
	if err != nil {
		t.Fatalf("CheckJupyter(%q) error = %v", sh, err)
	}
	if got != sh {
		t.Errorf("CheckJupyter() = %q, want %q", got, sh)
	}
}
