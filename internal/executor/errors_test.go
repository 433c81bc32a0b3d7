package executor

import (
	"errors"
	"fmt"
	"testing"
)

func TestExecutionFault_Error(t *testing.T) {
	tests := []struct {
		name  string
		fault *ExecutionFault
		want  string
	}{
		{
			name:  "with detail",
			fault: &ExecutionFault{Notebook: "b.ipynb", Detail: "NameError: x"},
			want:  "notebook b.ipynb failed: NameError: x",
		},
		{
			name:  "underlying error only",
			fault: &ExecutionFault{Notebook: "b.ipynb", Err: &ExitError{Name: "jupyter", Code: 1}},
			want:  "notebook b.ipynb failed: jupyter exited with status 1",
		},
		{
			name:  "bare",
			fault: &ExecutionFault{Notebook: "b.ipynb"},
			want:  "notebook b.ipynb failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fault.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecutionFault_Unwrap(t *testing.T) {
	inner := errors.New("kernel died")
	fault := &ExecutionFault{Notebook: "a.ipynb", Err: inner}

	if !errors.Is(fault, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestIsExecutionFault(t *testing.T) {
	fault := &ExecutionFault{Notebook: "a.ipynb", Detail: "boom"}
	wrapped := fmt.Errorf("running: %w", fault)

	got, ok := IsExecutionFault(wrapped)
	if !ok || got != fault {
		t.Errorf("IsExecutionFault(wrapped) = %v, %v", got, ok)
	}

	if _, ok := IsExecutionFault(errors.New("disk full")); ok {
		t.Error("plain error should not be an ExecutionFault")
	}
	if _, ok := IsExecutionFault(nil); ok {
		t.Error("nil should not be an ExecutionFault")
	}
}
