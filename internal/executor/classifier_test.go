package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/odc-colab/internal/models"
)

func writeNotebook(t *testing.T, dir, name string) models.Notebook {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(`{"cells": []}`), 0o644))
	return models.Notebook{ID: filepath.ToSlash(name), Path: p}
}

func TestClassifier_Working(t *testing.T) {
	nb := writeNotebook(t, t.TempDir(), "sub/a.ipynb")
	var gotPath, gotDir string
	exec := ExecutorFunc(func(ctx context.Context, notebookPath, workDir string) error {
		gotPath, gotDir = notebookPath, workDir
		return nil
	})

	row, err := NewClassifier(exec, 0).Classify(context.Background(), nb)
	require.NoError(t, err)

	assert.Equal(t, "sub/a.ipynb", row.Notebook)
	assert.Equal(t, models.StatusWorking, row.Status)
	assert.Empty(t, row.Detail)
	assert.NoError(t, row.Validate())
	assert.Equal(t, nb.Path, gotPath)
	assert.Equal(t, filepath.Dir(nb.Path), gotDir, "working directory is the notebook's directory")
}

func TestClassifier_ExecutionFault(t *testing.T) {
	nb := writeNotebook(t, t.TempDir(), "b.ipynb")
	exec := ExecutorFunc(func(ctx context.Context, notebookPath, workDir string) error {
		return &ExecutionFault{Notebook: notebookPath, Detail: "\x1b[0;31mNameError\x1b[0m: x"}
	})

	row, err := NewClassifier(exec, 0).Classify(context.Background(), nb)
	require.NoError(t, err)

	assert.Equal(t, models.StatusError, row.Status)
	assert.Equal(t, "NameError: x", row.Detail)
}

func TestClassifier_FaultWithoutDetail(t *testing.T) {
	nb := writeNotebook(t, t.TempDir(), "b.ipynb")
	exec := ExecutorFunc(func(ctx context.Context, notebookPath, workDir string) error {
		return &ExecutionFault{Notebook: "b.ipynb", Err: &ExitError{Name: "jupyter", Code: 1}}
	})

	row, err := NewClassifier(exec, 0).Classify(context.Background(), nb)
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, row.Status)
	assert.Equal(t, "notebook b.ipynb failed: jupyter exited with status 1", row.Detail)
}

func TestClassifier_UnexpectedFaultPropagates(t *testing.T) {
	nb := writeNotebook(t, t.TempDir(), "a.ipynb")
	boom := errors.New("disk full")
	exec := ExecutorFunc(func(ctx context.Context, notebookPath, workDir string) error {
		return boom
	})

	_, err := NewClassifier(exec, 0).Classify(context.Background(), nb)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "a.ipynb")
}

func TestClassifier_UnreadableNotebook(t *testing.T) {
	called := false
	exec := ExecutorFunc(func(ctx context.Context, notebookPath, workDir string) error {
		called = true
		return nil
	})
	nb := models.Notebook{ID: "gone.ipynb", Path: filepath.Join(t.TempDir(), "gone.ipynb")}

	_, err := NewClassifier(exec, 0).Classify(context.Background(), nb)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.False(t, called, "executor must not run when the notebook cannot be opened")
}

func TestClassifier_NoTimeoutByDefault(t *testing.T) {
	nb := writeNotebook(t, t.TempDir(), "a.ipynb")
	exec := ExecutorFunc(func(ctx context.Context, notebookPath, workDir string) error {
		_, hasDeadline := ctx.Deadline()
		assert.False(t, hasDeadline, "unbounded execution should not carry a deadline")
		return nil
	})

	c := NewClassifier(exec, 0)
	assert.Zero(t, c.Timeout())
	_, err := c.Classify(context.Background(), nb)
	require.NoError(t, err)
}

func TestClassifier_TimeoutIsExecutionFault(t *testing.T) {
	nb := writeNotebook(t, t.TempDir(), "slow.ipynb")
	exec := ExecutorFunc(func(ctx context.Context, notebookPath, workDir string) error {
		<-ctx.Done()
		return ctx.Err()
	})

	row, err := NewClassifier(exec, 20*time.Millisecond).Classify(context.Background(), nb)
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, row.Status)
	assert.Equal(t, "execution timed out after 20ms", row.Detail)
}

func TestClassifier_ParentCancelPropagates(t *testing.T) {
	nb := writeNotebook(t, t.TempDir(), "a.ipynb")
	ctx, cancel := context.WithCancel(context.Background())
	exec := ExecutorFunc(func(ctx context.Context, notebookPath, workDir string) error {
		cancel()
		return ctx.Err()
	})

	_, err := NewClassifier(exec, time.Hour).Classify(ctx, nb)
	require.ErrorIs(t, err, context.Canceled)
}
