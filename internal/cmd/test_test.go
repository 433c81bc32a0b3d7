package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/odc-colab/internal/dbconf"
	"github.com/harrison/odc-colab/internal/executor"
	"github.com/harrison/odc-colab/internal/report"
	"github.com/harrison/odc-colab/internal/successset"
)

func scenarioRoot(t *testing.T) string {
	return writeNotebooks(t, map[string]string{
		"a.ipynb":        `{"cells": ["print(1)"]}`,
		"b.ipynb":        `{"cells": ["raise NameError('x')"]}`,
		"excluded.ipynb": `{"cells": ["raise"]}`,
	})
}

func TestTestCommand_Scenario(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "execution:\n  jupyter_path: "+fakeJupyter(t)+"\n")
	root := scenarioRoot(t)

	out, _, err := executeCommand(t, "test", root, "--exclude", "excluded.ipynb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 notebook(s) failed")
	assert.Contains(t, out, "=== Notebook Test Summary ===")
	assert.Contains(t, out, "Executing a.ipynb")
	assert.Contains(t, out, "NameError: x")
	assert.NotContains(t, out, "excluded.ipynb")

	set, err := successset.NewStore(filepath.Join(home, "success_set.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ipynb"}, set.Sorted())

	errorsCSV, err := os.ReadFile(report.Path(filepath.Join(home, "reports"), report.TableErrors, "csv"))
	require.NoError(t, err)
	assert.Contains(t, string(errorsCSV), "b.ipynb,Error,NameError: x")

	// The second run only retries b.ipynb.
	out, _, err = executeCommand(t, "test", root, "--exclude", "excluded.ipynb")
	require.Error(t, err)
	assert.NotContains(t, out, "Executing a.ipynb")
	assert.Contains(t, out, "Executing b.ipynb")

	// Both runs are in the history ledger.
	out, _, err = executeCommand(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Recent Runs")
	assert.Contains(t, out, "b.ipynb: 2 failure(s)")
	assert.Contains(t, out, "last error: NameError: x")
}

func TestTestCommand_AllWorking(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "execution:\n  jupyter_path: "+fakeJupyter(t)+"\n")
	root := writeNotebooks(t, map[string]string{"a.ipynb": "{}", "sub/c.ipynb": "{}"})

	out, _, err := executeCommand(t, "test", root, "--no-history")
	require.NoError(t, err)
	assert.Contains(t, out, "Reports written to: "+filepath.Join(home, "reports"))
	assert.NoFileExists(t, filepath.Join(home, "history.db"))
	assert.FileExists(t, filepath.Join(home, "logs", "latest.log"))
}

func TestTestCommand_FlagsOverrideConfig(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "execution:\n  jupyter_path: "+fakeJupyter(t)+"\n")
	root := writeNotebooks(t, map[string]string{"a.ipynb": "{}"})
	reports := filepath.Join(t.TempDir(), "out")
	successSet := filepath.Join(t.TempDir(), "passed.yaml")

	_, _, err := executeCommand(t, "test", root,
		"--report-dir", reports, "--success-set", successSet, "--log-level", "error")
	require.NoError(t, err)
	assert.FileExists(t, report.Path(reports, report.TableFull, "html"))
	assert.FileExists(t, successSet)
}

func TestTestCommand_DryRun(t *testing.T) {
	home := isolate(t)
	// A missing jupyter does not matter for a dry run.
	writeConfig(t, home, "execution:\n  jupyter_path: /nonexistent/jupyter\n")
	root := scenarioRoot(t)
	require.NoError(t, successset.NewStore(filepath.Join(home, "success_set.yaml")).Save(successset.New("a.ipynb")))

	out, _, err := executeCommand(t, "test", root, "--dry-run", "--exclude", "excluded.ipynb")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry-run mode: 2 notebook(s) found")
	assert.Contains(t, out, "1 already working")
	assert.Contains(t, out, "[1/1] b.ipynb")
	assert.Contains(t, out, "1 notebook(s) pending")
	assert.NoDirExists(t, filepath.Join(home, "reports"))
}

func TestTestCommand_DryRunNothingPending(t *testing.T) {
	isolate(t)
	root := writeNotebooks(t, map[string]string{})

	out, _, err := executeCommand(t, "test", root, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to execute.")
}

func TestTestCommand_MissingJupyter(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "execution:\n  jupyter_path: /nonexistent/jupyter\n")
	root := writeNotebooks(t, map[string]string{"a.ipynb": "{}"})

	_, _, err := executeCommand(t, "test", root)
	require.ErrorIs(t, err, executor.ErrJupyterNotFound)
}

func TestTestCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    func(root string) []string
		wantErr string
	}{
		{
			name:    "missing root",
			args:    func(root string) []string { return []string{"test", filepath.Join(root, "missing")} },
			wantErr: "failed to enumerate notebooks",
		},
		{
			name:    "bad timeout",
			args:    func(root string) []string { return []string{"test", root, "--timeout", "soon"} },
			wantErr: "invalid timeout format",
		},
		{
			name:    "bad log level",
			args:    func(root string) []string { return []string{"test", root, "--log-level", "loud"} },
			wantErr: "invalid configuration",
		},
		{
			name:    "too many args",
			args:    func(root string) []string { return []string{"test", root, root} },
			wantErr: "accepts at most 1 arg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			root := t.TempDir()
			_, _, err := executeCommand(t, tt.args(root)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// withoutDBConfig clears every source of ODC configuration.
func withoutDBConfig(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/etc/datacube.conf"); err == nil {
		t.Skip("/etc/datacube.conf exists on this machine")
	}
	for _, key := range []string{dbconf.EnvDBURL, dbconf.EnvConfigPath} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func TestTestCommand_WarnsWithoutDBConfig(t *testing.T) {
	isolate(t)
	withoutDBConfig(t)
	root := writeNotebooks(t, map[string]string{})

	_, errOut, err := executeCommand(t, "test", root, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Warning: No Open Data Cube database configuration found")
	assert.Contains(t, errOut, dbconf.EnvDBURL)
	assert.Contains(t, errOut, "--default-dbconf")
}

func TestTestCommand_DefaultDBConf(t *testing.T) {
	isolate(t)
	withoutDBConfig(t)
	root := writeNotebooks(t, map[string]string{})

	out, errOut, err := executeCommand(t, "test", root, "--dry-run", "--default-dbconf")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote default ODC config")
	assert.False(t, strings.Contains(errOut, "Warning:"), "unexpected warning: %s", errOut)
	assert.FileExists(t, dbconf.DefaultConfigFile)
}
