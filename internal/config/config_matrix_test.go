package config

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// TestLoadConfig_FullMatrixCoversAllFields ensures that every configuration field
// can be overridden via YAML and that nested sections are respected.
func TestLoadConfig_FullMatrixCoversAllFields(t *testing.T) {
	t.Setenv(HomeEnv, "")

	cfg, err := LoadConfig(filepath.Join("testdata", "full-config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	assertEqual(t, "NotebookRoot", cfg.NotebookRoot, "/content/odc-colab/notebooks")
	assertDeepEqual(t, "Exclude", cfg.Exclude, []string{"Landsat_Cloud_Masking.ipynb", "legacy/old_api.ipynb"})
	assertEqual(t, "SuccessSet", cfg.SuccessSet, "/tmp/odc/success.yaml")
	assertEqual(t, "ReportDir", cfg.ReportDir, "/tmp/odc/reports")
	assertEqual(t, "LogLevel", cfg.LogLevel, "debug")
	assertEqual(t, "LogDir", cfg.LogDir, "/tmp/odc/logs")
	assertEqual(t, "DryRun", cfg.DryRun, true)

	t.Run("Execution", func(t *testing.T) {
		assertEqual(t, "JupyterPath", cfg.Execution.JupyterPath, "/usr/local/bin/jupyter")
		assertEqual(t, "KernelName", cfg.Execution.KernelName, "odc")
		assertEqual(t, "Timeout", cfg.Execution.Timeout, 45*time.Minute)
	})

	t.Run("History", func(t *testing.T) {
		assertEqual(t, "Enabled", cfg.History.Enabled, false)
		assertEqual(t, "DBPath", cfg.History.DBPath, "/tmp/odc/history.db")
	})

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func assertEqual[T comparable](t *testing.T, field string, got, want T) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = %v, want %v", field, got, want)
	}
}

func assertDeepEqual(t *testing.T, field string, got, want interface{}) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("%s mismatch: got %#v, want %#v", field, got, want)
	}
}
