package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the state directory.
const HomeEnv = "ODC_COLAB_HOME"

// DefaultStateDir is the state directory used when HomeEnv is unset,
// relative to the working directory.
const DefaultStateDir = ".odc-colab"

// StateDir returns the directory holding config, success set, reports,
// logs and history.
// Priority order:
//  1. ODC_COLAB_HOME environment variable (if set)
//  2. .odc-colab under the current working directory
func StateDir() string {
	if home := os.Getenv(HomeEnv); home != "" {
		return home
	}
	return DefaultStateDir
}

// DefaultConfigPath returns the config file location inside StateDir.
func DefaultConfigPath() string {
	return filepath.Join(StateDir(), "config.yaml")
}

// EnsureStateDir creates the state directory if it does not exist.
func EnsureStateDir() (string, error) {
	dir := StateDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create state directory: %w", err)
	}
	return dir, nil
}
