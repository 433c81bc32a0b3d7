package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ExecutionConfig configures the notebook execution collaborator
type ExecutionConfig struct {
	// JupyterPath is the jupyter executable (name on PATH or absolute path)
	JupyterPath string `yaml:"jupyter_path"`

	// KernelName overrides the kernel recorded in each notebook (empty = notebook's own)
	KernelName string `yaml:"kernel_name"`

	// Timeout bounds each notebook's execution (0 = wait indefinitely)
	Timeout time.Duration `yaml:"timeout"`
}

// HistoryConfig represents the run history ledger configuration
type HistoryConfig struct {
	// Enabled records every run and notebook outcome in SQLite
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database
	DBPath string `yaml:"db_path"`
}

// Config represents odc-colab configuration options
type Config struct {
	// NotebookRoot is the directory searched for notebooks
	NotebookRoot string `yaml:"notebook_root"`

	// Exclude lists notebooks that are never run, by relative path or file name
	Exclude []string `yaml:"exclude"`

	// SuccessSet is the file recording notebooks that already passed
	SuccessSet string `yaml:"success_set"`

	// ReportDir receives the HTML and CSV reports
	ReportDir string `yaml:"report_dir"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where logs will be written
	LogDir string `yaml:"log_dir"`

	// DryRun lists the notebooks that would run without executing them
	DryRun bool `yaml:"dry_run"`

	// Execution configures how notebooks are executed
	Execution ExecutionConfig `yaml:"execution"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values. State paths
// live under StateDir().
func DefaultConfig() *Config {
	home := StateDir()
	return &Config{
		NotebookRoot: ".",
		Exclude:      nil,
		SuccessSet:   filepath.Join(home, "success_set.yaml"),
		ReportDir:    filepath.Join(home, "reports"),
		LogLevel:     "info",
		LogDir:       filepath.Join(home, "logs"),
		DryRun:       false,
		Execution: ExecutionConfig{
			JupyterPath: "jupyter",
			KernelName:  "",
			Timeout:     0, // Unbounded
		},
		History: HistoryConfig{
			Enabled: true,
			DBPath:  filepath.Join(home, "history.db"),
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Use a temporary struct to handle duration parsing
	type yamlExecution struct {
		JupyterPath string `yaml:"jupyter_path"`
		KernelName  string `yaml:"kernel_name"`
		Timeout     string `yaml:"timeout"`
	}
	type yamlConfig struct {
		NotebookRoot string        `yaml:"notebook_root"`
		Exclude      []string      `yaml:"exclude"`
		SuccessSet   string        `yaml:"success_set"`
		ReportDir    string        `yaml:"report_dir"`
		LogLevel     string        `yaml:"log_level"`
		LogDir       string        `yaml:"log_dir"`
		DryRun       bool          `yaml:"dry_run"`
		Execution    yamlExecution `yaml:"execution"`
		History      HistoryConfig `yaml:"history"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file (merging with defaults)
	if yamlCfg.NotebookRoot != "" {
		cfg.NotebookRoot = yamlCfg.NotebookRoot
	}
	if len(yamlCfg.Exclude) > 0 {
		cfg.Exclude = yamlCfg.Exclude
	}
	if yamlCfg.SuccessSet != "" {
		cfg.SuccessSet = yamlCfg.SuccessSet
	}
	if yamlCfg.ReportDir != "" {
		cfg.ReportDir = yamlCfg.ReportDir
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.DryRun {
		cfg.DryRun = yamlCfg.DryRun
	}
	if yamlCfg.Execution.JupyterPath != "" {
		cfg.Execution.JupyterPath = yamlCfg.Execution.JupyterPath
	}
	if yamlCfg.Execution.KernelName != "" {
		cfg.Execution.KernelName = yamlCfg.Execution.KernelName
	}
	if yamlCfg.Execution.Timeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.Execution.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid execution.timeout format %q: %w", yamlCfg.Execution.Timeout, err)
		}
		cfg.Execution.Timeout = timeout
	}

	// history.enabled may be explicitly false, so detect keys that were present
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if section, exists := rawMap["history"]; exists && section != nil {
			historyMap, _ := section.(map[string]interface{})
			if _, exists := historyMap["enabled"]; exists {
				cfg.History.Enabled = yamlCfg.History.Enabled
			}
			if _, exists := historyMap["db_path"]; exists {
				cfg.History.DBPath = yamlCfg.History.DBPath
			}
		}
	}

	return cfg, nil
}

// Overrides carries CLI flag values; nil fields leave the config unchanged.
type Overrides struct {
	NotebookRoot *string
	Exclude      []string // appended to the configured exclusions
	SuccessSet   *string
	ReportDir    *string
	LogLevel     *string
	LogDir       *string
	DryRun       *bool
	KernelName   *string
	Timeout      *time.Duration
	NoHistory    *bool
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// This allows CLI flags to take precedence over config file settings
func (c *Config) MergeWithFlags(o Overrides) {
	if o.NotebookRoot != nil {
		c.NotebookRoot = *o.NotebookRoot
	}
	if len(o.Exclude) > 0 {
		c.Exclude = append(append([]string(nil), c.Exclude...), o.Exclude...)
	}
	if o.SuccessSet != nil {
		c.SuccessSet = *o.SuccessSet
	}
	if o.ReportDir != nil {
		c.ReportDir = *o.ReportDir
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	if o.LogDir != nil {
		c.LogDir = *o.LogDir
	}
	if o.DryRun != nil {
		c.DryRun = *o.DryRun
	}
	if o.KernelName != nil {
		c.Execution.KernelName = *o.KernelName
	}
	if o.Timeout != nil {
		c.Execution.Timeout = *o.Timeout
	}
	if o.NoHistory != nil && *o.NoHistory {
		c.History.Enabled = false
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if c.NotebookRoot == "" {
		return fmt.Errorf("notebook_root cannot be empty")
	}
	if c.SuccessSet == "" {
		return fmt.Errorf("success_set cannot be empty")
	}
	if c.ReportDir == "" {
		return fmt.Errorf("report_dir cannot be empty")
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	// Timeout can be 0 (no timeout) or positive, negative is invalid
	if c.Execution.Timeout < 0 {
		return fmt.Errorf("execution.timeout must be >= 0, got %v", c.Execution.Timeout)
	}
	if c.Execution.JupyterPath == "" {
		return fmt.Errorf("execution.jupyter_path cannot be empty")
	}

	if c.History.Enabled && c.History.DBPath == "" {
		return fmt.Errorf("history.db_path cannot be empty when history is enabled")
	}

	return nil
}
