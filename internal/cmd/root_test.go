package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	out, _, err := executeCommand(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "odc-colab")
	assert.Contains(t, out, "Open Data Cube notebooks")
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "odc-colab", cmd.Use)
	assert.True(t, cmd.SilenceUsage)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"test", "reset", "history", "db-url", "populate-db"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRootCommandVersion(t *testing.T) {
	old := Version
	Version = "1.2.3"
	defer func() { Version = old }()

	out, _, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.2.3")
}

func TestRootCommand_MissingExplicitConfig(t *testing.T) {
	isolate(t)
	_, _, err := executeCommand(t, "reset", "--config", "/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}
