package cmd

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harrison/odc-colab/internal/config"
	"github.com/harrison/odc-colab/internal/dbconf"
)

// executeCommand runs the root command with args and returns stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

// isolate points the state directory at a fresh temp dir and marks an ODC
// database as configured. It returns the state directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.HomeEnv, home)
	t.Setenv(dbconf.EnvDBURL, "postgresql://odc@localhost:5432/datacube")
	return home
}

// writeNotebooks creates notebooks under a fresh root. Bodies containing
// "raise" fail under fakeJupyter.
func writeNotebooks(t *testing.T, notebooks map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range notebooks {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	}
	return root
}

// fakeJupyter writes a stand-in jupyter that fails notebooks containing
// "raise" the way nbconvert reports a cell error.
func fakeJupyter(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	script := filepath.Join(t.TempDir(), "jupyter")
	body := "#!" + sh + `
for last; do :; done
if grep -q raise "$last"; then
  echo 'nbclient.exceptions.CellExecutionError: NameError: x' >&2
  exit 1
fi
exit 0
`
	require.NoError(t, os.WriteFile(script, []byte(body), 0755))
	return script
}

// writeConfig writes config.yaml into the state directory.
func writeConfig(t *testing.T, home, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(body), 0644))
}
