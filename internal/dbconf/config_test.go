package dbconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func existsIn(paths ...string) func(string) bool {
	set := make(map[string]bool)
	for _, p := range paths {
		set[p] = true
	}
	return func(p string) bool { return set[p] }
}

func TestConfigPaths(t *testing.T) {
	assert.Equal(t, []string{"/etc/datacube.conf", filepath.Join("/home/u", ".datacube.conf"), "datacube.conf"}, ConfigPaths("/home/u"))
	assert.Equal(t, []string{"/etc/datacube.conf", "datacube.conf"}, ConfigPaths(""))
}

func TestConfigPresent(t *testing.T) {
	home := "/home/u"
	tests := []struct {
		name   string
		env    map[string]string
		exists []string
		want   bool
	}{
		{name: "nothing", want: false},
		{name: "db url set", env: map[string]string{EnvDBURL: "postgresql://x@y:5432/datacube"}, want: true},
		{name: "db url set but empty", env: map[string]string{EnvDBURL: ""}, want: true},
		{name: "config path exists", env: map[string]string{EnvConfigPath: "/cfg/dc.conf"}, exists: []string{"/cfg/dc.conf"}, want: true},
		{name: "config path missing", env: map[string]string{EnvConfigPath: "/cfg/dc.conf"}, want: false},
		{name: "system file", exists: []string{"/etc/datacube.conf"}, want: true},
		{name: "home file", exists: []string{filepath.Join(home, ".datacube.conf")}, want: true},
		{name: "local file", exists: []string{"datacube.conf"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConfigPresent(envOf(tt.env), existsIn(tt.exists...), home)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteDefaultConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "datacube.conf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[default]\ndb_database: datacube\n")
	assert.Contains(t, string(data), "db_hostname:")
	assert.True(t, fileExists(path))
	assert.False(t, fileExists(filepath.Join(dir, "missing.conf")))
}
