package dbconf

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	dir    string
	name   string
	args   []string
	output string
	err    error
}

func (r *recordingRunner) Run(_ context.Context, dir, name string, args ...string) (string, error) {
	r.dir, r.name, r.args = dir, name, args
	return r.output, r.err
}

type entry struct {
	name string
	body string
	dir  bool
}

func writeTar(t *testing.T, path string, compress bool, entries ...entry) {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0644, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		if e.dir {
			hdr = &tar.Header{Name: e.name, Mode: 0755, Typeflag: tar.TypeDir}
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if !e.dir {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())

	data := buf.Bytes()
	if compress {
		var gz bytes.Buffer
		zw := gzip.NewWriter(&gz)
		_, err := zw.Write(data)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		data = gz.Bytes()
	}
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestSQLFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "ls8_dump.tar.gz", want: "ls8_dump"},
		{in: "/data/ls8_dump.sql.tar.gz", want: "ls8_dump"},
		{in: "dump.tar", want: "dump"},
		{in: "dump", want: "dump"},
		{in: ".hidden", want: ".hidden"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SQLFileName(tt.in), "SQLFileName(%q)", tt.in)
	}
}

func TestPopulate_MissingArchive(t *testing.T) {
	runner := &recordingRunner{}

	_, err := Populate(context.Background(), runner, filepath.Join(t.TempDir(), "nope.tar.gz"), t.TempDir(), "")
	require.ErrorIs(t, err, ErrArchiveNotFound)
	assert.Empty(t, runner.name, "psql must not run")
}

func TestPopulate_GzipArchive(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	archive := filepath.Join(src, "odc_dump.tar.gz")
	writeTar(t, archive, true, entry{name: "odc_dump", body: "CREATE TABLE x();\n"})
	runner := &recordingRunner{}

	sqlFile, err := Populate(context.Background(), runner, archive, dest, "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dest, "odc_dump"), sqlFile)
	data, err := os.ReadFile(sqlFile)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE x();\n", string(data))

	assert.Equal(t, "psql", runner.name)
	assert.Equal(t, dest, runner.dir)
	assert.Equal(t, []string{"-f", sqlFile, "-d", "datacube"}, runner.args)
}

func TestPopulate_PsqlFailure(t *testing.T) {
	dest := t.TempDir()
	archive := filepath.Join(t.TempDir(), "dump.tar")
	writeTar(t, archive, false, entry{name: "dump", body: "SELECT 1;"})
	runner := &recordingRunner{output: "psql: error: connection refused\n", err: errors.New("exit status 2")}

	_, err := Populate(context.Background(), runner, archive, dest, "odc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, []string{"-f", filepath.Join(dest, "dump"), "-d", "odc"}, runner.args)
}

func TestExtract_Directories(t *testing.T) {
	dest := t.TempDir()
	archive := filepath.Join(t.TempDir(), "tree.tar")
	writeTar(t, archive, false,
		entry{name: "data/", dir: true},
		entry{name: "data/a.sql", body: "a"},
		entry{name: "b/c.sql", body: "c"},
	)

	require.NoError(t, Extract(archive, dest))
	assert.FileExists(t, filepath.Join(dest, "data", "a.sql"))
	assert.FileExists(t, filepath.Join(dest, "b", "c.sql"))
}

func TestExtract_RejectsTraversal(t *testing.T) {
	dest := t.TempDir()
	archive := filepath.Join(t.TempDir(), "evil.tar")
	writeTar(t, archive, false, entry{name: "../escape.sql", body: "x"})

	err := Extract(archive, dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes destination")
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dest), "escape.sql"))
}

func TestExtract_NotATar(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "garbage.tar")
	require.NoError(t, os.WriteFile(archive, bytes.Repeat([]byte("not a tar "), 100), 0644))

	assert.Error(t, Extract(archive, t.TempDir()))
}
