package dbconf

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/odc-colab/internal/executor"
)

// ErrArchiveNotFound indicates the dump archive does not exist.
var ErrArchiveNotFound = errors.New("archive does not exist")

// SQLFileName derives the dump file name from an archive name by removing
// every extension: "ls8_dump.sql.tar.gz" becomes "ls8_dump".
func SQLFileName(archive string) string {
	name := filepath.Base(archive)
	for {
		ext := filepath.Ext(name)
		if ext == "" || ext == "." || ext == name {
			return name
		}
		name = strings.TrimSuffix(name, ext)
	}
}

// Populate extracts archive into destDir and loads the contained dump into
// dbName with psql. It returns the path of the loaded SQL file.
func Populate(ctx context.Context, runner executor.CommandRunner, archive, destDir, dbName string) (string, error) {
	if _, err := os.Stat(archive); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrArchiveNotFound, archive)
		}
		return "", fmt.Errorf("stat archive: %w", err)
	}
	if dbName == "" {
		dbName = DefaultDBName
	}

	if err := Extract(archive, destDir); err != nil {
		return "", err
	}

	sqlFile := filepath.Join(destDir, SQLFileName(archive))
	output, err := runner.Run(ctx, destDir, "psql", "-f", sqlFile, "-d", dbName)
	if err != nil {
		return sqlFile, fmt.Errorf("psql -f %s: %w\n%s", sqlFile, err, strings.TrimSpace(output))
	}
	return sqlFile, nil
}

// Extract unpacks a tar archive, optionally gzip or bzip2 compressed, into
// destDir. Entries that would land outside destDir are rejected.
func Extract(archive, destDir string) error {
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	r, err := decompress(bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("open archive %s: %w", archive, err)
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive %s: %w", archive, err)
		}

		target, err := entryPath(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		}
	}
}

func decompress(br *bufio.Reader) (io.Reader, error) {
	magic, err := br.Peek(3)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	switch {
	case bytes.HasPrefix(magic, []byte{0x1f, 0x8b}):
		return gzip.NewReader(br)
	case bytes.HasPrefix(magic, []byte("BZh")):
		return bzip2.NewReader(br), nil
	default:
		return br, nil
	}
}

func entryPath(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(destDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return target, nil
}

func writeEntry(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
