// Package discovery enumerates the notebooks under a directory tree.
//
// Enumeration is lazy and restartable: every range over Enumerator.All walks
// the tree again, so a long-lived Enumerator observes notebooks added or
// removed between runs. Results are ordered by full path and never include
// notebooks in the exclusion set.
package discovery

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/harrison/odc-colab/internal/models"
)

// NotebookExt is the file extension of enumerated notebooks.
const NotebookExt = ".ipynb"

// EnumerationError reports that the enumeration root is missing or unreadable.
type EnumerationError struct {
	Root string
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("cannot enumerate notebooks under %s: %v", e.Root, e.Err)
}

func (e *EnumerationError) Unwrap() error {
	return e.Err
}

// ExclusionSet holds notebooks that are known not to run. An entry matches a
// notebook by its relative path or by its base file name.
type ExclusionSet map[string]struct{}

// NewExclusionSet builds an ExclusionSet from names, ignoring blanks.
func NewExclusionSet(names ...string) ExclusionSet {
	set := make(ExclusionSet, len(names))
	for _, name := range names {
		name = strings.TrimSpace(filepath.ToSlash(name))
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	return set
}

// Excludes reports whether the notebook identifier id is excluded.
func (s ExclusionSet) Excludes(id string) bool {
	if _, ok := s[id]; ok {
		return true
	}
	_, ok := s[path.Base(id)]
	return ok
}

// Sorted returns the entries in ascending order.
func (s ExclusionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Enumerator lists notebooks under a root directory.
type Enumerator struct {
	root    string
	exclude ExclusionSet

	mu      sync.Mutex
	skipped []string // from the most recently finished walk
}

// New validates root and returns an Enumerator for it. It returns an
// *EnumerationError if root does not exist, is not a directory, or cannot
// be read.
func New(root string, exclude ExclusionSet) (*Enumerator, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &EnumerationError{Root: root, Err: err}
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, &EnumerationError{Root: absRoot, Err: err}
	}
	if !info.IsDir() {
		return nil, &EnumerationError{Root: absRoot, Err: fmt.Errorf("not a directory")}
	}

	dir, err := os.Open(absRoot)
	if err != nil {
		return nil, &EnumerationError{Root: absRoot, Err: err}
	}
	defer dir.Close()
	if _, err := dir.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return nil, &EnumerationError{Root: absRoot, Err: err}
	}

	if exclude == nil {
		exclude = ExclusionSet{}
	}

	return &Enumerator{
		root:    absRoot,
		exclude: exclude,
	}, nil
}

// Root returns the absolute enumeration root.
func (e *Enumerator) Root() string {
	return e.root
}

// All returns the notebooks under the root in ascending order of full path.
// The tree is walked when iteration starts.
func (e *Enumerator) All() iter.Seq[models.Notebook] {
	return func(yield func(models.Notebook) bool) {
		for _, nb := range e.scan() {
			if !yield(nb) {
				return
			}
		}
	}
}

// List collects one full enumeration.
func (e *Enumerator) List() []models.Notebook {
	return slices.Collect(e.All())
}

// Skipped returns the directories the most recently finished walk could
// not read.
func (e *Enumerator) Skipped() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.skipped)
}

// scan walks the tree once. Concurrent walks keep their own skipped lists
// and publish them when done.
func (e *Enumerator) scan() []models.Notebook {
	var (
		notebooks []models.Notebook
		skipped   []string
	)

	filepath.WalkDir(e.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			skipped = append(skipped, p)
			if d != nil && d.IsDir() && p != e.root {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			// Hidden directories include Jupyter's .ipynb_checkpoints autosaves
			if p != e.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(d.Name()), NotebookExt) {
			return nil
		}

		rel, err := filepath.Rel(e.root, p)
		if err != nil {
			skipped = append(skipped, p)
			return nil
		}
		id := filepath.ToSlash(rel)
		if e.exclude.Excludes(id) {
			return nil
		}

		notebooks = append(notebooks, models.Notebook{ID: id, Path: p})
		return nil
	})

	sort.Slice(notebooks, func(i, j int) bool {
		return notebooks[i].Path < notebooks[j].Path
	})

	e.mu.Lock()
	e.skipped = skipped
	e.mu.Unlock()
	return notebooks
}
