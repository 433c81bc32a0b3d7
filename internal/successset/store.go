// Package successset persists the set of notebooks that have already run
// without error, so later runs can skip them.
//
// The on-disk record is a small versioned YAML document:
//
//	version: 1
//	notebooks:
//	    - landsat/ndvi.ipynb
//	    - sentinel/cloud_mask.ipynb
//
// Identifiers are written sorted. Writes go through a temp file and a rename,
// so a reader sees either the previous record or the new one in full.
package successset

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/harrison/odc-colab/internal/filelock"
)

// FormatVersion is the record version written by Save.
const FormatVersion = 1

// ErrUnsupportedVersion is returned when a record has an unknown version.
var ErrUnsupportedVersion = errors.New("unsupported success set version")

// Set is a set of notebook identifiers.
type Set map[string]struct{}

// New returns a Set holding ids.
func New(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id.
func (s Set) Add(id string) {
	s[id] = struct{}{}
}

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of identifiers.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the identifiers in ascending order.
func (s Set) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type record struct {
	Version   int      `yaml:"version"`
	Notebooks []string `yaml:"notebooks"`
}

// Encode serialises s in the versioned record format.
func Encode(s Set) ([]byte, error) {
	data, err := yaml.Marshal(record{Version: FormatVersion, Notebooks: s.Sorted()})
	if err != nil {
		return nil, fmt.Errorf("failed to encode success set: %w", err)
	}
	return data, nil
}

// Decode parses a record produced by Encode. Empty input is an empty set.
func Decode(data []byte) (Set, error) {
	var rec record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse success set: %w", err)
	}

	if rec.Version == 0 && len(rec.Notebooks) == 0 {
		return Set{}, nil
	}
	if rec.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d (expected %d)", ErrUnsupportedVersion, rec.Version, FormatVersion)
	}

	return New(rec.Notebooks...), nil
}

// Store reads and writes the success set at a fixed path.
type Store struct {
	path string
}

// NewStore returns a Store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the record's file path.
func (s *Store) Path() string {
	return s.path
}

// LockPath returns the path of the run lock guarding the record.
func (s *Store) LockPath() string {
	return s.path + ".lock"
}

// Load reads the persisted set. A missing record yields an empty set.
func (s *Store) Load() (Set, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Set{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read success set %s: %w", s.path, err)
	}

	set, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return set, nil
}

// Save overwrites the persisted record with set.
func (s *Store) Save(set Set) error {
	data, err := Encode(set)
	if err != nil {
		return err
	}
	if err := filelock.AtomicWrite(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to save success set: %w", err)
	}
	return nil
}

// Clear deletes the persisted record so the next run executes everything.
// Clearing an absent record is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear success set: %w", err)
	}
	return nil
}
