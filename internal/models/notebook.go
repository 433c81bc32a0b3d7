package models

import (
	"fmt"
	"path"
	"time"
)

// Status is the outcome of executing a notebook.
type Status string

// Notebook execution status constants
const (
	StatusWorking Status = "Working" // Notebook ran to completion
	StatusError   Status = "Error"   // Notebook raised an execution fault
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusWorking || s == StatusError
}

// Notebook is a notebook under test. ID is the slash-separated path relative
// to the enumeration root and is stable across runs.
type Notebook struct {
	ID   string // Relative path, e.g. "notebooks/landsat/ndvi.ipynb"
	Path string // Path on disk (root joined with ID)
}

// Name returns the notebook's base file name.
func (n Notebook) Name() string {
	return path.Base(n.ID)
}

// ReportRow is one notebook's outcome record.
type ReportRow struct {
	Notebook string        // Notebook identifier
	Status   Status        // Working or Error
	Detail   string        // Error text, empty when Working
	Duration time.Duration // Wall time spent executing
}

// Validate checks the row's invariants: a known status, and an empty detail
// for working notebooks.
func (r ReportRow) Validate() error {
	if r.Notebook == "" {
		return fmt.Errorf("report row has empty notebook identifier")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("report row for %s has invalid status %q", r.Notebook, r.Status)
	}
	if r.Status == StatusWorking && r.Detail != "" {
		return fmt.Errorf("report row for %s is Working but carries error detail", r.Notebook)
	}
	return nil
}
