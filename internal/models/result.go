package models

import "time"

// RunState is a state of the batch runner.
type RunState string

// Batch runner states, in the order a healthy run visits them.
const (
	StateIdle        RunState = "idle"
	StateEnumerating RunState = "enumerating"
	StateFiltering   RunState = "filtering"
	StateExecuting   RunState = "executing"
	StateClassifying RunState = "classifying"
	StateRecording   RunState = "recording"
	StateFinalizing  RunState = "finalizing"
	StateDone        RunState = "done"
	StateFailed      RunState = "failed" // A fatal fault aborted the run
)

// RunResult summarises one invocation of the batch runner.
type RunResult struct {
	RunID      string        // UUID identifying the run
	Root       string        // Enumeration root
	State      RunState      // Final state (done or failed)
	Enumerated int           // Notebooks found after exclusion
	Skipped    int           // Notebooks skipped via the success set
	Executed   int           // Notebooks executed this run
	Working    int           // Executed notebooks that succeeded
	Errors     int           // Executed notebooks that failed
	Duration   time.Duration // Total wall time
	Failures   []ReportRow   // Error rows, in execution order
	Pending    []string      // Dry-run only: notebooks that would execute
}

// Success reports whether the run reached Done with no failing notebooks.
func (r RunResult) Success() bool {
	return r.State == StateDone && r.Errors == 0
}
