// Package history keeps a SQLite ledger of batch runs and the notebooks each
// run executed. It is write-only from the runner's point of view; the
// success set remains the only input that decides what runs next.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/odc-colab/internal/models"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Run is one row of the runs table.
type Run struct {
	RunID      string
	Root       string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is in progress or if it crashed
	State      models.RunState
	Enumerated int
	Skipped    int
	Executed   int
	Working    int
	Errors     int
}

// FailureCount aggregates Error executions of one notebook across runs.
type FailureCount struct {
	Notebook  string
	Failures  int
	LastError string
}

// Store manages the SQLite history database
type Store struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Open opens (creating if needed) the history database at dbPath and
// applies pending migrations. ":memory:" opens a private in-memory ledger.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: the runner is the only writer, and an in-memory
	// database exists per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath, now: time.Now}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// execWithRetry executes a statement, backing off exponentially on
// "database is locked".
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StartRun inserts a run in the executing state.
func (s *Store) StartRun(ctx context.Context, runID, root string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, root, started_at, state) VALUES (?, ?, ?, ?)`,
		runID, root, formatTime(s.now()), string(models.StateExecuting))
	if err != nil {
		return fmt.Errorf("record run start %s: %w", runID, err)
	}
	return nil
}

// RecordRow appends one notebook outcome to runID.
func (s *Store) RecordRow(ctx context.Context, runID string, row models.ReportRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO executions (run_id, notebook, status, detail, duration_ms, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, row.Notebook, string(row.Status), row.Detail, row.Duration.Milliseconds(), formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("record execution of %s: %w", row.Notebook, err)
	}
	return nil
}

// FinishRun stores the final state and counters of a run.
func (s *Store) FinishRun(ctx context.Context, result models.RunResult) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, state = ?, enumerated = ?, skipped = ?,
		 executed = ?, working = ?, errors = ? WHERE run_id = ?`,
		formatTime(s.now()), string(result.State), result.Enumerated, result.Skipped,
		result.Executed, result.Working, result.Errors, result.RunID)
	if err != nil {
		return fmt.Errorf("record run finish %s: %w", result.RunID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("record run finish: unknown run %s", result.RunID)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, root, started_at, finished_at, state, enumerated, skipped, executed, working, errors
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  string
			finished sql.NullString
			state    string
		)
		if err := rows.Scan(&r.RunID, &r.Root, &started, &finished, &state,
			&r.Enumerated, &r.Skipped, &r.Executed, &r.Working, &r.Errors); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.State = models.RunState(state)
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if finished.Valid {
			if r.FinishedAt, err = parseTime(finished.String); err != nil {
				return nil, err
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Executions returns the rows recorded for runID in execution order.
func (s *Store) Executions(ctx context.Context, runID string) ([]models.ReportRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT notebook, status, COALESCE(detail, ''), duration_ms
		 FROM executions WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	var out []models.ReportRow
	for rows.Next() {
		var (
			row    models.ReportRow
			status string
			ms     int64
		)
		if err := rows.Scan(&row.Notebook, &status, &row.Detail, &ms); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		row.Status = models.Status(status)
		row.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, row)
	}
	return out, rows.Err()
}

// FailureCounts returns notebooks with at least one Error execution, most
// failures first, with the detail of each notebook's latest failure.
func (s *Store) FailureCounts(ctx context.Context, limit int) ([]FailureCount, error) {
	// SQLite takes bare columns from the row that supplied MAX(id).
	rows, err := s.db.QueryContext(ctx,
		`SELECT notebook, COUNT(*) AS failures, COALESCE(detail, ''), MAX(id)
		 FROM executions WHERE status = ?
		 GROUP BY notebook ORDER BY failures DESC, notebook LIMIT ?`,
		string(models.StatusError), limit)
	if err != nil {
		return nil, fmt.Errorf("query failure counts: %w", err)
	}
	defer rows.Close()

	var out []FailureCount
	for rows.Next() {
		var (
			fc     FailureCount
			lastID int64
		)
		if err := rows.Scan(&fc.Notebook, &fc.Failures, &fc.LastError, &lastID); err != nil {
			return nil, fmt.Errorf("scan failure count: %w", err)
		}
		out = append(out, fc)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}
