// Package history keeps a local SQLite record of export runs.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/scholarsite/internal/export"
	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
)

// Failure is one page that did not export.
type Failure struct {
	URLPath string
	Status  int
	Error   string
}

// Run is the stored record of one export.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Pages      int
	Succeeded  int
	Failed     int
	Outcome    string
	GitCommit  string
	// Failures is only populated by Get.
	Failures []Failure
}

// Duration returns the wall time of the run.
func (r Run) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// FromSummary converts an export summary into a Run.
func FromSummary(sum export.Summary, gitCommit string) Run {
	run := Run{
		ID:         sum.RunID,
		StartedAt:  sum.StartedAt,
		FinishedAt: sum.FinishedAt,
		Pages:      sum.Pages(),
		Succeeded:  sum.Succeeded,
		Failed:     sum.Failed,
		Outcome:    sum.Outcome(),
		GitCommit:  gitCommit,
	}
	for _, f := range sum.Failures() {
		run.Failures = append(run.Failures, Failure{URLPath: f.URLPath, Status: f.Status, Error: fmt.Sprint(f.Err)})
	}
	return run
}

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the history database at path. Use ":memory:" for an
// in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create history directory").
				WithContext("path", path).Build()
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "open history database").
			WithContext("path", path).Build()
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "initialize history schema").
			WithContext("path", path).Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		git_commit TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE TABLE IF NOT EXISTS failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		url_path TEXT NOT NULL,
		status INTEGER NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_failures_run ON failures(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores run and its failures in one transaction.
func (s *Store) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, started_at, finished_at, pages, succeeded, failed, outcome, git_commit) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		run.ID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(), run.Pages, run.Succeeded, run.Failed, run.Outcome, run.GitCommit,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, f := range run.Failures {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO failures (run_id, url_path, status, error) VALUES (?, ?, ?, ?)",
			run.ID, f.URLPath, f.Status, f.Error,
		); err != nil {
			return fmt.Errorf("insert failure: %w", err)
		}
	}
	return tx.Commit()
}

// List returns up to limit runs, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, started_at, finished_at, pages, succeeded, failed, outcome, git_commit FROM runs ORDER BY started_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Get returns one run with its failures.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, started_at, finished_at, pages, succeeded, failed, outcome, git_commit FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ferrors.NotFoundError("export run not found").WithContext("run_id", id).Build()
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT url_path, status, error FROM failures WHERE run_id = ? ORDER BY id", id)
	if err != nil {
		return Run{}, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var f Failure
		var msg sql.NullString
		if err := rows.Scan(&f.URLPath, &f.Status, &msg); err != nil {
			return Run{}, fmt.Errorf("scan failure: %w", err)
		}
		f.Error = msg.String
		run.Failures = append(run.Failures, f)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("iterate rows: %w", err)
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var started, finished int64
	var commit sql.NullString
	if err := sc.Scan(&run.ID, &started, &finished, &run.Pages, &run.Succeeded, &run.Failed, &run.Outcome, &commit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = time.UnixMilli(started)
	run.FinishedAt = time.UnixMilli(finished)
	run.GitCommit = commit.String
	return run, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
