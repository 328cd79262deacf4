// Package store persists finished resolution runs to SQLite so that
// successive analyses of the same codebase can be compared over time.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"classlink/internal/engine/resolve"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Run is one persisted resolution outcome.
type Run struct {
	ID            string
	ProjectKey    string
	Timestamp     time.Time
	ClassCount    int
	RecordCount   int
	ResolvedCount int
	FallbackCount int
	DroppedCount  int
	Duration      time.Duration
}

// RunWarning is a persisted resolution warning row.
type RunWarning struct {
	RunID   string
	Code    string
	Kind    string
	Caller  string
	Target  string
	Message string
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("run store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("run store path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create run store directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite run store %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite run store %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun persists one run with its warnings and returns the run ID. A
// missing ID is filled with a fresh UUID.
func (s *Store) SaveRun(run Run, warnings []resolve.Warning) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	run.ProjectKey = strings.TrimSpace(run.ProjectKey)
	if run.ProjectKey == "" {
		run.ProjectKey = "default"
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}

	err := s.withRetry("save run", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}

		if _, err := tx.Exec(`
INSERT INTO runs (
  run_id, project_key, ts_utc, class_count, record_count,
  resolved_count, fallback_count, dropped_count, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
			run.ID,
			run.ProjectKey,
			run.Timestamp.UTC().Format(time.RFC3339Nano),
			run.ClassCount,
			run.RecordCount,
			run.ResolvedCount,
			run.FallbackCount,
			run.DroppedCount,
			run.Duration.Milliseconds(),
		); err != nil {
			_ = tx.Rollback()
			return err
		}

		for _, w := range warnings {
			if _, err := tx.Exec(`
INSERT INTO run_warnings (run_id, code, kind, caller, target, message)
VALUES (?, ?, ?, ?, ?, ?)
`, run.ID, string(w.Code), w.Kind.String(), w.Caller, w.Target, w.Message); err != nil {
				_ = tx.Rollback()
				return err
			}
		}

		return tx.Commit()
	})
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// RecentRuns returns up to limit runs for the project, newest first.
func (s *Store) RecentRuns(projectKey string, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		projectKey = "default"
	}
	if limit <= 0 {
		limit = 20
	}

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(`
SELECT run_id, project_key, ts_utc, class_count, record_count,
       resolved_count, fallback_count, dropped_count, duration_ms
FROM runs
WHERE project_key = ?
ORDER BY ts_utc DESC
LIMIT ?
`, projectKey, limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0, limit)
	for rows.Next() {
		var (
			run        Run
			tsRaw      string
			durationMS int64
		)
		if err := rows.Scan(
			&run.ID,
			&run.ProjectKey,
			&tsRaw,
			&run.ClassCount,
			&run.RecordCount,
			&run.ResolvedCount,
			&run.FallbackCount,
			&run.DroppedCount,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.Timestamp = ts.UTC()
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}

// WarningsForRun returns the persisted warnings of one run in insertion
// order.
func (s *Store) WarningsForRun(runID string) ([]RunWarning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load run warnings", func() error {
		var qErr error
		rows, qErr = s.db.Query(`
SELECT run_id, code, kind, caller, target, message
FROM run_warnings
WHERE run_id = ?
`, runID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	warnings := make([]RunWarning, 0)
	for rows.Next() {
		var w RunWarning
		if err := rows.Scan(&w.RunID, &w.Code, &w.Kind, &w.Caller, &w.Target, &w.Message); err != nil {
			return nil, fmt.Errorf("scan warning row: %w", err)
		}
		warnings = append(warnings, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate warning rows: %w", err)
	}

	return warnings, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
