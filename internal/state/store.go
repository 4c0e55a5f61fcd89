// Package state persists validation run history in SQLite: one row per
// run plus per-rule failure counts, so reporters can track whether a
// resubmission actually fixed anything.
package state

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // sqlite driver
)

//go:embed schema.sql
var schemaSQL string

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is one validation run.
type Run struct {
	ID               string
	ReportingCountry string
	CurrencyCode     string
	Quarter          string
	Status           string
	FailureCount     int
	IssueCount       int
	StartedAt        time.Time
	FinishedAt       *time.Time
}

// RuleResult is the failure count of one rule within a run.
type RuleResult struct {
	RunID     string
	RuleID    string
	FailCount int
}

// Store is a SQLite-backed run-history store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates an unopened store instance.
func NewStore() *Store {
	return &Store{}
}

// Open opens the database and initializes the schema. Use ":memory:" for an
// in-memory store.
func (s *Store) Open(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping state database: %w", err)
	}
	if path != ":memory:" {
		// WAL keeps the store usable while a report is being written.
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to enable WAL: %w", err)
		}
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	s.db = db
	s.path = path
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateRun records the start of a validation run for the given reporting
// parameters and returns it with a fresh ID.
func (s *Store) CreateRun(country, currency, quarter string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("state database not opened")
	}
	run := &Run{
		ID:               uuid.New().String(),
		ReportingCountry: country,
		CurrencyCode:     currency,
		Quarter:          quarter,
		Status:           RunStatusRunning,
		StartedAt:        time.Now().UTC(),
	}
	_, err := s.db.Exec(`
		INSERT INTO runs (id, reporting_country, currency_code, quarter, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.ReportingCountry, run.CurrencyCode, run.Quarter, run.Status, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// FinishRun marks a run finished with its final status and counts.
func (s *Store) FinishRun(id, status string, failureCount, issueCount int) error {
	if s.db == nil {
		return fmt.Errorf("state database not opened")
	}
	res, err := s.db.Exec(`
		UPDATE runs SET status = ?, failure_count = ?, issue_count = ?, finished_at = ?
		WHERE id = ?`,
		status, failureCount, issueCount, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// RecordRuleResult upserts the failure count of one rule within a run.
func (s *Store) RecordRuleResult(runID, ruleID string, failCount int) error {
	if s.db == nil {
		return fmt.Errorf("state database not opened")
	}
	_, err := s.db.Exec(`
		INSERT INTO rule_results (run_id, rule_id, fail_count)
		VALUES (?, ?, ?)
		ON CONFLICT (run_id, rule_id) DO UPDATE SET fail_count = excluded.fail_count`,
		runID, ruleID, failCount)
	if err != nil {
		return fmt.Errorf("failed to record rule result: %w", err)
	}
	return nil
}

// GetRun returns one run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("state database not opened")
	}
	row := s.db.QueryRow(`
		SELECT id, reporting_country, currency_code, quarter, status,
		       failure_count, issue_count, started_at, finished_at
		FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("state database not opened")
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, reporting_country, currency_code, quarter, status,
		       failure_count, issue_count, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RuleResults returns the per-rule failure counts of one run.
func (s *Store) RuleResults(runID string) ([]RuleResult, error) {
	if s.db == nil {
		return nil, fmt.Errorf("state database not opened")
	}
	rows, err := s.db.Query(`
		SELECT run_id, rule_id, fail_count FROM rule_results
		WHERE run_id = ? ORDER BY rule_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []RuleResult
	for rows.Next() {
		var r RuleResult
		if err := rows.Scan(&r.RunID, &r.RuleID, &r.FailCount); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var finished sql.NullTime
	err := row.Scan(&run.ID, &run.ReportingCountry, &run.CurrencyCode, &run.Quarter,
		&run.Status, &run.FailureCount, &run.IssueCount, &run.StartedAt, &finished)
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
