package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/goldcheck/internal/compare"
)

// Run is one recorded validation run.
type Run struct {
	ID               string
	GoldenPath       string
	TestPath         string
	Verdict          bool
	HardViolations   int
	DatasetsCompared int
	StartedAt        time.Time
	Duration         time.Duration
}

// RunRepository persists validation runs and their violations.
type RunRepository struct {
	conn *sql.DB
}

// Save records a finished run with all its violations and returns the
// generated run ID.
func (r *RunRepository) Save(goldenPath, testPath string, s *compare.Session, startedAt time.Time, duration time.Duration) (string, error) {
	id := uuid.NewString()

	tx, err := r.conn.Begin()
	if err != nil {
		return "", fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO runs (id, golden_path, test_path, verdict, hard_violations, datasets_compared, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, goldenPath, testPath, s.Passed(), s.HardCount(), s.DatasetsCompared(),
		startedAt.UTC(), duration.Milliseconds())
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	for _, v := range s.Violations() {
		_, err = tx.Exec(`
			INSERT INTO run_violations (run_id, path, kind, message)
			VALUES (?, ?, ?, ?)`,
			id, v.Path, string(v.Kind), v.Message)
		if err != nil {
			return "", fmt.Errorf("inserting violation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// Recent returns the newest runs, most recent first.
func (r *RunRepository) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.conn.Query(`
		SELECT id, golden_path, test_path, verdict, hard_violations, datasets_compared, started_at, duration_ms
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var durationMS int64
		if err := rows.Scan(&run.ID, &run.GoldenPath, &run.TestPath, &run.Verdict,
			&run.HardViolations, &run.DatasetsCompared, &run.StartedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Violations returns the violations recorded for one run.
func (r *RunRepository) Violations(runID string) ([]compare.Violation, error) {
	rows, err := r.conn.Query(`
		SELECT path, kind, message FROM run_violations WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying violations: %w", err)
	}
	defer rows.Close()

	var out []compare.Violation
	for rows.Next() {
		var v compare.Violation
		var kind string
		if err := rows.Scan(&v.Path, &kind, &v.Message); err != nil {
			return nil, fmt.Errorf("scanning violation: %w", err)
		}
		v.Kind = compare.Kind(kind)
		out = append(out, v)
	}
	return out, rows.Err()
}

// Get returns one run by ID.
func (r *RunRepository) Get(runID string) (*Run, error) {
	var run Run
	var durationMS int64
	err := r.conn.QueryRow(`
		SELECT id, golden_path, test_path, verdict, hard_violations, datasets_compared, started_at, duration_ms
		FROM runs WHERE id = ?`, runID).
		Scan(&run.ID, &run.GoldenPath, &run.TestPath, &run.Verdict,
			&run.HardViolations, &run.DatasetsCompared, &run.StartedAt, &durationMS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return &run, nil
}
