// Package cron – store.go persists jobs in <workspace>/cron/jobs.db.
// Timestamps are stored as RFC 3339 strings in UTC.
package cron

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const jobsSchema = `
CREATE TABLE IF NOT EXISTS cron_jobs (
	id          TEXT PRIMARY KEY,
	expression  TEXT NOT NULL,
	command     TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	next_run    TEXT NOT NULL,
	last_run    TEXT,
	last_status TEXT,
	last_output TEXT
);
CREATE INDEX IF NOT EXISTS idx_cron_jobs_next_run ON cron_jobs(next_run);
`

// Job statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Job is one persisted scheduled command.
type Job struct {
	ID         string
	Expression string
	Command    string
	CreatedAt  time.Time
	NextRun    time.Time
	LastRun    *time.Time
	LastStatus string
	LastOutput string
}

// Store is the jobs database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the jobs database under workspaceDir.
func Open(workspaceDir string) (*Store, error) {
	dir := filepath.Join(workspaceDir, "cron")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cron dir: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, "jobs.db")+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening jobs db: %w", err)
	}
	if _, err := db.Exec(jobsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing jobs schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Add normalizes the expression, computes the first strictly-future firing,
// and inserts the job. An expression with no future firing is rejected.
func (s *Store) Add(expression, command string) (*Job, error) {
	normalized, err := NormalizeExpression(expression)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	nextRun, err := NextAfter(normalized, now)
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:         uuid.NewString(),
		Expression: normalized,
		Command:    command,
		CreatedAt:  now.UTC(),
		NextRun:    nextRun.UTC(),
	}

	_, err = s.db.Exec(`
		INSERT INTO cron_jobs (id, expression, command, created_at, next_run)
		VALUES (?, ?, ?, ?, ?)`,
		job.ID,
		job.Expression,
		job.Command,
		job.CreatedAt.Format(time.RFC3339),
		job.NextRun.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting job: %w", err)
	}
	return job, nil
}

// List returns all jobs ordered by next_run ascending.
func (s *Store) List() ([]*Job, error) {
	return s.query(`
		SELECT id, expression, command, created_at, next_run, last_run, last_status, last_output
		FROM cron_jobs ORDER BY next_run ASC`)
}

// Due returns jobs with next_run at or before now, ordered by next_run.
func (s *Store) Due(now time.Time) ([]*Job, error) {
	return s.query(`
		SELECT id, expression, command, created_at, next_run, last_run, last_status, last_output
		FROM cron_jobs WHERE next_run <= ? ORDER BY next_run ASC`,
		now.UTC().Format(time.RFC3339))
}

// Remove deletes a job by id; reports whether it existed.
func (s *Store) Remove(id string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM cron_jobs WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting job %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RescheduleAfterRun records the outcome of a firing and computes the next
// one from now, not from the original next_run, so a backlog never triggers
// a catch-up storm.
func (s *Store) RescheduleAfterRun(job *Job, success bool, output string) error {
	now := time.Now()
	nextRun, err := NextAfter(job.Expression, now)
	if err != nil {
		// Persisted jobs are assumed valid; a year-bounded expression can
		// still run out of firings here. Park it far in the future rather
		// than hot-looping the tick.
		nextRun = now.AddDate(100, 0, 0)
	}

	status := StatusOK
	if !success {
		status = StatusError
	}

	lastRun := now.UTC()
	_, err = s.db.Exec(`
		UPDATE cron_jobs
		SET next_run = ?, last_run = ?, last_status = ?, last_output = ?
		WHERE id = ?`,
		nextRun.UTC().Format(time.RFC3339),
		lastRun.Format(time.RFC3339),
		status,
		output,
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("rescheduling job %q: %w", job.ID, err)
	}

	job.NextRun = nextRun.UTC()
	job.LastRun = &lastRun
	job.LastStatus = status
	job.LastOutput = output
	return nil
}

func (s *Store) query(q string, args ...any) ([]*Job, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		var (
			j          Job
			createdAt  string
			nextRun    string
			lastRun    sql.NullString
			lastStatus sql.NullString
			lastOutput sql.NullString
		)
		if err := rows.Scan(&j.ID, &j.Expression, &j.Command, &createdAt, &nextRun, &lastRun, &lastStatus, &lastOutput); err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}

		j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		j.NextRun, _ = time.Parse(time.RFC3339, nextRun)
		if lastRun.Valid {
			t, _ := time.Parse(time.RFC3339, lastRun.String)
			j.LastRun = &t
		}
		j.LastStatus = lastStatus.String
		j.LastOutput = lastOutput.String
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}
