// Package history keeps a sqlite ledger of pipeline runs so the status
// surface can report what happened without scraping logs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run outcomes as stored in the ledger.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeNoData    = "no-data"
	OutcomeQuota     = "quota-reached"
)

// Run is one ledger row.
type Run struct {
	ID         int64
	Word       string
	Outcome    string
	StartedAt  time.Time
	FinishedAt time.Time
	VideoPath  string
	ErrorText  string
}

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	word TEXT NOT NULL,
	outcome TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL,
	video_path TEXT NOT NULL DEFAULT '',
	error_text TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Open opens (and if needed creates) the ledger database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one run row.
func (s *Store) Record(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (word, outcome, started_at, finished_at, video_path, error_text)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.Word, run.Outcome, run.StartedAt, run.FinishedAt, run.VideoPath, run.ErrorText)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns the most recent n runs, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, word, outcome, started_at, finished_at, video_path, error_text
		 FROM runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Word, &run.Outcome, &run.StartedAt,
			&run.FinishedAt, &run.VideoPath, &run.ErrorText); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// CompletedSince counts completed runs that started at or after t.
func (s *Store) CompletedSince(ctx context.Context, t time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM runs WHERE outcome = ? AND started_at >= ?`,
		OutcomeCompleted, t).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}
