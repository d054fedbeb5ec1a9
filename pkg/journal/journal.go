// Package journal keeps a durable history of sync cycles in SQLite.
package journal

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS sync_runs (
  id          INTEGER PRIMARY KEY,
  started_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  mode        TEXT NOT NULL CHECK (mode IN ('full','incremental')),
  new_rows    INTEGER NOT NULL,
  total_rows  INTEGER NOT NULL,
  duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sync_runs_time ON sync_runs(started_at);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Run is one recorded sync cycle.
type Run struct {
	ID        int64         `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Mode      string        `json:"mode"` // full | incremental
	NewRows   int           `json:"new_rows"`
	TotalRows int           `json:"total_rows"`
	Duration  time.Duration `json:"duration"`
}

func (d *DB) RecordRun(ctx context.Context, r Run) error {
	started := r.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO sync_runs(started_at, mode, new_rows, total_rows, duration_ms) VALUES(?,?,?,?,?)`,
		started.UTC().Format("2006-01-02 15:04:05"), r.Mode, r.NewRows, r.TotalRows, r.Duration.Milliseconds())
	return err
}

// RecentRuns returns the most recent sync cycles, newest first.
func (d *DB) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT id, started_at, mode, new_rows, total_rows, duration_ms FROM sync_runs ORDER BY id DESC LIMIT ?`
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAtStr string
		var durationMs int64
		if err := rows.Scan(&r.ID, &startedAtStr, &r.Mode, &r.NewRows, &r.TotalRows, &durationMs); err != nil {
			return nil, err
		}
		// Parse SQLite CURRENT_TIMESTAMP format, then RFC3339.
		if t, perr := time.Parse("2006-01-02 15:04:05", startedAtStr); perr == nil {
			r.StartedAt = t
		} else if t2, perr2 := time.Parse(time.RFC3339, startedAtStr); perr2 == nil {
			r.StartedAt = t2
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}
