package logging

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS recalculation_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	trigger      TEXT NOT NULL,
	agents       INTEGER NOT NULL DEFAULT 0,
	reset        INTEGER NOT NULL DEFAULT 0,
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	error        TEXT,
	created_at   TEXT NOT NULL
);
`

// EnsureSchema creates the recalculation_log table if it is missing.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("recalculation log schema: %w", err)
	}
	return nil
}

// #endregion schema

// #region log-run
// LogRun writes one recalculation outcome to the recalculation_log table.
func LogRun(ctx context.Context, db *sql.DB, entry RunEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.RunID == "" {
		entry.RunID = uuid.New().String()
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO recalculation_log (run_id, trigger, agents, reset, duration_ms, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Trigger,
		entry.Agents,
		entry.Reset,
		entry.DurationMs,
		nullIfEmpty(entry.Error),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log run: %w", err)
	}
	return nil
}

// #endregion log-run

// #region recent-runs
// RecentRuns returns the most recent runs, newest first.
func RecentRuns(ctx context.Context, db *sql.DB, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.QueryContext(ctx,
		`SELECT run_id, trigger, agents, reset, duration_ms, error, created_at
		 FROM recalculation_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var errText sql.NullString
		var createdAt string
		if err := rows.Scan(&e.RunID, &e.Trigger, &e.Agents, &e.Reset, &e.DurationMs, &errText, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.Error = errText.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion recent-runs

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
