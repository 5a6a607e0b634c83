package logging

import "time"

// #region run-entry
// RunEntry is a single row in the recalculation_log table.
type RunEntry struct {
	RunID      string
	Trigger    string // "admin" | "dashboard" | "match" | "cli"
	Agents     int
	Reset      int
	DurationMs int64
	Error      string
	CreatedAt  time.Time
}

// Succeeded reports whether the run finished without error.
func (e RunEntry) Succeeded() bool {
	return e.Error == ""
}

// #endregion run-entry
