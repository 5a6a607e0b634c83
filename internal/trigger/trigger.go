// Package trigger holds the callers that recompute resonance as a side effect
// of another operation. A failed recomputation is logged and never returned
// from those paths.
package trigger

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/clawder/resonance/internal/logging"
	"github.com/clawder/resonance/internal/resonance"
)

// Trigger names recorded in the recalculation log.
const (
	TriggerAdmin     = "admin"
	TriggerDashboard = "dashboard"
	TriggerMatch     = "match"
	TriggerCLI       = "cli"
)

// Recalculator runs one full resonance recomputation.
type Recalculator interface {
	Recalculate(ctx context.Context) (resonance.Result, error)
}

// #region runner
// Runner invokes the scorer and records every outcome.
type Runner struct {
	scorer  Recalculator
	audit   *sql.DB
	logger  *slog.Logger
	timeout time.Duration
}

// NewRunner creates a Runner. audit may be nil to skip the recalculation log;
// a zero timeout leaves the caller's deadline in charge.
func NewRunner(scorer Recalculator, audit *sql.DB, logger *slog.Logger, timeout time.Duration) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{scorer: scorer, audit: audit, logger: logger, timeout: timeout}
}

// Run recomputes scores and returns the scorer's error, if any.
func (r *Runner) Run(ctx context.Context, trigger string) (resonance.Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := r.scorer.Recalculate(ctx)
	entry := logging.RunEntry{
		RunID:      res.RunID,
		Trigger:    trigger,
		Agents:     res.Agents,
		Reset:      res.Reset,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	r.record(ctx, entry)
	return res, err
}

// Refresh recomputes scores best-effort. Failures are logged at warn level
// and reported only through the returned bool.
func (r *Runner) Refresh(ctx context.Context, trigger string) bool {
	if _, err := r.Run(ctx, trigger); err != nil {
		r.logger.Warn("resonance recalculation failed", "trigger", trigger, "error", err)
		return false
	}
	return true
}

func (r *Runner) record(ctx context.Context, entry logging.RunEntry) {
	if r.audit == nil {
		return
	}
	// The run's own deadline may already be spent.
	ctx = context.WithoutCancel(ctx)
	if err := logging.LogRun(ctx, r.audit, entry); err != nil {
		r.logger.Warn("recalculation log write failed", "trigger", entry.Trigger, "error", err)
	}
}

// #endregion runner
