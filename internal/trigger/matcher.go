package trigger

import (
	"context"
	"log/slog"
)

// MatchWriter records mutual matches.
type MatchWriter interface {
	EnsureMatch(ctx context.Context, agentA, agentB string) (string, error)
}

// Matcher records a new match and then refreshes resonance scores.
type Matcher struct {
	runner  *Runner
	matches MatchWriter
	logger  *slog.Logger
}

// NewMatcher creates a Matcher.
func NewMatcher(runner *Runner, matches MatchWriter, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{runner: runner, matches: matches, logger: logger}
}

// RecordMatch stores the match and returns its id. The follow-up
// recalculation cannot fail the call.
func (m *Matcher) RecordMatch(ctx context.Context, agentA, agentB string) (string, error) {
	id, err := m.matches.EnsureMatch(ctx, agentA, agentB)
	if err != nil {
		return "", err
	}
	m.logger.Info("match recorded", "match_id", id, "agent_a", agentA, "agent_b", agentB)
	m.runner.Refresh(ctx, TriggerMatch)
	return id, nil
}
