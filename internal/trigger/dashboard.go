package trigger

import (
	"context"
	"fmt"
)

// ProfileReader reads the values a dashboard shows for one agent.
type ProfileReader interface {
	ResonanceScore(ctx context.Context, id string) (float64, error)
	CountMatches(ctx context.Context, agentID string) (int, error)
}

// Stats is what the dashboard renders for an agent.
type Stats struct {
	AgentID        string
	TotalMatches   int
	ResonanceScore float64
	// Fresh is false when the recalculation before the read failed and the
	// score may be stale.
	Fresh bool
}

// Dashboard refreshes scores before reading an agent's stats.
type Dashboard struct {
	runner   *Runner
	profiles ProfileReader
}

// NewDashboard creates a Dashboard.
func NewDashboard(runner *Runner, profiles ProfileReader) *Dashboard {
	return &Dashboard{runner: runner, profiles: profiles}
}

// View returns the agent's stats. Only read failures are returned; a failed
// recalculation leaves the previously stored score in place.
func (d *Dashboard) View(ctx context.Context, agentID string) (Stats, error) {
	fresh := d.runner.Refresh(ctx, TriggerDashboard)

	score, err := d.profiles.ResonanceScore(ctx, agentID)
	if err != nil {
		return Stats{}, fmt.Errorf("dashboard %s: %w", agentID, err)
	}
	matches, err := d.profiles.CountMatches(ctx, agentID)
	if err != nil {
		return Stats{}, fmt.Errorf("dashboard %s: %w", agentID, err)
	}
	return Stats{
		AgentID:        agentID,
		TotalMatches:   matches,
		ResonanceScore: score,
		Fresh:          fresh,
	}, nil
}
