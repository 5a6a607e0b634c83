package resonance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/clawder/resonance/internal/match"
	"github.com/google/uuid"
)

// #region types
// Store is the persistence the scorer reads matches from and writes scores to.
type Store interface {
	ListMatches(ctx context.Context) ([]match.Match, error)
	ListProfileIDs(ctx context.Context) ([]string, error)
	SetResonanceScores(ctx context.Context, scores map[string]float64) error
}

// Result summarizes one recalculation.
type Result struct {
	RunID    string
	Matches  int
	Agents   int // agents in the match graph
	Reset    int // profiles written as 0
	Duration time.Duration
}

// Scorer recomputes resonance scores from the full match set.
type Scorer struct {
	store  Store
	logger *slog.Logger

	// mu serializes runs inside one process. Concurrent processes still race,
	// and the last writer wins.
	mu sync.Mutex
}

// #endregion types

// NewScorer creates a scorer over store. A nil logger uses slog.Default.
func NewScorer(store Store, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{store: store, logger: logger.With("component", "resonance")}
}

// #region recalculate
// Recalculate rebuilds the match graph, scores every participant, and resets
// every other known profile to 0. Store errors are returned unchanged in kind.
func (s *Scorer) Recalculate(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	res := Result{RunID: uuid.New().String()}
	log := s.logger.With("run_id", res.RunID)
	log.Debug("starting calculation")

	matches, err := s.store.ListMatches(ctx)
	if err != nil {
		return res, fmt.Errorf("fetch matches: %w", err)
	}
	res.Matches = len(matches)

	g := BuildGraph(matches)
	scores := Compute(g, Iterations)
	res.Agents = len(scores)

	profileIDs, err := s.store.ListProfileIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("fetch profiles: %w", err)
	}
	for _, id := range profileIDs {
		if !g.Has(id) {
			scores[id] = 0
			res.Reset++
		}
	}

	if err := s.store.SetResonanceScores(ctx, scores); err != nil {
		return res, fmt.Errorf("write scores: %w", err)
	}

	res.Duration = time.Since(start)
	log.Info("resonance recalculated",
		"matches", res.Matches,
		"agents", res.Agents,
		"reset", res.Reset,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// #endregion recalculate
