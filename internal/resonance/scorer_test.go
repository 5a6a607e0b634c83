package resonance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/clawder/resonance/internal/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupStore(t *testing.T, profiles ...string) *match.Store {
	t.Helper()
	s, err := match.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	for _, id := range profiles {
		require.NoError(t, s.UpsertProfile(context.Background(), id, id))
	}
	return s
}

func score(t *testing.T, s *match.Store, id string) float64 {
	t.Helper()
	v, err := s.ResonanceScore(context.Background(), id)
	require.NoError(t, err)
	return v
}

func TestRecalculate_EmptyMatchesResetsEveryProfile(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t, "a", "b", "c")
	require.NoError(t, s.SetResonanceScores(ctx, map[string]float64{"a": 0.4, "b": 0.9}))

	res, err := NewScorer(s, quietLogger()).Recalculate(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Agents)
	assert.Equal(t, 3, res.Reset)
	for _, id := range []string{"a", "b", "c"} {
		assert.Equal(t, 0.0, score(t, s, id), id)
	}
}

func TestRecalculate_SinglePair(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t, "a", "b", "c")
	_, err := s.EnsureMatch(ctx, "a", "b")
	require.NoError(t, err)

	res, err := NewScorer(s, quietLogger()).Recalculate(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Matches)
	assert.Equal(t, 2, res.Agents)
	assert.Equal(t, 1, res.Reset)
	assert.NotEmpty(t, res.RunID)
	assert.InDelta(t, 0.70710678, score(t, s, "a"), 1e-8)
	assert.InDelta(t, score(t, s, "a"), score(t, s, "b"), tol)
	assert.Equal(t, 0.0, score(t, s, "c"))
}

func TestRecalculate_PathGraphIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t, "a", "b", "c")
	_, err := s.EnsureMatch(ctx, "a", "b")
	require.NoError(t, err)
	_, err = s.EnsureMatch(ctx, "b", "c")
	require.NoError(t, err)

	scorer := NewScorer(s, quietLogger())
	_, err = scorer.Recalculate(ctx)
	require.NoError(t, err)
	first := map[string]float64{"a": score(t, s, "a"), "b": score(t, s, "b"), "c": score(t, s, "c")}

	_, err = scorer.Recalculate(ctx)
	require.NoError(t, err)
	for id, v := range first {
		assert.InEpsilon(t, v, score(t, s, id), 1e-9, id)
	}

	assert.InDelta(t, first["a"], first["c"], tol)
	var sumSq float64
	for _, v := range first {
		sumSq += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-6)
}

func TestRecalculate_RemovedMatchResetsToZero(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t, "a", "b", "c", "d")
	_, err := s.EnsureMatch(ctx, "a", "b")
	require.NoError(t, err)
	_, err = s.EnsureMatch(ctx, "c", "d")
	require.NoError(t, err)

	scorer := NewScorer(s, quietLogger())
	_, err = scorer.Recalculate(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score(t, s, "c"), tol)

	require.NoError(t, s.DeleteMatch(ctx, "d", "c"))
	res, err := scorer.Recalculate(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Reset)
	assert.Equal(t, 0.0, score(t, s, "c"))
	assert.Equal(t, 0.0, score(t, s, "d"))
	assert.InDelta(t, 1/math.Sqrt2, score(t, s, "a"), tol)
}

func TestRecalculate_ScoresAgentsWithoutProfileRow(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	_, err := s.EnsureMatch(ctx, "x", "y")
	require.NoError(t, err)

	_, err = NewScorer(s, quietLogger()).Recalculate(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1/math.Sqrt2, score(t, s, "x"), tol)
}

// #region store-failures
type failingStore struct {
	matchesErr  error
	profilesErr error
	writeErr    error
	matches     []match.Match
	written     map[string]float64
}

func (f *failingStore) ListMatches(context.Context) ([]match.Match, error) {
	return f.matches, f.matchesErr
}

func (f *failingStore) ListProfileIDs(context.Context) ([]string, error) {
	return nil, f.profilesErr
}

func (f *failingStore) SetResonanceScores(_ context.Context, scores map[string]float64) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = scores
	return nil
}

func TestRecalculate_PropagatesStoreErrors(t *testing.T) {
	unavailable := errors.New("store unavailable")
	cases := []struct {
		name  string
		store *failingStore
	}{
		{"matches", &failingStore{matchesErr: unavailable}},
		{"profiles", &failingStore{profilesErr: unavailable}},
		{"write", &failingStore{writeErr: unavailable, matches: pairs([2]string{"a", "b"})}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewScorer(tc.store, quietLogger()).Recalculate(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, unavailable)
		})
	}
}

func TestRecalculate_WritesOnceWithGraphScores(t *testing.T) {
	fs := &failingStore{matches: pairs([2]string{"a", "b"})}
	_, err := NewScorer(fs, nil).Recalculate(context.Background())
	require.NoError(t, err)
	assert.Len(t, fs.written, 2)
}

// #endregion store-failures
