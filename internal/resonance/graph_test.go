package resonance

import (
	"math"
	"testing"

	"github.com/clawder/resonance/internal/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func pairs(ps ...[2]string) []match.Match {
	out := make([]match.Match, 0, len(ps))
	for _, p := range ps {
		a, b := match.NormalizePair(p[0], p[1])
		out = append(out, match.Match{A: a, B: b})
	}
	return out
}

func l2(scores map[string]float64) float64 {
	var sum float64
	for _, v := range scores {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func TestBuildGraph_CollapsesDuplicates(t *testing.T) {
	g := BuildGraph(pairs([2]string{"a", "b"}, [2]string{"b", "a"}, [2]string{"a", "c"}))

	assert.Equal(t, 3, g.Len())
	assert.Equal(t, []string{"b", "c"}, g.Neighbors("a"))
	assert.Equal(t, []string{"a"}, g.Neighbors("b"))
	assert.True(t, g.Has("c"))
	assert.False(t, g.Has("d"))
}

func TestBuildGraph_SkipsSelfPairs(t *testing.T) {
	g := BuildGraph([]match.Match{{A: "a", B: "a"}})
	assert.Equal(t, 0, g.Len())
}

func TestCompute_EmptyGraph(t *testing.T) {
	scores := Compute(BuildGraph(nil), Iterations)
	assert.Empty(t, scores)
}

func TestCompute_SinglePairIsSymmetric(t *testing.T) {
	scores := Compute(BuildGraph(pairs([2]string{"a", "b"})), Iterations)

	require.Len(t, scores, 2)
	assert.InDelta(t, 1/math.Sqrt2, scores["a"], tol)
	assert.InDelta(t, scores["a"], scores["b"], tol)
	assert.InDelta(t, 1.0, l2(scores), 1e-6)
}

func TestCompute_DisjointPairsShareGlobalNorm(t *testing.T) {
	scores := Compute(BuildGraph(pairs([2]string{"a", "b"}, [2]string{"c", "d"})), Iterations)

	for _, id := range []string{"a", "b", "c", "d"} {
		assert.InDelta(t, 0.5, scores[id], tol, id)
	}
	assert.InDelta(t, 1.0, l2(scores), 1e-6)
}

// Star and path graphs are bipartite, so power iteration alternates between two
// shapes. After an even number of rounds every node equals the sum of its
// neighbors' degrees scaled by the norm, which is uniform for a star.
func TestCompute_StarAlternatesBetweenRounds(t *testing.T) {
	g := BuildGraph(pairs(
		[2]string{"hub", "l1"}, [2]string{"hub", "l2"},
		[2]string{"hub", "l3"}, [2]string{"hub", "l4"},
	))

	even := Compute(g, Iterations)
	for _, leaf := range []string{"l1", "l2", "l3", "l4"} {
		assert.InDelta(t, even["hub"], even[leaf], tol, leaf)
	}
	assert.InDelta(t, 1.0, l2(even), 1e-6)

	odd := Compute(g, Iterations-1)
	for _, leaf := range []string{"l1", "l2", "l3", "l4"} {
		assert.Greater(t, odd["hub"], odd[leaf], leaf)
	}
	// hub carries n times the mass of each leaf on odd rounds
	assert.InDelta(t, 4*odd["l1"], odd["hub"], tol)
}

func TestCompute_HubRanksHighestInNonBipartiteGraph(t *testing.T) {
	g := BuildGraph(pairs(
		[2]string{"hub", "l1"}, [2]string{"hub", "l2"}, [2]string{"hub", "l3"},
		[2]string{"l1", "l2"},
	))
	scores := Compute(g, Iterations)

	for _, leaf := range []string{"l1", "l2", "l3"} {
		assert.Greater(t, scores["hub"], scores[leaf], leaf)
		assert.GreaterOrEqual(t, scores[leaf], 0.0)
	}
	assert.InDelta(t, scores["l1"], scores["l2"], tol)
	assert.Greater(t, scores["l1"], scores["l3"])
	assert.InDelta(t, 1.0, l2(scores), 1e-6)
}

func TestCompute_PathGraph(t *testing.T) {
	g := BuildGraph(pairs([2]string{"a", "b"}, [2]string{"b", "c"}))

	scores := Compute(g, Iterations)
	assert.InDelta(t, 1/math.Sqrt(3), scores["b"], tol)
	assert.InDelta(t, scores["a"], scores["c"], tol)
	assert.InDelta(t, scores["a"], scores["b"], tol)

	odd := Compute(g, Iterations-1)
	assert.Greater(t, odd["b"], odd["a"])
	assert.Greater(t, odd["b"], odd["c"])
	assert.InDelta(t, odd["a"], odd["c"], tol)
}

func TestCompute_Deterministic(t *testing.T) {
	g := BuildGraph(pairs(
		[2]string{"a", "b"}, [2]string{"b", "c"}, [2]string{"c", "a"},
		[2]string{"c", "d"}, [2]string{"d", "e"},
	))
	first := Compute(g, Iterations)
	second := Compute(g, Iterations)

	require.Equal(t, len(first), len(second))
	for id, v := range first {
		assert.InEpsilon(t, v, second[id], 1e-9, id)
	}
}

func TestCompute_ZeroIterationsKeepsSeed(t *testing.T) {
	scores := Compute(BuildGraph(pairs([2]string{"a", "b"})), 0)
	assert.Equal(t, 1.0, scores["a"])
	assert.Equal(t, 1.0, scores["b"])
}
