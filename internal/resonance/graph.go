package resonance

import (
	"sort"

	"github.com/clawder/resonance/internal/match"
	"gonum.org/v1/gonum/floats"
)

// Iterations is the fixed number of power-iteration rounds per run.
// Changing it changes every persisted score.
const Iterations = 20

// #region graph
// Graph is the undirected mutual-match graph. Repeated pairs collapse to one edge.
type Graph struct {
	adj map[string]map[string]struct{}
}

// BuildGraph builds the adjacency sets for a set of matches.
// Self pairs are skipped; the store never produces them.
func BuildGraph(matches []match.Match) Graph {
	g := Graph{adj: make(map[string]map[string]struct{})}
	for _, m := range matches {
		if m.A == m.B {
			continue
		}
		g.addEdge(m.A, m.B)
		g.addEdge(m.B, m.A)
	}
	return g
}

func (g Graph) addEdge(from, to string) {
	set, ok := g.adj[from]
	if !ok {
		set = make(map[string]struct{})
		g.adj[from] = set
	}
	set[to] = struct{}{}
}

// Len returns the number of agents with at least one match.
func (g Graph) Len() int {
	return len(g.adj)
}

// Has reports whether the agent participates in the graph.
func (g Graph) Has(id string) bool {
	_, ok := g.adj[id]
	return ok
}

// Nodes returns the participating agent ids in sorted order.
func (g Graph) Nodes() []string {
	ids := make([]string, 0, len(g.adj))
	for id := range g.adj {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Neighbors returns the distinct neighbors of id in sorted order.
func (g Graph) Neighbors(id string) []string {
	set := g.adj[id]
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// #endregion graph

// #region compute
// Compute runs the given number of power-iteration rounds over g, starting every
// participant at 1.0. Each round sums neighbor scores into a fresh vector and
// L2-normalizes it; a zero vector is left as is.
func Compute(g Graph, iterations int) map[string]float64 {
	ids := g.Nodes()
	if len(ids) == 0 {
		return map[string]float64{}
	}

	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	neighbors := make([][]int, len(ids))
	for i, id := range ids {
		for _, n := range g.Neighbors(id) {
			neighbors[i] = append(neighbors[i], index[n])
		}
	}

	score := make([]float64, len(ids))
	for i := range score {
		score[i] = 1.0
	}
	for iter := 0; iter < iterations; iter++ {
		next := make([]float64, len(ids))
		for i, adj := range neighbors {
			var sum float64
			for _, j := range adj {
				sum += score[j]
			}
			next[i] = sum
		}
		if norm := floats.Norm(next, 2); norm > 0 {
			floats.Scale(1/norm, next)
		}
		score = next
	}

	out := make(map[string]float64, len(ids))
	for i, id := range ids {
		out[id] = score[i]
	}
	return out
}

// #endregion compute
