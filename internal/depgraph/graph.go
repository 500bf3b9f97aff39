// Package depgraph turns temporal correlations into a directed dependency
// graph over issue types and derives root causes, symptoms, cycles and
// centrality from it.
package depgraph

import (
	"sort"

	"github.com/moolen/logsieve/internal/correlation"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

const (
	// pageRankDamping and pageRankTolerance parameterize power iteration.
	pageRankDamping   = 0.85
	pageRankTolerance = 1e-6
)

// Options tunes graph construction.
type Options struct {
	// Threshold is the exclusive minimum correlation strength for an edge.
	Threshold float64

	// SymptomCount caps PrimarySymptoms.
	SymptomCount int
}

// DefaultOptions returns threshold 0.7 and three primary symptoms.
func DefaultOptions() Options {
	return Options{Threshold: 0.7, SymptomCount: 3}
}

// Edge is a directed "source tends to precede target" relation.
type Edge struct {
	Source          string  `json:"source" yaml:"source"`
	Target          string  `json:"target" yaml:"target"`
	Weight          float64 `json:"weight" yaml:"weight"`
	Delay           float64 `json:"delay" yaml:"delay"`
	CorrelationType string  `json:"correlation_type" yaml:"correlation_type"`
}

// Centrality holds per-node centrality measures keyed by issue type.
type Centrality struct {
	Betweenness map[string]float64 `json:"betweenness" yaml:"betweenness"`
	PageRank    map[string]float64 `json:"pagerank" yaml:"pagerank"`
	InDegree    map[string]int     `json:"in_degree" yaml:"in_degree"`
	OutDegree   map[string]int     `json:"out_degree" yaml:"out_degree"`
}

// DependencyGraph is the analysed graph. It never contains self-loops.
type DependencyGraph struct {
	Nodes []string `json:"nodes" yaml:"nodes"`
	Edges []Edge   `json:"edges" yaml:"edges"`

	// RootCauses are nodes with in-degree 0.
	RootCauses []string `json:"root_causes" yaml:"root_causes"`

	// PrimarySymptoms are the nodes with the highest non-zero in-degree.
	PrimarySymptoms []string `json:"primary_symptoms" yaml:"primary_symptoms"`

	// CyclicalDependencies are strongly connected components with more
	// than one member, each sorted.
	CyclicalDependencies [][]string `json:"cyclical_dependencies" yaml:"cyclical_dependencies"`

	Centrality Centrality `json:"centrality" yaml:"centrality"`
}

// Build creates the graph from correlations stronger than opts.Threshold.
// Correlations from an issue type to itself are ignored.
func Build(correlations []correlation.Correlation, opts Options) *DependencyGraph {
	edges := selectEdges(correlations, opts.Threshold)

	names := make([]string, 0)
	ids := make(map[string]int64)
	for _, e := range edges {
		for _, n := range []string{e.Source, e.Target} {
			if _, ok := ids[n]; !ok {
				ids[n] = 0
				names = append(names, n)
			}
		}
	}
	sort.Strings(names)
	for i, n := range names {
		ids[n] = int64(i)
	}

	g := simple.NewWeightedDirectedGraph(0, 0)
	for i := range names {
		g.AddNode(simple.Node(int64(i)))
	}
	for _, e := range edges {
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(ids[e.Source]), simple.Node(ids[e.Target]), e.Weight))
	}

	dg := &DependencyGraph{
		Nodes:                names,
		Edges:                edges,
		RootCauses:           make([]string, 0),
		PrimarySymptoms:      make([]string, 0),
		CyclicalDependencies: make([][]string, 0),
		Centrality:           centrality(g, names),
	}

	for _, n := range names {
		if dg.Centrality.InDegree[n] == 0 {
			dg.RootCauses = append(dg.RootCauses, n)
		}
	}
	dg.PrimarySymptoms = topByInDegree(names, dg.Centrality.InDegree, opts.SymptomCount)
	dg.CyclicalDependencies = cycles(g, names)

	return dg
}

// selectEdges keeps correlations above threshold, one per (source, target),
// preferring the strongest. Edges are sorted by source then target.
func selectEdges(correlations []correlation.Correlation, threshold float64) []Edge {
	type key struct{ source, target string }
	best := make(map[key]Edge)

	for _, c := range correlations {
		if c.SourceIssue == c.TargetIssue || c.Strength <= threshold {
			continue
		}
		k := key{c.SourceIssue, c.TargetIssue}
		if prev, ok := best[k]; ok && prev.Weight >= c.Strength {
			continue
		}
		best[k] = Edge{
			Source:          c.SourceIssue,
			Target:          c.TargetIssue,
			Weight:          c.Strength,
			Delay:           c.AverageDelay,
			CorrelationType: correlation.KindTemporal,
		}
	}

	edges := make([]Edge, 0, len(best))
	for _, e := range best {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return edges
}

func centrality(g *simple.WeightedDirectedGraph, names []string) Centrality {
	c := Centrality{
		Betweenness: make(map[string]float64),
		PageRank:    make(map[string]float64),
		InDegree:    make(map[string]int),
		OutDegree:   make(map[string]int),
	}
	n := len(names)
	if n == 0 {
		return c
	}

	for i, name := range names {
		id := int64(i)
		c.InDegree[name] = g.To(id).Len()
		c.OutDegree[name] = g.From(id).Len()
	}

	// Betweenness omits zero scores; normalize for directed graphs.
	raw := network.Betweenness(g)
	scale := 0.0
	if n > 2 {
		scale = 1 / float64((n-1)*(n-2))
	}
	for i, name := range names {
		c.Betweenness[name] = raw[int64(i)] * scale
	}

	for id, rank := range network.PageRank(g, pageRankDamping, pageRankTolerance) {
		c.PageRank[names[id]] = rank
	}

	return c
}

func topByInDegree(names []string, inDegree map[string]int, k int) []string {
	out := make([]string, 0)
	for _, n := range names {
		if inDegree[n] > 0 {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return inDegree[out[i]] > inDegree[out[j]]
	})
	if k >= 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

func cycles(g graph.Directed, names []string) [][]string {
	out := make([][]string, 0)
	for _, component := range topo.TarjanSCC(g) {
		if len(component) < 2 {
			continue
		}
		members := make([]string, len(component))
		for i, node := range component {
			members[i] = names[node.ID()]
		}
		sort.Strings(members)
		out = append(out, members)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i][0] < out[j][0]
	})
	return out
}
