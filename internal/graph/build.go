package graph

import (
	"fmt"
	"sort"

	"github.com/kvisser/repograph/internal/gitcore"
)

// Build derives the full graph model from a decoded commit set.
// heads maps short branch names to their tips; defaultHead may be empty, in
// which case the newest commit of the topological order stands in.
func Build(commits map[gitcore.Hash]*gitcore.Commit, heads map[string]gitcore.Hash, defaultHead gitcore.Hash) (*Graph, error) {
	order, err := topoOrder(commits)
	if err != nil {
		return nil, err
	}

	if defaultHead == "" && len(order) > 0 {
		defaultHead = order[len(order)-1]
	}

	g := &Graph{
		Commits:     commits,
		Heads:       heads,
		DefaultHead: defaultHead,
		TopoOrder:   order,
		Lanes:       assignLanes(commits, order),
		Metrics:     computeMetrics(commits),
	}
	g.Nodes, g.Edges = layout(g)
	return g, nil
}

// topoOrder produces a parents-before-children ordering via Kahn's
// algorithm. The ready queue always yields the earliest-authored commit,
// with the id as a stable tie-break, so the order is deterministic. Parents
// missing from the commit set do not count toward in-degree, so partial or
// disconnected history still orders fully.
func topoOrder(commits map[gitcore.Hash]*gitcore.Commit) ([]gitcore.Hash, error) {
	inDegree := make(map[gitcore.Hash]int, len(commits))
	children := make(map[gitcore.Hash][]gitcore.Hash, len(commits))

	for id, commit := range commits {
		for _, parent := range commit.Parents {
			if _, present := commits[parent]; !present {
				continue
			}
			inDegree[id]++
			children[parent] = append(children[parent], id)
		}
	}

	var ready []*gitcore.Commit
	for id, commit := range commits {
		if inDegree[id] == 0 {
			ready = append(ready, commit)
		}
	}

	order := make([]gitcore.Hash, 0, len(commits))
	for len(ready) > 0 {
		next := 0
		for i := 1; i < len(ready); i++ {
			if earlier(ready[i], ready[next]) {
				next = i
			}
		}
		commit := ready[next]
		ready[next] = ready[len(ready)-1]
		ready = ready[:len(ready)-1]

		order = append(order, commit.ID)
		childIDs := children[commit.ID]
		sort.Slice(childIDs, func(i, j int) bool { return childIDs[i] < childIDs[j] })
		for _, child := range childIDs {
			inDegree[child]--
			if inDegree[child] == 0 {
				ready = append(ready, commits[child])
			}
		}
	}

	// A valid commit DAG cannot cycle; a short order means the input is not
	// actually a DAG.
	if len(order) != len(commits) {
		return nil, fmt.Errorf("commit graph has a cycle: ordered %d of %d", len(order), len(commits))
	}
	return order, nil
}

func earlier(a, b *gitcore.Commit) bool {
	if a.AuthoredAt != b.AuthoredAt {
		return a.AuthoredAt < b.AuthoredAt
	}
	return a.ID < b.ID
}

// computeMetrics accumulates aggregate counts in a single pass.
func computeMetrics(commits map[gitcore.Hash]*gitcore.Commit) Metrics {
	m := Metrics{
		CommitCount:     len(commits),
		CommitsByAuthor: make(map[string]int),
	}

	var minAt, maxAt int64
	first := true
	for _, commit := range commits {
		m.CommitsByAuthor[commit.Author]++
		if commit.IsMerge() {
			m.MergeCount++
		}
		if commit.Stats != nil {
			m.Additions += commit.Stats.Additions
			m.Deletions += commit.Stats.Deletions
		}

		if first {
			minAt, maxAt = commit.AuthoredAt, commit.AuthoredAt
			first = false
			continue
		}
		if commit.AuthoredAt < minAt {
			minAt = commit.AuthoredAt
		}
		if commit.AuthoredAt > maxAt {
			maxAt = commit.AuthoredAt
		}
	}

	m.AuthorCount = len(m.CommitsByAuthor)
	m.TimeSpan = maxAt - minAt
	return m
}

// layout produces the positioned node and edge lists: one node per commit
// with a time position normalized to [0,1], and one edge per parent->child
// pair where both ids are present.
func layout(g *Graph) ([]PositionedNode, []CommitEdge) {
	var minAt, maxAt int64
	first := true
	for _, commit := range g.Commits {
		if first {
			minAt, maxAt = commit.AuthoredAt, commit.AuthoredAt
			first = false
			continue
		}
		if commit.AuthoredAt < minAt {
			minAt = commit.AuthoredAt
		}
		if commit.AuthoredAt > maxAt {
			maxAt = commit.AuthoredAt
		}
	}
	span := maxAt - minAt

	nodes := make([]PositionedNode, 0, len(g.Commits))
	var edges []CommitEdge

	for _, id := range g.TopoOrder {
		commit := g.Commits[id]

		t := 0.0
		if span > 0 {
			t = float64(commit.AuthoredAt-minAt) / float64(span)
		}
		nodes = append(nodes, PositionedNode{ID: id, Lane: g.Lanes[id], T: t})

		for _, parent := range commit.Parents {
			if _, present := g.Commits[parent]; !present {
				continue
			}
			edges = append(edges, CommitEdge{
				Parent:  parent,
				Child:   id,
				IsMerge: commit.IsMerge(),
			})
		}
	}

	return nodes, edges
}
