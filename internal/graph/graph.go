// Package graph derives a render-ready commit graph model from a decoded
// commit set: topological order, lane assignment, aggregate metrics, and the
// positioned node / edge lists consumers draw from. It depends only on the
// decoded commit map, never on the object decoder.
package graph

import (
	"github.com/kvisser/repograph/internal/gitcore"
)

// Graph is an immutable snapshot built once per import.
type Graph struct {
	Commits     map[gitcore.Hash]*gitcore.Commit `json:"commits"`
	Heads       map[string]gitcore.Hash          `json:"heads,omitempty"`
	DefaultHead gitcore.Hash                     `json:"defaultHead"`
	TopoOrder   []gitcore.Hash                   `json:"topoOrder"`
	Lanes       map[gitcore.Hash]int             `json:"lanes"`
	Metrics     Metrics                          `json:"metrics"`
	Nodes       []PositionedNode                 `json:"nodes"`
	Edges       []CommitEdge                     `json:"edges"`
}

// Metrics aggregates counts over the whole commit set.
type Metrics struct {
	CommitCount     int            `json:"commitCount"`
	MergeCount      int            `json:"mergeCount"`
	AuthorCount     int            `json:"authorCount"`
	CommitsByAuthor map[string]int `json:"commitsByAuthor,omitempty"`
	Additions       int            `json:"additions"`
	Deletions       int            `json:"deletions"`
	// TimeSpan is max(authoredAt) - min(authoredAt), zero with one commit.
	TimeSpan int64 `json:"timeSpan"`
}

// PositionedNode places one commit on the render surface: its lane and a
// normalized time position t in [0,1].
type PositionedNode struct {
	ID   gitcore.Hash `json:"id"`
	Lane int          `json:"lane"`
	T    float64      `json:"t"`
}

// CommitEdge is one parent->child relationship present in the commit set.
// IsMerge is a property of the child: every edge into a merge commit is
// flagged, whichever parent it comes from.
type CommitEdge struct {
	Parent  gitcore.Hash `json:"parent"`
	Child   gitcore.Hash `json:"child"`
	IsMerge bool         `json:"isMerge"`
}
