package graph

import (
	"fmt"

	"github.com/kvisser/repograph/internal/gitcore"
)

// FromRepository runs a full import against an opened repository: walk the
// commit graph from its refs, then build the render model.
func FromRepository(r *gitcore.Repository) (*Graph, error) {
	commits, err := r.LoadCommits()
	if err != nil {
		return nil, fmt.Errorf("walking commits: %w", err)
	}

	var defaultHead gitcore.Hash
	if _, target, ok := r.DefaultBranch(); ok {
		defaultHead = target
	}

	return Build(commits, r.Branches(), defaultHead)
}

// Import opens the repository at path and produces a graph snapshot.
// Each call is an independent import over a fresh store.
func Import(path string, opts ...gitcore.Option) (*Graph, error) {
	store, err := gitcore.NewDirStore(path)
	if err != nil {
		return nil, err
	}
	repo, err := gitcore.Open(store, opts...)
	if err != nil {
		return nil, err
	}
	return FromRepository(repo)
}
