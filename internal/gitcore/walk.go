package gitcore

import (
	"fmt"
	"log"
	"sort"
	"strings"
)

// LoadCommits walks the commit graph from every known ref tip and returns
// the full reachable commit set keyed by id, with branch hints attached.
//
// Branch tips and HEAD must decode to commits; a failure there aborts the
// import. Commits reached only through parent links are best effort: a bad
// object deep in history is logged and excluded rather than failing the
// whole import. Tag tips join the walk the same best-effort way; tag object
// content is never interpreted, so an annotated tag ends at the tag object.
func (r *Repository) LoadCommits() (map[Hash]*Commit, error) {
	var pending []Hash
	strict := make(map[Hash]bool)

	for ref, hash := range r.refs {
		pending = append(pending, hash)
		if strings.HasPrefix(ref, branchPrefix) {
			strict[hash] = true
		}
	}
	if r.head != "" {
		pending = append(pending, r.head)
		strict[r.head] = true
	}

	// Deterministic work order; the walk itself is order-insensitive.
	sort.Slice(pending, func(i, j int) bool { return pending[i] < pending[j] })

	commits := make(map[Hash]*Commit)
	visited := make(map[Hash]bool)

	for len(pending) > 0 {
		id := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		if visited[id] {
			continue
		}
		visited[id] = true

		obj, err := r.ReadObject(id)
		if err != nil {
			if strict[id] {
				return nil, fmt.Errorf("ref tip %s: %w", id, err)
			}
			log.Printf("skipping unreadable object %s: %v", id.Short(), err)
			continue
		}
		if obj.Type != ObjCommit {
			if strict[id] {
				return nil, fmt.Errorf("ref tip %s is a %s: %w", id, obj.Type, ErrNotACommit)
			}
			// Annotated tags and other non-commit roots end here.
			continue
		}

		commit, err := parseCommit(id, obj.Data)
		if err != nil {
			if strict[id] {
				return nil, fmt.Errorf("ref tip %s: %w", id, err)
			}
			log.Printf("skipping unparseable commit %s: %v", id.Short(), err)
			continue
		}

		commits[id] = commit
		for _, parent := range commit.Parents {
			if !visited[parent] {
				pending = append(pending, parent)
			}
		}
	}

	if len(commits) == 0 {
		return nil, ErrEmptyCommitSet
	}

	r.attachBranchHints(commits)
	return commits, nil
}

// attachBranchHints records, on each commit, the short names of the
// branches whose tip it is.
func (r *Repository) attachBranchHints(commits map[Hash]*Commit) {
	for name, hash := range r.Branches() {
		if commit, ok := commits[hash]; ok {
			commit.Branches = append(commit.Branches, name)
		}
	}
	for _, commit := range commits {
		sort.Strings(commit.Branches)
	}
}
