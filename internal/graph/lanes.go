package graph

import (
	"strings"

	"github.com/kvisser/repograph/internal/gitcore"
)

// assignLanes walks the topological order oldest-first and gives every
// commit an integer lane. The heuristic keeps the default branch pinned to
// lane 0 and runs of single-child commits on their parent's lane; everything
// else takes the lowest free lane.
//
// Lanes are never reclaimed: a lane stays in use after the branch on it
// merges, so histories with many short-lived branches grow the lane count
// monotonically. Visual layout only; nothing downstream depends on lane
// values beyond run-to-run stability.
func assignLanes(commits map[gitcore.Hash]*gitcore.Commit, order []gitcore.Hash) map[gitcore.Hash]int {
	lanes := make(map[gitcore.Hash]int, len(commits))
	inUse := make(map[int]bool)
	childrenSeen := make(map[gitcore.Hash]int)
	childCount := make(map[gitcore.Hash]int)

	for _, id := range order {
		for _, parent := range commits[id].Parents {
			if _, present := commits[parent]; present {
				childCount[parent]++
			}
		}
	}

	for _, id := range order {
		commit := commits[id]
		lane := -1

		switch {
		case onMainline(commit):
			lane = 0

		case len(commit.Parents) > 0:
			first := commit.Parents[0]
			parentLane, assigned := lanes[first]
			if assigned && (childrenSeen[first] == 0 || childCount[first] == 1) {
				lane = parentLane
			}
		}

		if lane == -1 {
			for lane = 0; inUse[lane]; lane++ {
			}
		}

		lanes[id] = lane
		inUse[lane] = true

		for _, parent := range commit.Parents {
			if _, present := commits[parent]; present {
				childrenSeen[parent]++
			}
		}
	}

	return lanes
}

// onMainline reports whether a branch literally named main or master has its
// tip at this commit.
func onMainline(commit *gitcore.Commit) bool {
	for _, name := range commit.Branches {
		switch strings.ToLower(name) {
		case "main", "master":
			return true
		}
	}
	return false
}
