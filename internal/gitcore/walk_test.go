package gitcore

import (
	"errors"
	"testing"
)

func TestLoadCommitsLinearHistory(t *testing.T) {
	store := MapStore{}
	a := storeLooseCommit(store, nil, "alice", 1000, "first")
	b := storeLooseCommit(store, []Hash{a}, "alice", 2000, "second")
	c := storeLooseCommit(store, []Hash{b}, "bob", 3000, "third")

	store["refs/heads/main"] = []byte(string(c) + "\n")
	store["HEAD"] = []byte("ref: refs/heads/main\n")

	repo, err := Open(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	commits, err := repo.LoadCommits()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(commits) != 3 {
		t.Fatalf("expected 3 commits, got %d", len(commits))
	}
	for _, id := range []Hash{a, b, c} {
		if _, ok := commits[id]; !ok {
			t.Fatalf("commit %s missing", id.Short())
		}
	}
	if commits[c].Subject != "third" {
		t.Fatalf("unexpected subject: %q", commits[c].Subject)
	}
	if got := commits[c].Branches; len(got) != 1 || got[0] != "main" {
		t.Fatalf("unexpected branch hints on tip: %#v", got)
	}
	if len(commits[b].Branches) != 0 {
		t.Fatalf("non-tip commit should carry no branch hints: %#v", commits[b].Branches)
	}
}

func TestLoadCommitsMultipleRoots(t *testing.T) {
	// Two disconnected histories, one per branch.
	store := MapStore{}
	root1 := storeLooseCommit(store, nil, "alice", 1000, "root one")
	tip1 := storeLooseCommit(store, []Hash{root1}, "alice", 2000, "tip one")
	root2 := storeLooseCommit(store, nil, "bob", 1500, "root two")

	store["refs/heads/main"] = []byte(string(tip1) + "\n")
	store["refs/heads/orphan"] = []byte(string(root2) + "\n")
	store["HEAD"] = []byte("ref: refs/heads/main\n")

	repo, err := Open(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	commits, err := repo.LoadCommits()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(commits) != 3 {
		t.Fatalf("expected 3 commits, got %d", len(commits))
	}
}

func TestLoadCommitsVisitsEachOnce(t *testing.T) {
	// Diamond: both branches reach root through different paths.
	store := MapStore{}
	root := storeLooseCommit(store, nil, "alice", 1000, "root")
	x := storeLooseCommit(store, []Hash{root}, "alice", 2000, "x")
	y := storeLooseCommit(store, []Hash{root}, "bob", 2100, "y")
	m := storeLooseCommit(store, []Hash{x, y}, "alice", 3000, "merge")

	store["refs/heads/main"] = []byte(string(m) + "\n")
	store["HEAD"] = []byte("ref: refs/heads/main\n")

	repo, err := Open(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	commits, err := repo.LoadCommits()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(commits) != 4 {
		t.Fatalf("expected 4 commits, got %d", len(commits))
	}
	if got := commits[m].Parents; len(got) != 2 || got[0] != x || got[1] != y {
		t.Fatalf("unexpected merge parents: %#v", got)
	}
}

func TestLoadCommitsMissingParent(t *testing.T) {
	// The tip's parent was never written: the walk keeps going and the
	// dangling id stays recorded on the commit.
	store := MapStore{}
	ghost := mustHash("9999999999999999999999999999999999999999")
	tip := storeLooseCommit(store, []Hash{ghost}, "alice", 2000, "tip")

	store["refs/heads/main"] = []byte(string(tip) + "\n")
	store["HEAD"] = []byte("ref: refs/heads/main\n")

	repo, err := Open(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	commits, err := repo.LoadCommits()
	if err != nil {
		t.Fatalf("walk should survive a missing parent: %v", err)
	}
	if len(commits) != 1 {
		t.Fatalf("expected 1 commit, got %d", len(commits))
	}
	if got := commits[tip].Parents; len(got) != 1 || got[0] != ghost {
		t.Fatalf("dangling parent should stay recorded: %#v", got)
	}
}

func TestLoadCommitsBrokenTip(t *testing.T) {
	store := MapStore{}
	ghost := mustHash("9999999999999999999999999999999999999999")
	store["refs/heads/main"] = []byte(string(ghost) + "\n")
	store["HEAD"] = []byte("ref: refs/heads/main\n")

	repo, err := Open(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.LoadCommits(); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("broken branch tip should abort the import, got %v", err)
	}
}

func TestLoadCommitsTipNotACommit(t *testing.T) {
	store := MapStore{}
	blob := storeLooseObject(store, "blob", []byte("not a commit"))
	store["refs/heads/main"] = []byte(string(blob) + "\n")
	store["HEAD"] = []byte("ref: refs/heads/main\n")

	repo, err := Open(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.LoadCommits(); !errors.Is(err, ErrNotACommit) {
		t.Fatalf("expected ErrNotACommit, got %v", err)
	}
}

func TestLoadCommitsTagTargetsBestEffort(t *testing.T) {
	// A tag pointing at a blob is skipped; the branch history still loads.
	store := MapStore{}
	blob := storeLooseObject(store, "blob", []byte("release notes"))
	tip := storeLooseCommit(store, nil, "alice", 1000, "only commit")

	store["refs/heads/main"] = []byte(string(tip) + "\n")
	store["refs/tags/v1.0"] = []byte(string(blob) + "\n")
	store["HEAD"] = []byte("ref: refs/heads/main\n")

	repo, err := Open(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	commits, err := repo.LoadCommits()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(commits) != 1 {
		t.Fatalf("expected 1 commit, got %d", len(commits))
	}
}

func TestLoadCommitsEmptySet(t *testing.T) {
	store := MapStore{}
	blob := storeLooseObject(store, "blob", []byte("x"))
	store["refs/tags/only"] = []byte(string(blob) + "\n")

	repo, err := Open(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.LoadCommits(); !errors.Is(err, ErrEmptyCommitSet) {
		t.Fatalf("expected ErrEmptyCommitSet, got %v", err)
	}
}

