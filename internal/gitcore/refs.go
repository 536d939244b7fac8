package gitcore

import (
	"fmt"
	"log"
	"sort"
	"strings"
)

const branchPrefix = "refs/heads/"

// loadRefs merges the packed-refs table, loose ref files, and HEAD into the
// repository's ref map. Loose refs override packed entries for the same
// name, since they reflect the more recent state.
func (r *Repository) loadRefs() error {
	r.loadPackedRefs()

	for _, prefix := range []string{"heads", "tags"} {
		if err := r.loadLooseRefs("refs/" + prefix); err != nil {
			return fmt.Errorf("failed to load refs/%s: %w", prefix, err)
		}
	}

	if err := r.loadHEAD(); err != nil {
		return fmt.Errorf("failed to load HEAD: %w", err)
	}

	if len(r.refs) == 0 && r.head == "" {
		return fmt.Errorf("%s: %w", "HEAD", ErrNoRefsFound)
	}
	return nil
}

// loadPackedRefs parses the packed-refs table: one "<hash> <refname>" per
// line, with '#' comment lines and '^' peel lines ignored. A missing file
// is fine.
func (r *Repository) loadPackedRefs() {
	content, err := r.store.ReadFile("packed-refs")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' || line[0] == '^' {
			continue
		}

		hashStr, refName, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		hash, err := NewHash(hashStr)
		if err != nil || !strings.HasPrefix(refName, "refs/") {
			continue
		}
		r.refs[refName] = hash
	}
}

// loadLooseRefs recursively reads every ref file under dir, overriding any
// packed entry of the same name.
func (r *Repository) loadLooseRefs(dir string) error {
	names, err := r.store.ListDir(dir)
	if err != nil {
		// No refs of this type yet (e.g., new repo with no tags), this is ok.
		return nil
	}

	for _, name := range names {
		if strings.HasSuffix(name, "/") {
			if err := r.loadLooseRefs(dir + "/" + strings.TrimSuffix(name, "/")); err != nil {
				return err
			}
			continue
		}

		refName := dir + "/" + name
		hash, err := r.resolveRefFile(refName, 0)
		if err != nil {
			// Log the error but continue with other potentially valid refs.
			log.Printf("error resolving ref %s: %v", refName, err)
			continue
		}
		r.refs[refName] = hash
	}
	return nil
}

// resolveRefFile reads a single ref file, following "ref: " indirections.
func (r *Repository) resolveRefFile(path string, depth int) (Hash, error) {
	if depth > 5 {
		return "", fmt.Errorf("symbolic ref loop at %s", path)
	}

	content, err := r.store.ReadFile(path)
	if err != nil {
		return "", err
	}

	line := strings.TrimSpace(string(content))
	if target, ok := strings.CutPrefix(line, "ref: "); ok {
		return r.resolveRefFile(target, depth+1)
	}

	hash, err := NewHash(line)
	if err != nil {
		return "", fmt.Errorf("invalid hash in ref file %s: %w", path, err)
	}
	return hash, nil
}

// loadHEAD reads HEAD: either a direct 40-hex id (detached) or a
// "ref: <refname>" indirection resolved against the merged ref table.
func (r *Repository) loadHEAD() error {
	content, err := r.store.ReadFile("HEAD")
	if err != nil {
		// Refs may still name commits; absence of HEAD alone is not fatal.
		return nil
	}

	line := strings.TrimSpace(string(content))
	if target, ok := strings.CutPrefix(line, "ref: "); ok {
		r.headRef = target
		if hash, exists := r.refs[target]; exists {
			r.head = hash
		} else {
			r.head = "" // New repository with no commits, this is ok.
		}
		return nil
	}

	hash, err := NewHash(line)
	if err != nil {
		return fmt.Errorf("invalid HEAD: %w", err)
	}
	r.head = hash
	r.headRef = ""
	return nil
}

// Branches returns all branch refs keyed by short name.
func (r *Repository) Branches() map[string]Hash {
	branches := make(map[string]Hash)
	for ref, hash := range r.refs {
		if name, ok := strings.CutPrefix(ref, branchPrefix); ok {
			branches[name] = hash
		}
	}
	return branches
}

// Head returns the commit HEAD resolves to, empty for unborn repositories.
func (r *Repository) Head() Hash {
	return r.head
}

// HeadRef returns the full ref name HEAD symbolically points to, empty when
// HEAD is detached.
func (r *Repository) HeadRef() string {
	return r.headRef
}

// DefaultBranch picks the branch a consumer should focus on.
// Precedence: an explicitly configured default, the branch HEAD points to,
// main, master, then the lexicographically first branch. ok is false when
// the repository has no branches at all; callers then fall back to the walk
// order's newest commit.
func (r *Repository) DefaultBranch() (name string, target Hash, ok bool) {
	branches := r.Branches()

	if r.defaultBranch != "" {
		if hash, exists := branches[r.defaultBranch]; exists {
			return r.defaultBranch, hash, true
		}
	}

	if candidate, found := strings.CutPrefix(r.headRef, branchPrefix); found {
		if hash, exists := branches[candidate]; exists {
			return candidate, hash, true
		}
	}

	for _, candidate := range []string{"main", "master"} {
		if hash, exists := branches[candidate]; exists {
			return candidate, hash, true
		}
	}

	if len(branches) > 0 {
		names := make([]string, 0, len(branches))
		for n := range branches {
			names = append(names, n)
		}
		sort.Strings(names)
		return names[0], branches[names[0]], true
	}

	return "", "", false
}
