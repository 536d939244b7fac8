package gitcore

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// objectCacheSize bounds the decoded-object cache. Delta chains re-read
// their bases repeatedly, so even a small cache saves most of the work.
const objectCacheSize = 512

// packLoc locates a packed object: which pack file, and where in it.
type packLoc struct {
	pack   string
	offset int64
}

// Repository gives read access to one repository snapshot through a
// ByteStore. It is safe for concurrent reads after Open returns; the commit
// walk itself runs single-threaded.
type Repository struct {
	store ByteStore

	packs    []*PackIndex
	packData map[string][]byte
	objects  map[Hash]packLoc
	cache    *lru.Cache[string, Object]

	refs    map[string]Hash
	head    Hash
	headRef string

	config        Config
	defaultBranch string
}

// Option configures a Repository before it loads anything.
type Option func(*Repository)

// WithDefaultBranch supplies an out-of-band default branch name that takes
// precedence over HEAD and the config when choosing the default branch.
func WithDefaultBranch(name string) Option {
	return func(r *Repository) {
		r.defaultBranch = strings.TrimPrefix(name, branchPrefix)
	}
}

// Open loads the repository's pack indices and refs from the store.
// Index and pack files are loaded concurrently; everything after Open is
// plain map lookups.
func Open(store ByteStore, opts ...Option) (*Repository, error) {
	cache, err := lru.New[string, Object](objectCacheSize)
	if err != nil {
		return nil, err
	}

	repo := &Repository{
		store:    store,
		packData: make(map[string][]byte),
		objects:  make(map[Hash]packLoc),
		cache:    cache,
		refs:     make(map[string]Hash),
	}
	for _, opt := range opts {
		opt(repo)
	}

	if err := repo.loadPackIndices(); err != nil {
		return nil, fmt.Errorf("failed to load pack indices: %w", err)
	}
	repo.loadConfig()
	if err := repo.loadRefs(); err != nil {
		return nil, err
	}

	return repo, nil
}

// loadPackIndices scans objects/pack and loads every (idx, pack) pair,
// merging all entries into one id -> (pack, offset) lookup.
func (r *Repository) loadPackIndices() error {
	names, err := r.store.ListDir("objects/pack")
	if err != nil {
		// No packs yet, this is ok.
		return nil
	}

	var mu sync.Mutex
	var g errgroup.Group

	for _, name := range names {
		if !strings.HasSuffix(name, ".idx") {
			continue
		}
		idxPath := "objects/pack/" + name

		g.Go(func() error {
			idxData, err := r.store.ReadFile(idxPath)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", idxPath, err)
			}
			idx, err := parsePackIndex(idxPath, idxData)
			if err != nil {
				return err
			}
			packData, err := r.store.ReadFile(idx.PackFile())
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", idx.PackFile(), err)
			}

			mu.Lock()
			r.packs = append(r.packs, idx)
			r.packData[idx.PackFile()] = packData
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	// Merge single-threaded in pack-path order; ids are globally unique, so
	// a duplicate across packs is unexpected. First pack by path wins.
	sort.Slice(r.packs, func(i, j int) bool { return r.packs[i].pack < r.packs[j].pack })
	for _, idx := range r.packs {
		for hash, offset := range idx.offsets {
			if _, exists := r.objects[hash]; exists {
				log.Printf("object %s indexed by multiple packs, keeping first", hash.Short())
				continue
			}
			r.objects[hash] = packLoc{pack: idx.PackFile(), offset: offset}
		}
	}

	return nil
}

// PackCount returns the number of loaded pack files.
func (r *Repository) PackCount() int {
	return len(r.packs)
}
