package model

import (
	"maps"
	"slices"
	"sort"
)

// Repository is an immutable point-in-time view of the commit graph of a working copy.
//
// The Commits map is the arena; commits refer to each other by hash. Consumers must not
// modify a published Repository, use a RepositoryBuilder to derive a new one instead.
type Repository struct {
	Path                      string                 `json:"path"`
	HasUncommittedChanges     bool                   `json:"has_uncommitted_changes"`
	HeadHash                  CommitHash             `json:"head_hash"`
	HeadBranch                BranchName             `json:"head_branch,omitempty"`
	EarliestInterestingCommit CommitHash             `json:"earliest_interesting_commit"`
	Commits                   map[CommitHash]*Commit `json:"commits"`
}

// Commit returns the commit with the given full hash.
func (r *Repository) Commit(hash CommitHash) (*Commit, bool) {
	c, ok := r.Commits[hash]
	return c, ok
}

// Children returns the commits whose parent is hash, in the order stored on the parent.
func (r *Repository) Children(hash CommitHash) []*Commit {
	parent, ok := r.Commits[hash]
	if !ok {
		return nil
	}
	children := make([]*Commit, 0, len(parent.ChildHashes))
	for _, h := range parent.ChildHashes {
		if c, ok := r.Commits[h]; ok {
			children = append(children, c)
		}
	}
	return children
}

// Descendants returns hash and everything reachable from it over child links,
// breadth-first, each commit once.
func (r *Repository) Descendants(hash CommitHash) []*Commit {
	root, ok := r.Commits[hash]
	if !ok {
		return nil
	}
	seen := map[CommitHash]bool{hash: true}
	result := []*Commit{root}
	for i := 0; i < len(result); i++ {
		for _, child := range r.Children(result[i].Hash) {
			if seen[child.Hash] {
				continue
			}
			seen[child.Hash] = true
			result = append(result, child)
		}
	}
	return result
}

// IsAncestor reports whether ancestor is reachable from descendant over parent links
// inside the snapshot. A commit is its own ancestor.
func (r *Repository) IsAncestor(ancestor, descendant CommitHash) bool {
	for _, c := range r.Descendants(ancestor) {
		if c.Hash == descendant {
			return true
		}
	}
	return false
}

// FindRef returns the commit a ref points at.
func (r *Repository) FindRef(ref RefName) (*Commit, bool) {
	for _, c := range r.Commits {
		if slices.Contains(c.RefNames, ref) {
			return c, true
		}
	}
	return nil, false
}

// HasRef reports whether any commit in the snapshot carries ref.
func (r *Repository) HasRef(ref RefName) bool {
	_, ok := r.FindRef(ref)
	return ok
}

// SortedHashes returns all commit hashes ordered by timestamp, then hash.
func (r *Repository) SortedHashes() []CommitHash {
	hashes := slices.Collect(maps.Keys(r.Commits))
	sort.Slice(hashes, func(i, j int) bool {
		return commitLess(r.Commits[hashes[i]], r.Commits[hashes[j]])
	})
	return hashes
}

func commitLess(a, b *Commit) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.Hash < b.Hash
}

// RepositoryBuilder derives a new Repository without touching the one it started from.
type RepositoryBuilder struct {
	repo  Repository
	built bool
}

// NewRepositoryBuilder starts an empty snapshot for the working copy at path.
func NewRepositoryBuilder(path string) *RepositoryBuilder {
	return &RepositoryBuilder{repo: Repository{Path: path, Commits: map[CommitHash]*Commit{}}}
}

// Edit starts a new snapshot that begins as a copy of base.
func Edit(base *Repository) *RepositoryBuilder {
	b := &RepositoryBuilder{repo: *base}
	b.repo.Commits = maps.Clone(base.Commits)
	if b.repo.Commits == nil {
		b.repo.Commits = map[CommitHash]*Commit{}
	}
	return b
}

// Commit returns the commit currently stored in the builder.
func (b *RepositoryBuilder) Commit(hash CommitHash) (*Commit, bool) {
	c, ok := b.repo.Commits[hash]
	return c, ok
}

// Put stores c, replacing any commit with the same hash.
func (b *RepositoryBuilder) Put(c *Commit) *RepositoryBuilder {
	b.mustBeOpen()
	b.repo.Commits[c.Hash] = c
	return b
}

// Update replaces the commit stored under hash with fn's result. Missing hashes are ignored.
func (b *RepositoryBuilder) Update(hash CommitHash, fn func(*Commit) *Commit) *RepositoryBuilder {
	b.mustBeOpen()
	if c, ok := b.repo.Commits[hash]; ok {
		b.repo.Commits[hash] = fn(c)
	}
	return b
}

// SetStatus records working copy state.
func (b *RepositoryBuilder) SetStatus(headHash CommitHash, headBranch BranchName, dirty bool) *RepositoryBuilder {
	b.mustBeOpen()
	b.repo.HeadHash = headHash
	b.repo.HeadBranch = headBranch
	b.repo.HasUncommittedChanges = dirty
	return b
}

// SetEarliestInterestingCommit records the root bound of the snapshot.
func (b *RepositoryBuilder) SetEarliestInterestingCommit(hash CommitHash) *RepositoryBuilder {
	b.mustBeOpen()
	b.repo.EarliestInterestingCommit = hash
	return b
}

// Build finishes the snapshot. The builder cannot be used afterwards.
func (b *RepositoryBuilder) Build() *Repository {
	b.mustBeOpen()
	b.built = true
	repo := b.repo
	return &repo
}

func (b *RepositoryBuilder) mustBeOpen() {
	if b.built {
		panic("model: RepositoryBuilder used after Build")
	}
}
