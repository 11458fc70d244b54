package model

import (
	"slices"
	"time"
)

// CommitHash is a full hex object id.
type CommitHash = string

// CommitSignature identifies the author or committer of a commit.
type CommitSignature struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Commit is a node in the commit graph of a Repository snapshot.
//
// Commits only reference each other by hash through the owning Repository. A Commit is never
// modified once it is part of a published snapshot; the With* methods return copies.
type Commit struct {
	Hash      CommitHash      `json:"hash"`
	Title     string          `json:"title"`
	Timestamp time.Time       `json:"timestamp"`
	Author    CommitSignature `json:"author"`
	Committer CommitSignature `json:"committer"`

	RefNames []RefName `json:"ref_names"`

	// ParentHashes holds the real git parents, even those outside the snapshot window.
	ParentHashes []CommitHash `json:"parent_hashes"`
	ChildHashes  []CommitHash `json:"child_hashes"`

	PullRequestInfo *PullRequestInfo `json:"pull_request_info,omitempty"`
}

func (c *Commit) clone() *Commit {
	cp := *c
	cp.RefNames = slices.Clone(c.RefNames)
	cp.ParentHashes = slices.Clone(c.ParentHashes)
	cp.ChildHashes = slices.Clone(c.ChildHashes)
	if c.PullRequestInfo != nil {
		pr := *c.PullRequestInfo
		pr.Dependencies = slices.Clone(c.PullRequestInfo.Dependencies)
		cp.PullRequestInfo = &pr
	}
	return &cp
}

// WithRefName returns a copy of the commit that also carries ref.
func (c *Commit) WithRefName(ref RefName) *Commit {
	cp := c.clone()
	if !slices.Contains(cp.RefNames, ref) {
		cp.RefNames = append(cp.RefNames, ref)
	}
	return cp
}

// WithoutRefName returns a copy of the commit with ref removed.
func (c *Commit) WithoutRefName(ref RefName) *Commit {
	cp := c.clone()
	cp.RefNames = slices.DeleteFunc(cp.RefNames, func(r RefName) bool { return r == ref })
	return cp
}

// WithChild returns a copy of the commit with child appended to its children.
func (c *Commit) WithChild(child CommitHash) *Commit {
	cp := c.clone()
	if !slices.Contains(cp.ChildHashes, child) {
		cp.ChildHashes = append(cp.ChildHashes, child)
	}
	return cp
}

// WithPullRequest returns a copy of the commit linked to pr.
func (c *Commit) WithPullRequest(pr *PullRequestInfo) *Commit {
	cp := c.clone()
	if pr == nil {
		cp.PullRequestInfo = nil
		return cp
	}
	info := *pr
	info.Dependencies = slices.Clone(pr.Dependencies)
	cp.PullRequestInfo = &info
	return cp
}

// LocalBranches returns the names of local branches pointing at the commit.
func (c *Commit) LocalBranches() []BranchName {
	var branches []BranchName
	for _, ref := range c.RefNames {
		if IsLocalRef(ref) {
			branches = append(branches, LocalRefToBranchName(ref))
		}
	}
	return branches
}

// StackBranch returns the first stack-managed local branch of the commit, if any.
func (c *Commit) StackBranch() (BranchName, bool) {
	for _, branch := range c.LocalBranches() {
		if IsStackBranch(branch) {
			return branch, true
		}
	}
	return "", false
}

// ShortHash returns the abbreviated hash used in user-facing output.
func (c *Commit) ShortHash() string {
	if len(c.Hash) > 7 {
		return c.Hash[:7]
	}
	return c.Hash
}
