package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diamondRepo is a -> b, a -> c, with d on top of b.
func diamondRepo() *Repository {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewRepositoryBuilder("/repo")
	b.Put(&Commit{Hash: "a", Timestamp: t0, ChildHashes: []CommitHash{"b", "c"}, RefNames: []RefName{"refs/heads/main"}})
	b.Put(&Commit{Hash: "b", Timestamp: t0.Add(time.Minute), ParentHashes: []CommitHash{"a"}, ChildHashes: []CommitHash{"d"}})
	b.Put(&Commit{Hash: "c", Timestamp: t0.Add(time.Minute), ParentHashes: []CommitHash{"a"}})
	b.Put(&Commit{Hash: "d", Timestamp: t0.Add(2 * time.Minute), ParentHashes: []CommitHash{"b"},
		RefNames: []RefName{"refs/heads/stack-attack/d", "refs/heads/feature", "refs/remotes/origin/stack-attack/d"}})
	return b.SetEarliestInterestingCommit("a").SetStatus("d", "feature", false).Build()
}

func hashes(commits []*Commit) []CommitHash {
	out := make([]CommitHash, len(commits))
	for i, c := range commits {
		out[i] = c.Hash
	}
	return out
}

func TestRepository_Traversal(t *testing.T) {
	repo := diamondRepo()

	assert.Equal(t, []CommitHash{"b", "c"}, hashes(repo.Children("a")))
	assert.Empty(t, repo.Children("missing"))
	assert.Equal(t, []CommitHash{"a", "b", "c", "d"}, hashes(repo.Descendants("a")))
	assert.Equal(t, []CommitHash{"b", "d"}, hashes(repo.Descendants("b")))
	assert.Nil(t, repo.Descendants("missing"))

	assert.True(t, repo.IsAncestor("a", "d"))
	assert.True(t, repo.IsAncestor("d", "d"))
	assert.False(t, repo.IsAncestor("c", "d"))

	assert.Equal(t, []CommitHash{"a", "b", "c", "d"}, repo.SortedHashes())
}

func TestRepository_Refs(t *testing.T) {
	repo := diamondRepo()

	c, ok := repo.FindRef("refs/heads/feature")
	require.True(t, ok)
	assert.Equal(t, "d", c.Hash)
	assert.False(t, repo.HasRef("refs/heads/nope"))

	assert.Equal(t, []BranchName{"stack-attack/d", "feature"}, c.LocalBranches())
	branch, ok := c.StackBranch()
	assert.True(t, ok)
	assert.Equal(t, "stack-attack/d", branch)

	_, ok = repo.Commits["a"].StackBranch()
	assert.False(t, ok)
}

func TestEdit_CopyOnWrite(t *testing.T) {
	base := diamondRepo()

	next := Edit(base).
		Update("d", func(c *Commit) *Commit { return c.WithoutRefName("refs/heads/feature") }).
		Update("c", func(c *Commit) *Commit { return c.WithRefName("refs/heads/feature").WithChild("e") }).
		Update("missing", func(c *Commit) *Commit { panic("not called") }).
		Build()

	assert.True(t, base.IsAncestor("b", "d"))
	assert.Contains(t, base.Commits["d"].RefNames, "refs/heads/feature")
	assert.Empty(t, base.Commits["c"].RefNames)
	assert.Empty(t, base.Commits["c"].ChildHashes)

	assert.NotContains(t, next.Commits["d"].RefNames, "refs/heads/feature")
	assert.Equal(t, []RefName{"refs/heads/feature"}, next.Commits["c"].RefNames)
	assert.Equal(t, []CommitHash{"e"}, next.Commits["c"].ChildHashes)
	assert.Same(t, base.Commits["a"], next.Commits["a"])
	assert.Equal(t, "d", next.HeadHash)
}

func TestCommit_WithPullRequestCopies(t *testing.T) {
	pr := &PullRequestInfo{Number: 3, Dependencies: []int{1, 2}}
	c := (&Commit{Hash: "x"}).WithPullRequest(pr)

	pr.Dependencies[0] = 99
	assert.Equal(t, []int{1, 2}, c.PullRequestInfo.Dependencies)

	cleared := c.WithPullRequest(nil)
	assert.Nil(t, cleared.PullRequestInfo)
	assert.NotNil(t, c.PullRequestInfo)

	assert.Equal(t, []RefName{"refs/heads/a"}, c.WithRefName("refs/heads/a").WithRefName("refs/heads/a").RefNames)
}

func TestCommit_ShortHash(t *testing.T) {
	assert.Equal(t, "0123456", (&Commit{Hash: "0123456789"}).ShortHash())
	assert.Equal(t, "abc", (&Commit{Hash: "abc"}).ShortHash())
}

func TestBuilder_PanicsAfterBuild(t *testing.T) {
	b := NewRepositoryBuilder("/repo")
	b.Build()
	assert.Panics(t, func() { b.Put(&Commit{Hash: "a"}) })
}
