package git

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/taneliang/stack-attack/internal/model"
	"github.com/taneliang/stack-attack/internal/stack"
)

var _ stack.VersionControl = (*Client)(nil)

// Status reports HEAD and whether the working copy has uncommitted changes.
func (c *Client) Status(ctx context.Context) (stack.RepoStatus, error) {
	head, err := c.repo.Head()
	if err != nil {
		return stack.RepoStatus{}, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	status := stack.RepoStatus{HeadHash: head.Hash().String()}
	if head.Name().IsBranch() {
		status.HeadBranch = head.Name().Short()
	}

	dirty, err := c.HasUncommittedChanges(ctx)
	if err != nil {
		return stack.RepoStatus{}, err
	}
	status.HasUncommittedChanges = dirty
	return status, nil
}

// HasUncommittedChanges checks if there are any uncommitted changes to tracked files.
func (c *Client) HasUncommittedChanges(ctx context.Context) (bool, error) {
	out, err := c.run(ctx, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return false, fmt.Errorf("failed to check git status: %w", err)
	}
	return out != "", nil
}

// ListBranchesAndTips returns every local and remote-tracking branch with its tip commit,
// sorted by ref name. Symbolic refs such as refs/remotes/origin/HEAD are skipped.
func (c *Client) ListBranchesAndTips(ctx context.Context) ([]stack.BranchTip, error) {
	refs, err := c.repo.References()
	if err != nil {
		return nil, fmt.Errorf("failed to list references: %w", err)
	}
	defer refs.Close()

	var tips []stack.BranchTip
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		if !ref.Name().IsBranch() && !ref.Name().IsRemote() {
			return nil
		}
		commit, err := c.repo.CommitObject(ref.Hash())
		if err != nil {
			return fmt.Errorf("failed to read tip of %s: %w", ref.Name(), err)
		}
		tips = append(tips, stack.BranchTip{Ref: ref.Name().String(), Commit: toCommitInfo(commit)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(tips, func(i, j int) bool { return tips[i].Ref < tips[j].Ref })
	c.log.Debug().Int("branches", len(tips)).Msg("listed branches")
	return tips, nil
}

// ReadCommit reads one commit object.
func (c *Client) ReadCommit(ctx context.Context, hash model.CommitHash) (stack.CommitInfo, error) {
	commit, err := c.commit(hash)
	if err != nil {
		return stack.CommitInfo{}, err
	}
	return toCommitInfo(commit), nil
}

// MergeBase returns the best common ancestor of a and b.
func (c *Client) MergeBase(ctx context.Context, a, b model.CommitHash) (model.CommitHash, error) {
	if a == b {
		return a, nil
	}
	ca, err := c.commit(a)
	if err != nil {
		return "", err
	}
	cb, err := c.commit(b)
	if err != nil {
		return "", err
	}
	bases, err := ca.MergeBase(cb)
	if err != nil {
		return "", fmt.Errorf("failed to compute merge base of %s and %s: %w", a, b, err)
	}
	if len(bases) == 0 {
		return "", fmt.Errorf("%s and %s have no common ancestor", a, b)
	}
	// Criss-cross histories have several best bases; pick one deterministically.
	sort.Slice(bases, func(i, j int) bool { return bases[i].Hash.String() < bases[j].Hash.String() })
	return bases[0].Hash.String(), nil
}

// CreateBranch creates a local branch at the given commit. It fails if the branch exists.
func (c *Client) CreateBranch(ctx context.Context, name model.BranchName, at model.CommitHash) error {
	refName := plumbing.NewBranchReferenceName(name)
	if _, err := c.repo.Reference(refName, false); err == nil {
		return fmt.Errorf("failed to create branch %s: branch already exists", name)
	} else if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return fmt.Errorf("failed to create branch %s: %w", name, err)
	}
	if err := c.repo.Storer.SetReference(plumbing.NewHashReference(refName, plumbing.NewHash(at))); err != nil {
		return fmt.Errorf("failed to create branch %s: %w", name, err)
	}
	c.log.Debug().Str("branch", name).Str("at", at).Msg("created branch")
	return nil
}

// HasBranch reports whether a local branch exists.
func (c *Client) HasBranch(name model.BranchName) bool {
	_, err := c.repo.Reference(plumbing.NewBranchReferenceName(name), false)
	return err == nil
}

// LookupByHashPrefix resolves an abbreviated commit hash.
func (c *Client) LookupByHashPrefix(ctx context.Context, prefix string) (model.CommitHash, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || !isHex(prefix) {
		return "", &stack.AmbiguousOrMissingCommitError{Prefix: prefix}
	}
	if len(prefix) == 40 {
		if _, err := c.repo.CommitObject(plumbing.NewHash(prefix)); err != nil {
			return "", &stack.AmbiguousOrMissingCommitError{Prefix: prefix}
		}
		return prefix, nil
	}

	iter, err := c.repo.CommitObjects()
	if err != nil {
		return "", fmt.Errorf("failed to list commits: %w", err)
	}
	defer iter.Close()

	var matches []model.CommitHash
	err = iter.ForEach(func(commit *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if h := commit.Hash.String(); strings.HasPrefix(h, prefix) {
			matches = append(matches, h)
			if len(matches) > 1 {
				return storer.ErrStop
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(matches) != 1 {
		return "", &stack.AmbiguousOrMissingCommitError{Prefix: prefix, Matches: matches}
	}
	return matches[0], nil
}

func (c *Client) commit(hash model.CommitHash) (*object.Commit, error) {
	commit, err := c.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to read commit %s: %w", hash, err)
	}
	return commit, nil
}

func isHex(s string) bool {
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}
