package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/taneliang/stack-attack/internal/model"
	"github.com/taneliang/stack-attack/internal/stack"
)

// CherryPick replays commit onto onto and returns the new commit. Only objects are written:
// the working copy, the index and every ref stay untouched.
//
// The new tree comes from `git merge-tree --write-tree --merge-base=<commit>^ <onto> <commit>`
// and the commit keeps the original author and message.
func (c *Client) CherryPick(ctx context.Context, commit, onto model.CommitHash) (model.CommitHash, error) {
	if err := c.requireVersion(ctx); err != nil {
		return "", err
	}
	original, err := c.commit(commit)
	if err != nil {
		return "", err
	}
	if len(original.ParentHashes) != 1 {
		return "", fmt.Errorf("failed to cherry-pick %s: commit has %d parents", commit, len(original.ParentHashes))
	}
	base := original.ParentHashes[0].String()

	out, err := c.run(ctx, "merge-tree", "--write-tree", "--messages", "--merge-base="+base, onto, commit)
	if err != nil {
		var gerr *GitError
		if errors.As(err, &gerr) && gerr.ExitCode == 1 {
			c.log.Debug().Str("commit", commit).Str("onto", onto).Msg("cherry-pick has conflicts")
			return "", &stack.ConflictError{Commit: commit, Onto: onto, Output: conflictOutput(gerr.Stdout)}
		}
		return "", fmt.Errorf("failed to merge %s onto %s: %w", commit, onto, err)
	}
	tree, _, _ := strings.Cut(out, "\n")

	newHash, err := c.runWith(ctx, authorEnv(original.Author), strings.NewReader(original.Message),
		"commit-tree", tree, "-p", onto, "-F", "-")
	if err != nil {
		return "", fmt.Errorf("failed to commit tree for %s: %w", commit, err)
	}
	return newHash, nil
}

// conflictOutput drops the tree id merge-tree prints before its conflict report.
func conflictOutput(stdout string) string {
	_, rest, _ := strings.Cut(strings.TrimSpace(stdout), "\n")
	return strings.TrimSpace(rest)
}

// MoveBranch points a local branch at another commit.
//
// A checked out branch cannot simply be repointed without leaving the index and working copy
// behind, so with detachIfCheckedOut HEAD is detached first, the ref is moved and the branch
// is checked out again at its new commit.
func (c *Client) MoveBranch(ctx context.Context, name model.BranchName, to model.CommitHash, detachIfCheckedOut bool) error {
	refName := plumbing.NewBranchReferenceName(name)
	if _, err := c.repo.Reference(refName, false); err != nil {
		return fmt.Errorf("failed to move branch %s: %w", name, err)
	}

	if !detachIfCheckedOut {
		if err := c.repo.Storer.SetReference(plumbing.NewHashReference(refName, plumbing.NewHash(to))); err != nil {
			return fmt.Errorf("failed to update ref %s to %s: %w", name, to, err)
		}
		c.log.Debug().Str("branch", name).Str("to", to).Msg("updated ref")
		return nil
	}

	if _, err := c.run(ctx, "checkout", "--quiet", "--detach"); err != nil {
		return fmt.Errorf("failed to detach HEAD from %s: %w", name, err)
	}
	if _, err := c.run(ctx, "update-ref", refName.String(), to); err != nil {
		// Put the user back where they were.
		if _, cerr := c.run(ctx, "checkout", "--quiet", name); cerr != nil {
			c.log.Warn().Err(cerr).Str("branch", name).Msg("failed to check out branch again")
		}
		return fmt.Errorf("failed to update ref %s to %s: %w", name, to, err)
	}
	if _, err := c.run(ctx, "checkout", "--quiet", name); err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", name, err)
	}
	c.log.Debug().Str("branch", name).Str("to", to).Msg("moved checked out branch")
	return nil
}
