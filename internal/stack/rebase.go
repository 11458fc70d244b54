package stack

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/taneliang/stack-attack/internal/model"
)

// RebaseEngine uproots a commit subtree and replays it onto another commit.
type RebaseEngine struct {
	vcs VersionControl
	log zerolog.Logger
}

// NewRebaseEngine creates a RebaseEngine.
func NewRebaseEngine(vcs VersionControl, log zerolog.Logger) *RebaseEngine {
	return &RebaseEngine{vcs: vcs, log: log}
}

type branchMove struct {
	branch model.BranchName
	from   model.CommitHash
	to     model.CommitHash
}

// Rebase replays the subtree rooted at root onto target and moves every local branch that
// pointed into the subtree to the corresponding new commit. repo is not modified; the
// returned snapshot reflects the rewritten graph.
//
// All commits are replayed before any branch moves, so a conflict leaves every ref untouched.
// If moving branches fails part way, branches already moved are restored.
// Rebasing onto the current parent of root is a no-op that returns repo.
func (e *RebaseEngine) Rebase(ctx context.Context, root, target model.CommitHash, repo *model.Repository) (*model.Repository, error) {
	if c, ok := repo.Commit(root); ok && slices.Equal(c.ParentHashes, []model.CommitHash{target}) {
		e.log.Debug().Str("root", short(root)).Str("target", short(target)).Msg("already based on target, nothing to rebase")
		return repo, nil
	}

	subtree, err := e.validate(root, target, repo)
	if err != nil {
		return nil, err
	}

	b := model.Edit(repo)
	rebaseTarget := map[model.CommitHash]model.CommitHash{root: target}
	replacement := map[model.CommitHash]model.CommitHash{}
	var moves []branchMove

	queue := []model.CommitHash{root}
	for len(queue) > 0 {
		hash := queue[0]
		queue = queue[1:]

		onto, ok := rebaseTarget[hash]
		if !ok {
			panic(fmt.Sprintf("stack: no rebase target registered for %s", hash))
		}
		original, ok := repo.Commit(hash)
		if !ok {
			panic(fmt.Sprintf("stack: commit %s vanished from snapshot during rebase", hash))
		}

		newHash, err := e.vcs.CherryPick(ctx, hash, onto)
		if err != nil {
			return nil, cherryPickError(hash, onto, err)
		}
		e.log.Debug().Str("commit", short(hash)).Str("onto", short(onto)).Str("new", short(newHash)).Msg("replayed commit")
		replacement[hash] = newHash

		var localRefs []model.RefName
		for _, ref := range original.RefNames {
			if model.IsLocalRef(ref) {
				localRefs = append(localRefs, ref)
				moves = append(moves, branchMove{branch: model.LocalRefToBranchName(ref), from: hash, to: newHash})
			}
		}

		b.Put(&model.Commit{
			Hash:         newHash,
			Title:        original.Title,
			Timestamp:    original.Timestamp,
			Author:       original.Author,
			Committer:    original.Committer,
			RefNames:     localRefs,
			ParentHashes: []model.CommitHash{onto},
			ChildHashes:  []model.CommitHash{},
		})
		b.Update(onto, func(c *model.Commit) *model.Commit { return c.WithChild(newHash) })
		b.Update(hash, func(c *model.Commit) *model.Commit {
			for _, ref := range localRefs {
				c = c.WithoutRefName(ref)
			}
			return c
		})

		for _, child := range original.ChildHashes {
			rebaseTarget[child] = newHash
			queue = append(queue, child)
		}
	}

	if len(replacement) != len(subtree) {
		panic(fmt.Sprintf("stack: replayed %d commits of a %d commit subtree", len(replacement), len(subtree)))
	}

	if err := e.moveBranches(ctx, moves, repo.HeadBranch); err != nil {
		return nil, err
	}

	if newHead, ok := replacement[repo.HeadHash]; ok && repo.HeadBranch != "" && slices.ContainsFunc(moves, func(m branchMove) bool { return m.branch == repo.HeadBranch }) {
		b.SetStatus(newHead, repo.HeadBranch, repo.HasUncommittedChanges)
	}
	return b.Build(), nil
}

// validate checks every precondition without contacting VersionControl and returns the subtree.
func (e *RebaseEngine) validate(root, target model.CommitHash, repo *model.Repository) ([]*model.Commit, error) {
	if root == target {
		return nil, preconditionf("cannot rebase %s onto itself", short(root))
	}
	rootCommit, ok := repo.Commit(root)
	if !ok {
		return nil, preconditionf("commit %s is not part of the loaded repository", short(root))
	}
	if _, ok := repo.Commit(target); !ok {
		return nil, preconditionf("target commit %s is not part of the loaded repository", short(target))
	}
	if len(rootCommit.ParentHashes) == 0 {
		return nil, preconditionf("cannot rebase root commit %s: it has no parent", short(root))
	}
	if len(rootCommit.ParentHashes) > 1 {
		return nil, preconditionf("cannot rebase merge commit %s", short(root))
	}

	subtree := repo.Descendants(root)
	for _, c := range subtree {
		if c.Hash == target {
			return nil, preconditionf("cannot rebase %s onto its own descendant %s", short(root), short(target))
		}
		if len(c.ParentHashes) > 1 {
			return nil, preconditionf("cannot rebase a tree containing merge commit %s", short(c.Hash))
		}
		if repo.HasUncommittedChanges && repo.HeadBranch != "" && slices.Contains(c.LocalBranches(), repo.HeadBranch) {
			return nil, preconditionf("checked out branch %s would move but the working copy has uncommitted changes", repo.HeadBranch)
		}
	}
	return subtree, nil
}

func (e *RebaseEngine) moveBranches(ctx context.Context, moves []branchMove, headBranch model.BranchName) error {
	var done []branchMove
	for _, m := range moves {
		// The move is not cancellable once commits were replayed, so ctx is detached.
		if err := e.vcs.MoveBranch(context.WithoutCancel(ctx), m.branch, m.to, m.branch == headBranch); err != nil {
			return e.rollback(ctx, done, headBranch, fmt.Errorf("failed to move %s to %s: %w", m.branch, short(m.to), err))
		}
		e.log.Debug().Str("branch", m.branch).Str("from", short(m.from)).Str("to", short(m.to)).Msg("moved branch")
		done = append(done, m)
	}
	return nil
}

func (e *RebaseEngine) rollback(ctx context.Context, done []branchMove, headBranch model.BranchName, cause error) error {
	perr := &PartialRebaseError{Err: cause}
	var rollbackErrs []error
	for i := len(done) - 1; i >= 0; i-- {
		m := done[i]
		perr.Moved = append(perr.Moved, m.branch)
		if err := e.vcs.MoveBranch(context.WithoutCancel(ctx), m.branch, m.from, m.branch == headBranch); err != nil {
			rollbackErrs = append(rollbackErrs, fmt.Errorf("%s: %w", m.branch, err))
			continue
		}
		perr.RolledBack = append(perr.RolledBack, m.branch)
	}
	perr.RollbackErr = errors.Join(rollbackErrs...)
	e.log.Warn().Err(cause).Strs("restored", perr.RolledBack).Msg("rolled back branch moves")
	return perr
}

func cherryPickError(commit, onto model.CommitHash, err error) error {
	rerr := &RebaseConflictError{Commit: commit, Onto: onto, Err: err}
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		rerr.Output = conflict.Output
	}
	return rerr
}
