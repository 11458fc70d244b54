package stack

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/taneliang/stack-attack/internal/model"
)

const maxBranchNameAttempts = 10

// CommitBranch pairs a commit with the stack branch that drives its PR.
type CommitBranch struct {
	Commit *model.Commit
	Branch model.BranchName
}

// BranchManager makes sure commits carry a stack-managed branch.
type BranchManager struct {
	vcs     VersionControl
	log     zerolog.Logger
	newName func() model.BranchName
}

// NewBranchManager creates a BranchManager.
func NewBranchManager(vcs VersionControl, log zerolog.Logger) *BranchManager {
	return &BranchManager{vcs: vcs, log: log, newName: model.NewStackBranchName}
}

// AttachStackBranches returns the stack branch of every commit, creating one where missing.
// Results keep the order of commits. The returned snapshot carries the created refs.
func (m *BranchManager) AttachStackBranches(ctx context.Context, commits []*model.Commit, repo *model.Repository) ([]CommitBranch, *model.Repository, error) {
	b := model.Edit(repo)
	result := make([]CommitBranch, 0, len(commits))
	taken := map[model.BranchName]bool{}

	for _, commit := range commits {
		if current, ok := b.Commit(commit.Hash); ok {
			commit = current
		}
		if branch, ok := commit.StackBranch(); ok {
			result = append(result, CommitBranch{Commit: commit, Branch: branch})
			continue
		}

		branch, err := m.mintName(repo, taken)
		if err != nil {
			return nil, nil, err
		}
		if err := m.vcs.CreateBranch(ctx, branch, commit.Hash); err != nil {
			return nil, nil, fmt.Errorf("failed to create branch %s at %s: %w", branch, short(commit.Hash), err)
		}
		m.log.Debug().Str("branch", branch).Str("commit", short(commit.Hash)).Msg("created stack branch")
		taken[branch] = true

		ref := model.BranchNameToLocalRef(branch)
		b.Update(commit.Hash, func(c *model.Commit) *model.Commit { return c.WithRefName(ref) })
		if updated, ok := b.Commit(commit.Hash); ok {
			commit = updated
		} else {
			commit = commit.WithRefName(ref)
		}
		result = append(result, CommitBranch{Commit: commit, Branch: branch})
	}
	return result, b.Build(), nil
}

func (m *BranchManager) mintName(repo *model.Repository, taken map[model.BranchName]bool) (model.BranchName, error) {
	for range maxBranchNameAttempts {
		name := m.newName()
		if taken[name] || repo.HasRef(model.BranchNameToLocalRef(name)) {
			continue
		}
		return name, nil
	}
	return "", fmt.Errorf("failed to generate an unused stack branch name after %d attempts", maxBranchNameAttempts)
}
