package stack

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/taneliang/stack-attack/internal/model"
)

// MergeBaseResolver computes merge bases through VersionControl.
type MergeBaseResolver struct {
	vcs    VersionControl
	remote string
	log    zerolog.Logger
}

// NewMergeBaseResolver creates a resolver. remote is used to find long-lived branches
// that only exist as remote-tracking refs.
func NewMergeBaseResolver(vcs VersionControl, remote string, log zerolog.Logger) *MergeBaseResolver {
	return &MergeBaseResolver{vcs: vcs, remote: remote, log: log}
}

// MergeBase returns the merge base of a and b.
func (m *MergeBaseResolver) MergeBase(ctx context.Context, a, b model.CommitHash) (model.CommitHash, error) {
	return m.vcs.MergeBase(ctx, a, b)
}

// CommonAncestorOfAll left-folds MergeBase over tips starting from the first tip.
//
// This is not a true N-way lowest common ancestor: with more than two diverging branches the
// result can be lower than expected. It is only used as a bound for graph construction.
func (m *MergeBaseResolver) CommonAncestorOfAll(ctx context.Context, tips []model.CommitHash) (model.CommitHash, error) {
	if len(tips) == 0 {
		return "", fmt.Errorf("no commits to compute a common ancestor of")
	}
	acc := tips[0]
	for _, tip := range tips[1:] {
		if tip == acc {
			continue
		}
		base, err := m.vcs.MergeBase(ctx, acc, tip)
		if err != nil {
			return "", fmt.Errorf("failed to compute merge base of %s and %s: %w", short(acc), short(tip), err)
		}
		acc = base
	}
	return acc, nil
}

// MergeBasesWithLongLivedBranches returns the merge base of commit with the tip of every
// long-lived branch found in repo. Branches missing from repo are skipped.
func (m *MergeBaseResolver) MergeBasesWithLongLivedBranches(ctx context.Context, commit model.CommitHash, longLived []model.BranchName, repo *model.Repository) ([]model.CommitHash, error) {
	var bases []model.CommitHash
	for _, branch := range longLived {
		tip, ok := m.branchTip(branch, repo)
		if !ok {
			m.log.Debug().Str("branch", branch).Msg("long-lived branch not found, skipping")
			continue
		}
		base, err := m.vcs.MergeBase(ctx, commit, tip)
		if err != nil {
			return nil, fmt.Errorf("failed to compute merge base with %s: %w", branch, err)
		}
		bases = append(bases, base)
	}
	return bases, nil
}

func (m *MergeBaseResolver) branchTip(branch model.BranchName, repo *model.Repository) (model.CommitHash, bool) {
	if c, ok := repo.FindRef(model.BranchNameToLocalRef(branch)); ok {
		return c.Hash, true
	}
	if m.remote != "" {
		if c, ok := repo.FindRef(model.RemoteBranchRef(m.remote, branch)); ok {
			return c.Hash, true
		}
	}
	return "", false
}
