package stack

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/taneliang/stack-attack/internal/model"
)

// SyncSettings are the repository settings PR synchronization depends on.
type SyncSettings struct {
	LongLivedBranches []model.BranchName
	// TargetBranch is the base of PRs whose parent has no stack branch.
	TargetBranch model.BranchName
	Remote       string
}

// Synchronizer keeps PRs, their bases and their stack descriptions in line with local commits.
type Synchronizer struct {
	vcs        VersionControl
	platform   CollaborationPlatform
	branches   *BranchManager
	mergeBases *MergeBaseResolver
	settings   SyncSettings
	log        zerolog.Logger
}

// NewSynchronizer creates a Synchronizer.
func NewSynchronizer(vcs VersionControl, platform CollaborationPlatform, branches *BranchManager, mergeBases *MergeBaseResolver, settings SyncSettings, log zerolog.Logger) *Synchronizer {
	return &Synchronizer{
		vcs:        vcs,
		platform:   platform,
		branches:   branches,
		mergeBases: mergeBases,
		settings:   settings,
		log:        log,
	}
}

// CreateOrUpdateStackPRs pushes a stack branch for every commit and opens or updates its PR,
// then refreshes the stack descriptions of the stack containing the first commit.
//
// A failure for one commit does not stop the others; all failures are joined in the returned
// error. The returned snapshot carries the created branches and PR info even on error.
func (s *Synchronizer) CreateOrUpdateStackPRs(ctx context.Context, commits []*model.Commit, repo *model.Repository) (*model.Repository, error) {
	if len(commits) == 0 {
		return repo, nil
	}

	attached, withBranches, err := s.branches.AttachStackBranches(ctx, commits, repo)
	if err != nil {
		return repo, err
	}
	repo = withBranches

	b := model.Edit(repo)
	var errs []error
	for _, cb := range attached {
		if err := s.vcs.PushBranch(ctx, cb.Branch, s.settings.Remote); err != nil {
			errs = append(errs, &PullRequestAPIError{Op: "push branch", Commit: cb.Commit.Hash, Branch: cb.Branch, Err: err})
			continue
		}

		base := s.baseBranch(cb.Commit, repo)
		s.log.Debug().Str("head", cb.Branch).Str("base", base).Str("commit", short(cb.Commit.Hash)).Msg("creating or updating PR")
		pr, err := s.platform.CreateOrUpdatePR(ctx, cb.Branch, base, cb.Commit.Title)
		if err != nil {
			errs = append(errs, &PullRequestAPIError{Op: "create or update PR", Commit: cb.Commit.Hash, Branch: cb.Branch, Err: err})
			continue
		}
		b.Update(cb.Commit.Hash, func(c *model.Commit) *model.Commit { return c.WithPullRequest(pr.ForCommit(c.Hash)) })
	}
	repo = b.Build()

	if _, err := s.SyncDescriptionsForStackContaining(ctx, attached[0].Commit.Hash, repo); err != nil {
		errs = append(errs, err)
	}
	return repo, errors.Join(errs...)
}

// baseBranch returns the parent's stack branch, or the target branch when the parent has none.
func (s *Synchronizer) baseBranch(commit *model.Commit, repo *model.Repository) model.BranchName {
	if len(commit.ParentHashes) > 0 {
		if parent, ok := repo.Commit(commit.ParentHashes[0]); ok {
			if branch, ok := parent.StackBranch(); ok {
				return branch
			}
		}
	}
	return s.settings.TargetBranch
}

type stackEntry struct {
	commit *model.Commit
	pr     *model.PullRequestInfo
}

// SyncDescriptionsForStackContaining rewrites the stack section of every PR in the stack that
// contains commit and returns the PRs it visited, in stack order.
//
// The stack root is the commit right above the first merge base with a long-lived branch
// found by following first parents. A commit that is itself such a merge base is not part
// of any stack.
//
// Only descriptions that change are written: syncing a stack that is already in sync makes
// no UpdatePRDescription calls. Every PR of a stack is still returned.
func (s *Synchronizer) SyncDescriptionsForStackContaining(ctx context.Context, commit model.CommitHash, repo *model.Repository) ([]*model.PullRequestInfo, error) {
	root, ok, err := s.stackRoot(ctx, commit, repo)
	if err != nil || !ok {
		return nil, err
	}

	var errs []error
	var entries []stackEntry
	byHash := map[model.CommitHash]*model.PullRequestInfo{}
	for _, c := range repo.Descendants(root) {
		branch, ok := c.StackBranch()
		if !ok {
			continue
		}
		pr, err := s.platform.GetPRForBranch(ctx, branch)
		if err != nil {
			errs = append(errs, &PullRequestAPIError{Op: "look up PR", Commit: c.Hash, Branch: branch, Err: err})
			continue
		}
		if pr == nil {
			continue
		}
		pr = pr.ForCommit(c.Hash)
		entries = append(entries, stackEntry{commit: c, pr: pr})
		byHash[c.Hash] = pr
	}

	prs := make([]*model.PullRequestInfo, 0, len(entries))
	for _, e := range entries {
		e.pr.Dependencies = dependenciesOf(e.commit, root, repo, byHash)
		prs = append(prs, e.pr)
	}

	for _, pr := range prs {
		body := ReplaceStackSection(pr.Description, RenderStackSection(prs, pr.Number))
		if body == pr.Description {
			s.log.Debug().Int("pr", pr.Number).Msg("stack description already up to date")
			continue
		}
		if err := s.platform.UpdatePRDescription(ctx, pr.Number, body); err != nil {
			errs = append(errs, &PullRequestAPIError{Op: "update PR description", PRNumber: pr.Number, Err: err})
			continue
		}
		pr.Description = body
		s.log.Debug().Int("pr", pr.Number).Msg("updated stack description")
	}
	return prs, errors.Join(errs...)
}

// stackRoot follows first parents from commit until the parent is a long-lived boundary.
func (s *Synchronizer) stackRoot(ctx context.Context, commit model.CommitHash, repo *model.Repository) (model.CommitHash, bool, error) {
	bases, err := s.mergeBases.MergeBasesWithLongLivedBranches(ctx, commit, s.settings.LongLivedBranches, repo)
	if err != nil {
		return "", false, err
	}
	boundary := map[model.CommitHash]bool{}
	for _, base := range bases {
		boundary[base] = true
	}
	if boundary[commit] {
		s.log.Debug().Str("commit", short(commit)).Msg("commit is on a long-lived branch, no stack to sync")
		return "", false, nil
	}

	unbounded := &UnboundedStackError{Commit: commit, LongLivedBranches: s.settings.LongLivedBranches}
	current := commit
	for {
		c, ok := repo.Commit(current)
		if !ok || len(c.ParentHashes) == 0 {
			return "", false, unbounded
		}
		parent := c.ParentHashes[0]
		if boundary[parent] {
			return current, true, nil
		}
		if _, ok := repo.Commit(parent); !ok {
			return "", false, unbounded
		}
		current = parent
	}
}

// dependenciesOf returns the PR numbers of commits between root and commit, root first.
func dependenciesOf(commit *model.Commit, root model.CommitHash, repo *model.Repository, prs map[model.CommitHash]*model.PullRequestInfo) []int {
	var deps []int
	current := commit
	for current.Hash != root && len(current.ParentHashes) > 0 {
		parent, ok := repo.Commit(current.ParentHashes[0])
		if !ok {
			break
		}
		if pr, ok := prs[parent.Hash]; ok {
			deps = append([]int{pr.Number}, deps...)
		}
		current = parent
	}
	return deps
}
