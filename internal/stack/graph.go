package stack

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/rs/zerolog"

	"github.com/taneliang/stack-attack/internal/model"
)

// GraphBuilder assembles a Repository snapshot from every branch's history.
type GraphBuilder struct {
	vcs        VersionControl
	mergeBases *MergeBaseResolver
	log        zerolog.Logger
}

// NewGraphBuilder creates a GraphBuilder.
func NewGraphBuilder(vcs VersionControl, mergeBases *MergeBaseResolver, log zerolog.Logger) *GraphBuilder {
	return &GraphBuilder{vcs: vcs, mergeBases: mergeBases, log: log}
}

// Build walks each branch from its tip towards the root, stopping at commits that were
// already seen or at the common ancestor of all branch tips, and returns the resulting DAG.
func (g *GraphBuilder) Build(ctx context.Context) (*model.Repository, error) {
	status, err := g.vcs.Status(ctx)
	if err != nil {
		return nil, &RepositoryLoadError{Op: "read working copy status", Err: err}
	}

	tips, err := g.vcs.ListBranchesAndTips(ctx)
	if err != nil {
		return nil, &RepositoryLoadError{Op: "list branches", Err: err}
	}
	if len(tips) == 0 {
		return nil, &RepositoryLoadError{Op: "list branches", Err: fmt.Errorf("repository has no branches")}
	}

	tipHashes := make([]model.CommitHash, 0, len(tips))
	for _, tip := range tips {
		tipHashes = append(tipHashes, tip.Commit.Hash)
	}
	commonAncestor, err := g.mergeBases.CommonAncestorOfAll(ctx, tipHashes)
	if err != nil {
		return nil, &RepositoryLoadError{Op: "compute common ancestor", Err: err}
	}
	g.log.Debug().Int("branches", len(tips)).Str("common_ancestor", short(commonAncestor)).Msg("building commit graph")

	commits := map[model.CommitHash]*model.Commit{}
	// Parent links are known as soon as a commit is read, child links only once every
	// branch has been walked, so they are collected here first. Keys may lie outside the
	// window; values never do.
	childrenOf := map[model.CommitHash][]model.CommitHash{}

	for _, tip := range tips {
		walked, err := g.walk(ctx, tip.Commit, commonAncestor, commits, childrenOf)
		if err != nil {
			return nil, &RepositoryLoadError{Op: fmt.Sprintf("walk history of %s", tip.Ref), Err: err}
		}
		g.log.Debug().Str("ref", tip.Ref).Int("new_commits", walked).Msg("walked branch")
	}

	if _, ok := commits[commonAncestor]; !ok {
		info, err := g.vcs.ReadCommit(ctx, commonAncestor)
		if err != nil {
			return nil, &RepositoryLoadError{Op: "read common ancestor", Err: err}
		}
		commits[commonAncestor] = newCommit(info)
	}

	for parent, children := range childrenOf {
		c, ok := commits[parent]
		if !ok {
			continue
		}
		sort.Slice(children, func(i, j int) bool {
			a, b := commits[children[i]], commits[children[j]]
			if !a.Timestamp.Equal(b.Timestamp) {
				return a.Timestamp.Before(b.Timestamp)
			}
			return a.Hash < b.Hash
		})
		c.ChildHashes = slices.Compact(children)
	}

	for _, tip := range tips {
		if c, ok := commits[tip.Commit.Hash]; ok && !slices.Contains(c.RefNames, tip.Ref) {
			c.RefNames = append(c.RefNames, tip.Ref)
		}
	}

	b := model.NewRepositoryBuilder(g.vcs.Path()).
		SetStatus(status.HeadHash, status.HeadBranch, status.HasUncommittedChanges).
		SetEarliestInterestingCommit(commonAncestor)
	for _, c := range commits {
		b.Put(c)
	}
	return b.Build(), nil
}

// walk adds every unseen commit reachable from tip to commits and returns how many were added.
func (g *GraphBuilder) walk(
	ctx context.Context,
	tip CommitInfo,
	stopAt model.CommitHash,
	commits map[model.CommitHash]*model.Commit,
	childrenOf map[model.CommitHash][]model.CommitHash,
) (int, error) {
	added := 0
	pending := []CommitInfo{tip}
	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		info := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		if _, seen := commits[info.Hash]; seen {
			continue
		}
		commits[info.Hash] = newCommit(info)
		added++

		if info.Hash == stopAt {
			continue
		}
		for _, parent := range info.ParentHashes {
			childrenOf[parent] = append(childrenOf[parent], info.Hash)
			if _, seen := commits[parent]; seen {
				continue
			}
			parentInfo, err := g.vcs.ReadCommit(ctx, parent)
			if err != nil {
				return added, fmt.Errorf("failed to read commit %s: %w", short(parent), err)
			}
			pending = append(pending, parentInfo)
		}
	}
	return added, nil
}

func newCommit(info CommitInfo) *model.Commit {
	return &model.Commit{
		Hash:         info.Hash,
		Title:        info.Title,
		Timestamp:    info.Timestamp,
		Author:       info.Author,
		Committer:    info.Committer,
		RefNames:     []model.RefName{},
		ParentHashes: slices.Clone(info.ParentHashes),
		ChildHashes:  []model.CommitHash{},
	}
}
