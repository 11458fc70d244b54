package stack

import (
	"context"
	"time"

	"github.com/taneliang/stack-attack/internal/model"
)

// CommitInfo is the raw data a VersionControl backend reports for one commit.
type CommitInfo struct {
	Hash         model.CommitHash
	Title        string
	Timestamp    time.Time
	Author       model.CommitSignature
	Committer    model.CommitSignature
	ParentHashes []model.CommitHash
}

// BranchTip is a branch ref and the commit it points at.
type BranchTip struct {
	Ref    model.RefName
	Commit CommitInfo
}

// RepoStatus describes the working copy.
type RepoStatus struct {
	HeadHash              model.CommitHash
	HeadBranch            model.BranchName // empty when HEAD is detached
	HasUncommittedChanges bool
}

// VersionControl is the git side of the engine.
type VersionControl interface {
	Path() string
	Status(ctx context.Context) (RepoStatus, error)
	ListBranchesAndTips(ctx context.Context) ([]BranchTip, error)
	ReadCommit(ctx context.Context, hash model.CommitHash) (CommitInfo, error)
	MergeBase(ctx context.Context, a, b model.CommitHash) (model.CommitHash, error)
	// CherryPick replays commit onto onto without touching the working copy and returns the
	// new commit. Content conflicts are reported as *ConflictError.
	CherryPick(ctx context.Context, commit, onto model.CommitHash) (model.CommitHash, error)
	MoveBranch(ctx context.Context, name model.BranchName, to model.CommitHash, detachIfCheckedOut bool) error
	CreateBranch(ctx context.Context, name model.BranchName, at model.CommitHash) error
	PushBranch(ctx context.Context, name model.BranchName, remote string) error
	// LookupByHashPrefix fails with *AmbiguousOrMissingCommitError unless exactly one commit matches.
	LookupByHashPrefix(ctx context.Context, prefix string) (model.CommitHash, error)
}

// CollaborationPlatform is the code hosting side of the engine.
type CollaborationPlatform interface {
	// GetPRForCommit returns nil, nil when no PR is associated with hash.
	GetPRForCommit(ctx context.Context, hash model.CommitHash) (*model.PullRequestInfo, error)
	// GetPRForBranch returns nil, nil when branch has no open PR.
	GetPRForBranch(ctx context.Context, branch model.BranchName) (*model.PullRequestInfo, error)
	// CreateOrUpdatePR sets title and base of the PR for head, creating it if needed.
	// It never changes the description of an existing PR.
	CreateOrUpdatePR(ctx context.Context, head, base model.BranchName, title string) (*model.PullRequestInfo, error)
	UpdatePRDescription(ctx context.Context, number int, body string) error
}
