package stack

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taneliang/stack-attack/internal/model"
)

// RepositoryLoadError means the commit graph could not be built. Loading can be retried.
type RepositoryLoadError struct {
	Op  string
	Err error
}

func (e *RepositoryLoadError) Error() string {
	return fmt.Sprintf("failed to load repository: %s: %v", e.Op, e.Err)
}

func (e *RepositoryLoadError) Unwrap() error { return e.Err }

// AmbiguousOrMissingCommitError means a hash prefix matched zero or several commits.
type AmbiguousOrMissingCommitError struct {
	Prefix  string
	Matches []model.CommitHash
}

func (e *AmbiguousOrMissingCommitError) Error() string {
	if len(e.Matches) == 0 {
		return fmt.Sprintf("no commit matches %q", e.Prefix)
	}
	return fmt.Sprintf("commit prefix %q is ambiguous: %d commits match", e.Prefix, len(e.Matches))
}

// ConflictError is returned by VersionControl.CherryPick when the replay has content conflicts.
type ConflictError struct {
	Commit model.CommitHash
	Onto   model.CommitHash
	Output string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cherry-pick of %s onto %s has conflicts", short(e.Commit), short(e.Onto))
}

// RebaseConflictError aborts a tree rebase. No branch was moved.
type RebaseConflictError struct {
	Commit model.CommitHash
	Onto   model.CommitHash
	Output string
	Err    error
}

func (e *RebaseConflictError) Error() string {
	msg := fmt.Sprintf("rebase aborted: failed to cherry-pick %s onto %s: %v", short(e.Commit), short(e.Onto), e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *RebaseConflictError) Unwrap() error { return e.Err }

// PartialRebaseError means moving branches failed after every commit had been replayed.
// Moved lists branches that were moved, RolledBack those that were restored afterwards.
type PartialRebaseError struct {
	Moved       []model.BranchName
	RolledBack  []model.BranchName
	RollbackErr error
	Err         error
}

func (e *PartialRebaseError) Error() string {
	msg := fmt.Sprintf("failed to move branches after rebase: %v", e.Err)
	if len(e.Moved) > 0 {
		msg += fmt.Sprintf(" (moved: %s; restored: %s)", strings.Join(e.Moved, ", "), strings.Join(e.RolledBack, ", "))
	}
	if e.RollbackErr != nil {
		msg += fmt.Sprintf("; restoring failed: %v", e.RollbackErr)
	}
	return msg
}

func (e *PartialRebaseError) Unwrap() error { return e.Err }

// UnboundedStackError means no long-lived branch boundary was found below a commit.
type UnboundedStackError struct {
	Commit            model.CommitHash
	LongLivedBranches []model.BranchName
}

func (e *UnboundedStackError) Error() string {
	return fmt.Sprintf("cannot find the root of the stack containing %s: no merge base with long-lived branches [%s] below it",
		short(e.Commit), strings.Join(e.LongLivedBranches, ", "))
}

// PullRequestAPIError reports a failed hosting API call for one commit of a stack operation.
type PullRequestAPIError struct {
	Op       string
	Commit   model.CommitHash
	Branch   model.BranchName
	PRNumber int
	Err      error
}

func (e *PullRequestAPIError) Error() string {
	target := short(e.Commit)
	if e.PRNumber != 0 {
		target = fmt.Sprintf("PR #%d", e.PRNumber)
	} else if e.Branch != "" {
		target = fmt.Sprintf("%s (%s)", short(e.Commit), e.Branch)
	}
	return fmt.Sprintf("failed to %s for %s: %v", e.Op, target, e.Err)
}

func (e *PullRequestAPIError) Unwrap() error { return e.Err }

// PreconditionError means an operation was rejected before any side effect.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

func preconditionf(format string, args ...any) error {
	return &PreconditionError{Reason: fmt.Sprintf(format, args...)}
}

// IsPrecondition reports whether err is a *PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

func short(hash model.CommitHash) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
