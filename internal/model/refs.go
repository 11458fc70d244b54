package model

import (
	"fmt"
	"strings"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
)

// RefName is a fully qualified git ref, e.g. refs/heads/main.
type RefName = string

// BranchName is a short branch name, e.g. main.
type BranchName = string

const (
	LocalRefPrefix  = "refs/heads/"
	RemoteRefPrefix = "refs/remotes/"

	// StackBranchPrefix marks branches created to back a single commit of a stack.
	StackBranchPrefix = "stack-attack/"
)

// IsLocalRef reports whether ref is a local branch ref.
func IsLocalRef(ref RefName) bool {
	return strings.HasPrefix(ref, LocalRefPrefix)
}

// IsRemoteRef reports whether ref is a remote-tracking branch ref.
func IsRemoteRef(ref RefName) bool {
	return strings.HasPrefix(ref, RemoteRefPrefix)
}

// LocalRefToBranchName strips refs/heads/ from ref. Other refs are returned unchanged.
func LocalRefToBranchName(ref RefName) BranchName {
	if !IsLocalRef(ref) {
		return ref
	}
	return strings.TrimPrefix(ref, LocalRefPrefix)
}

// BranchNameToLocalRef returns the local ref for branch.
func BranchNameToLocalRef(branch BranchName) RefName {
	return LocalRefPrefix + branch
}

// RemoteBranchRef returns the remote-tracking ref of branch on remote.
func RemoteBranchRef(remote string, branch BranchName) RefName {
	return fmt.Sprintf("%s%s/%s", RemoteRefPrefix, remote, branch)
}

// IsStackBranch reports whether branch follows the stack-managed naming convention.
func IsStackBranch(branch BranchName) bool {
	return strings.HasPrefix(branch, StackBranchPrefix) && len(branch) > len(StackBranchPrefix)
}

// NewStackBranchName mints a stack-managed branch name: a three word petname and a short
// uuid fragment, e.g. stack-attack/mostly-brave-otter-1f2e3d.
func NewStackBranchName() BranchName {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return StackBranchPrefix + petname.Generate(3, "-") + "-" + suffix
}
