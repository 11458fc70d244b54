package testutil

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taneliang/stack-attack/internal/model"
	"github.com/taneliang/stack-attack/internal/stack"
	"github.com/taneliang/stack-attack/internal/stacker"
	"github.com/taneliang/stack-attack/internal/ui"
)

// StackFixture is a fake repository with main at mmmm and a two commit stack on top:
// s1s1 on stack-attack/one and s2s2 on feature, which is checked out.
func StackFixture() *stack.FakeVersionControl {
	return stack.NewFakeVersionControl().
		AddCommit("mmmm", "Main tip").
		AddCommit("s1s1", "First change", "mmmm").
		AddCommit("s2s2", "Second change", "s1s1").
		SetBranch("main", "mmmm").
		SetBranch("stack-attack/one", "s1s1").
		SetBranch("feature", "s2s2").
		Checkout("feature")
}

// NewPlatform returns a mock platform that knows no PRs unless told otherwise.
func NewPlatform() *stack.MockCollaborationPlatform {
	platform := &stack.MockCollaborationPlatform{}
	platform.On("GetPRForBranch", mock.Anything, mock.Anything).Return(nil, nil).Maybe()
	return platform
}

// LoadedStacker returns a loaded Stacker over vcs with main as the long-lived branch.
func LoadedStacker(t *testing.T, vcs stack.VersionControl, platform stack.CollaborationPlatform) *stacker.Stacker {
	t.Helper()
	s := stacker.New(vcs, platform, stacker.Options{
		Settings: stack.SyncSettings{
			LongLivedBranches: []model.BranchName{"main"},
			TargetBranch:      "main",
			Remote:            "origin",
		},
		Logger: zerolog.Nop(),
	})
	require.NoError(t, s.Load(context.Background()))
	return s
}

// CaptureOutput redirects ui output to buffers for the rest of the test.
func CaptureOutput(t *testing.T) (stdout, stderr *bytes.Buffer) {
	t.Helper()
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	oldOut, oldErr := ui.Stdout, ui.Stderr
	ui.Stdout, ui.Stderr = stdout, stderr
	t.Cleanup(func() { ui.Stdout, ui.Stderr = oldOut, oldErr })
	return stdout, stderr
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripANSI removes terminal styling from s.
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}
