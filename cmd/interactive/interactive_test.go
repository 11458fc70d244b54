package interactive

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taneliang/stack-attack/internal/model"
	"github.com/taneliang/stack-attack/internal/testutil"
	"github.com/taneliang/stack-attack/internal/ui"
)

// script answers prompts in order. A nil commit ends the session.
type script struct {
	t       *testing.T
	commits []model.CommitHash
	actions []int
	prompts []string
	offered [][]model.CommitHash
}

func (s *script) selectCommit(prompt string, commits []*model.Commit) (*model.Commit, error) {
	s.prompts = append(s.prompts, prompt)
	var hashes []model.CommitHash
	for _, c := range commits {
		hashes = append(hashes, c.Hash)
	}
	s.offered = append(s.offered, hashes)
	if len(s.commits) == 0 {
		return nil, nil
	}
	next := s.commits[0]
	s.commits = s.commits[1:]
	for _, c := range commits {
		if c.Hash == next {
			return c, nil
		}
	}
	require.Failf(s.t, "commit not offered", "%s not in %v", next, hashes)
	return nil, nil
}

func (s *script) selectAction(prompt string, actions []ui.Action) (int, error) {
	require.NotEmpty(s.t, s.actions, "unexpected action prompt %q", prompt)
	next := s.actions[0]
	s.actions = s.actions[1:]
	return next, nil
}

func TestInteractive_RebaseThenQuit(t *testing.T) {
	vcs := testutil.StackFixture().AddCommit("m2m2", "Upstream work", "mmmm")
	vcs.SetBranch("main", "m2m2")
	stdout, _ := testutil.CaptureOutput(t)

	s := &script{t: t, commits: []model.CommitHash{"s1s1", "m2m2"}, actions: []int{actionRebase}}
	c := &Command{
		Stacker:      testutil.LoadedStacker(t, vcs, testutil.NewPlatform()),
		SelectCommit: s.selectCommit,
		SelectAction: s.selectAction,
		Confirm:      func(string) bool { return false },
	}

	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, "s2s2'2", vcs.Branches["feature"])
	assert.Equal(t, []string{"commit", "rebase onto", "commit"}, s.prompts)
	assert.Equal(t, []model.CommitHash{"m2m2", "mmmm"}, s.offered[1], "the moved subtree is not offered as a target")
	assert.Contains(t, testutil.StripANSI(stdout.String()), "Rebased 2 commits onto m2m2")
}

func TestInteractive_FailedActionKeepsGoing(t *testing.T) {
	vcs := testutil.StackFixture().AddCommit("m2m2", "Upstream work", "mmmm")
	vcs.SetBranch("main", "m2m2")
	vcs.Conflicts["s1s1"] = true
	_, stderr := testutil.CaptureOutput(t)

	s := &script{t: t, commits: []model.CommitHash{"s1s1", "m2m2", "s2s2"}, actions: []int{actionRebase, actionQuit}}
	c := &Command{
		Stacker:      testutil.LoadedStacker(t, vcs, testutil.NewPlatform()),
		SelectCommit: s.selectCommit,
		SelectAction: s.selectAction,
		Confirm:      func(string) bool { return false },
	}

	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, testutil.StripANSI(stderr.String()), "Rebase onto... failed: rebase aborted")
	assert.Equal(t, "s2s2", vcs.Branches["feature"])
	assert.Empty(t, s.actions)
}

func TestInteractive_PreconditionIsAWarning(t *testing.T) {
	vcs := testutil.StackFixture().AddCommit("m2m2", "Upstream work", "mmmm")
	vcs.SetBranch("main", "m2m2")
	vcs.Dirty = true
	stdout, stderr := testutil.CaptureOutput(t)

	s := &script{t: t, commits: []model.CommitHash{"s1s1", "m2m2"}, actions: []int{actionRebase, actionQuit}}
	c := &Command{
		Stacker:      testutil.LoadedStacker(t, vcs, testutil.NewPlatform()),
		SelectCommit: s.selectCommit,
		SelectAction: s.selectAction,
	}

	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, testutil.StripANSI(stdout.String()), "checked out branch feature would move")
	assert.Empty(t, stderr.String())
	assert.Equal(t, "s2s2", vcs.Branches["feature"])
	assert.Empty(t, vcs.Picks)
	assert.Empty(t, vcs.Moves)
}

func TestInteractive_DeclinedStackPush(t *testing.T) {
	vcs := testutil.StackFixture()
	stdout, _ := testutil.CaptureOutput(t)

	var asked string
	s := &script{t: t, commits: []model.CommitHash{"s1s1"}, actions: []int{actionPRStack}}
	c := &Command{
		Stacker:      testutil.LoadedStacker(t, vcs, testutil.NewPlatform()),
		SelectCommit: s.selectCommit,
		SelectAction: s.selectAction,
		Confirm: func(prompt string) bool {
			asked = prompt
			return false
		},
	}

	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, "Push 2 commits and update their PRs?", asked)
	assert.Contains(t, testutil.StripANSI(stdout.String()), "Skipped pushing 2 commits")
	assert.Empty(t, vcs.Pushed)
}

func TestInteractive_SelectorError(t *testing.T) {
	testutil.CaptureOutput(t)
	boom := errors.New("no tty")
	c := &Command{
		Stacker: testutil.LoadedStacker(t, testutil.StackFixture(), testutil.NewPlatform()),
		SelectCommit: func(string, []*model.Commit) (*model.Commit, error) {
			return nil, boom
		},
	}

	assert.ErrorIs(t, c.Run(context.Background()), boom)
}
