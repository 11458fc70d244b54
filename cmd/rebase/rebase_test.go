package rebase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taneliang/stack-attack/internal/stack"
	"github.com/taneliang/stack-attack/internal/testutil"
)

func fixture() *stack.FakeVersionControl {
	vcs := testutil.StackFixture().AddCommit("m2m2", "Upstream work", "mmmm")
	vcs.SetBranch("main", "m2m2")
	return vcs
}

func TestRebase(t *testing.T) {
	vcs := fixture()
	stdout, _ := testutil.CaptureOutput(t)
	c := &Command{
		Root:    "s1",
		Target:  "m2",
		Stacker: testutil.LoadedStacker(t, vcs, testutil.NewPlatform()),
	}

	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, "s1s1'1", vcs.Branches["stack-attack/one"])
	assert.Equal(t, "s2s2'2", vcs.Branches["feature"])
	assert.Contains(t, testutil.StripANSI(stdout.String()), "Rebased 2 commits onto m2m2 Upstream work")

	repo := c.Stacker.Snapshot()
	assert.Equal(t, []string{"m2m2"}, repo.Commits["s1s1'1"].ParentHashes)
}

func TestRebase_Conflict(t *testing.T) {
	vcs := fixture()
	vcs.Conflicts["s2s2"] = true
	stdout, _ := testutil.CaptureOutput(t)
	c := &Command{
		Root:    "s1s1",
		Target:  "m2m2",
		Stacker: testutil.LoadedStacker(t, vcs, testutil.NewPlatform()),
	}

	err := c.Run(context.Background())

	var conflict *stack.RebaseConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "s2s2", conflict.Commit)
	assert.Equal(t, "s1s1", vcs.Branches["stack-attack/one"])
	assert.Equal(t, "s2s2", vcs.Branches["feature"])
	assert.Contains(t, testutil.StripANSI(stdout.String()), "No branches were moved: s2s2 does not apply cleanly onto s1s1'1")
}

func TestRebase_AlreadyOnTarget(t *testing.T) {
	vcs := fixture()
	stdout, _ := testutil.CaptureOutput(t)
	c := &Command{
		Root:    "s2s2",
		Target:  "s1s1",
		Stacker: testutil.LoadedStacker(t, vcs, testutil.NewPlatform()),
	}

	require.NoError(t, c.Run(context.Background()))

	assert.Empty(t, vcs.Picks)
	assert.Equal(t, "s2s2", vcs.Branches["feature"])
	assert.Contains(t, testutil.StripANSI(stdout.String()), "s2s2 is already based on s1s1")
}

func TestRebase_UnknownCommit(t *testing.T) {
	testutil.CaptureOutput(t)
	c := &Command{
		Root:    "zzzz",
		Target:  "m2m2",
		Stacker: testutil.LoadedStacker(t, fixture(), testutil.NewPlatform()),
	}

	var missing *stack.AmbiguousOrMissingCommitError
	assert.ErrorAs(t, c.Run(context.Background()), &missing)
}
