package prstack

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taneliang/stack-attack/internal/model"
	"github.com/taneliang/stack-attack/internal/stack"
	"github.com/taneliang/stack-attack/internal/testutil"
)

func TestPRStack(t *testing.T) {
	vcs := testutil.StackFixture()
	platform := &stack.MockCollaborationPlatform{}
	first := &model.PullRequestInfo{Number: 5, URL: "https://github.com/o/r/pull/5", HeadHash: "s1s1"}
	second := &model.PullRequestInfo{Number: 6, URL: "https://github.com/o/r/pull/6", HeadHash: "s2s2"}
	platform.On("GetPRForBranch", mock.Anything, "stack-attack/one").Return(first, nil)
	platform.On("GetPRForBranch", mock.Anything, mock.Anything).Return(second, nil)
	platform.On("CreateOrUpdatePR", mock.Anything, "stack-attack/one", "main", "First change").Return(first, nil).Once()
	platform.On("CreateOrUpdatePR", mock.Anything, mock.Anything, "stack-attack/one", "Second change").Return(second, nil).Once()
	platform.On("UpdatePRDescription", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	stdout, _ := testutil.CaptureOutput(t)
	c := &Command{
		Commit:  "s1s1",
		Stacker: testutil.LoadedStacker(t, vcs, platform),
	}

	require.NoError(t, c.Run(context.Background()))

	out := testutil.StripANSI(stdout.String())
	assert.Contains(t, out, "Synced 2 commits")
	assert.Contains(t, out, "s1s1 First change #5 https://github.com/o/r/pull/5")
	assert.Contains(t, out, "s2s2 Second change #6 https://github.com/o/r/pull/6")
	assert.Len(t, vcs.Pushed, 2)
	platform.AssertExpectations(t)
}

func TestPRStack_ContinuesAfterFailure(t *testing.T) {
	vcs := testutil.StackFixture()
	platform := &stack.MockCollaborationPlatform{}
	platform.On("GetPRForBranch", mock.Anything, mock.Anything).Return(nil, nil)
	platform.On("CreateOrUpdatePR", mock.Anything, "stack-attack/one", "main", "First change").
		Return(nil, errors.New("validation failed")).Once()
	platform.On("CreateOrUpdatePR", mock.Anything, mock.Anything, "stack-attack/one", "Second change").
		Return(&model.PullRequestInfo{Number: 6, HeadHash: "s2s2"}, nil).Once()

	testutil.CaptureOutput(t)
	c := &Command{
		Commit:  "s1s1",
		Stacker: testutil.LoadedStacker(t, vcs, platform),
	}

	err := c.Run(context.Background())

	var apiErr *stack.PullRequestAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "s1s1", apiErr.Commit)
	assert.Contains(t, err.Error(), "validation failed")
	platform.AssertExpectations(t)
}
