package stacker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taneliang/stack-attack/internal/model"
	"github.com/taneliang/stack-attack/internal/stack"
)

type countingLock struct {
	mu     sync.Mutex
	locked int
	held   bool
	err    error
}

func (l *countingLock) Lock(ctx context.Context) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.locked++
	l.held = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held = false
	}, nil
}

func newFixture(t *testing.T) (*stack.FakeVersionControl, *stack.MockCollaborationPlatform, *countingLock, *Stacker) {
	t.Helper()
	vcs := stack.NewFakeVersionControl().
		AddCommit("mmmm", "main tip").
		AddCommit("s1s1", "First change", "mmmm").
		AddCommit("s2s2", "Second change", "s1s1").
		AddCommit("cccc", "Other work", "mmmm").
		SetBranch("main", "mmmm").
		SetBranch("stack-attack/one", "s1s1").
		SetBranch("feature", "s2s2").
		SetBranch("other", "cccc").
		Checkout("main")
	platform := &stack.MockCollaborationPlatform{}
	lock := &countingLock{}
	s := New(vcs, platform, Options{
		Settings: stack.SyncSettings{LongLivedBranches: []model.BranchName{"main"}, TargetBranch: "main", Remote: "origin"},
		Lock:     lock,
		Logger:   zerolog.Nop(),
	})
	return vcs, platform, lock, s
}

func TestLoad_PublishesDecoratedSnapshot(t *testing.T) {
	_, platform, _, s := newFixture(t)
	platform.On("GetPRForBranch", mock.Anything, "stack-attack/one").
		Return(&model.PullRequestInfo{Number: 5, Title: "First change", HeadHash: "0ld0"}, nil)

	var published []*model.Repository
	s.Subscribe(func(repo *model.Repository) { published = append(published, repo) })

	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.Snapshot())

	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, StateReady, s.State())
	require.Len(t, published, 1)
	assert.Same(t, published[0], s.Snapshot())

	pr := s.Snapshot().Commits["s1s1"].PullRequestInfo
	require.NotNil(t, pr)
	assert.Equal(t, 5, pr.Number)
	assert.True(t, pr.IsOutdated)
	assert.Nil(t, s.Snapshot().Commits["s2s2"].PullRequestInfo)
}

func TestLoad_PRLookupFailureIsNotFatal(t *testing.T) {
	_, platform, _, s := newFixture(t)
	platform.On("GetPRForBranch", mock.Anything, "stack-attack/one").Return(nil, errors.New("rate limited"))

	require.NoError(t, s.Load(context.Background()))
	assert.Nil(t, s.Snapshot().Commits["s1s1"].PullRequestInfo)
}

func TestLoad_FailureSetsErrorState(t *testing.T) {
	vcs, _, _, s := newFixture(t)
	vcs.Branches = map[model.BranchName]model.CommitHash{}

	err := s.Load(context.Background())

	var loadErr *stack.RepositoryLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, StateError, s.State())
	assert.Equal(t, err, s.Err())
	assert.Nil(t, s.Snapshot())
}

func TestOperations_RequireReady(t *testing.T) {
	_, _, lock, s := newFixture(t)

	err := s.Rebase(context.Background(), "s1s1", "cccc")

	require.ErrorIs(t, err, ErrNotReady)
	assert.Zero(t, lock.locked)
	assert.Equal(t, StateIdle, s.State())
}

func TestRebase_ReloadsAfterSuccess(t *testing.T) {
	vcs, platform, lock, s := newFixture(t)
	platform.On("GetPRForBranch", mock.Anything, mock.Anything).Return(nil, nil)
	require.NoError(t, s.Load(context.Background()))

	var published []*model.Repository
	s.Subscribe(func(repo *model.Repository) { published = append(published, repo) })

	require.NoError(t, s.Rebase(context.Background(), "s1s1", "cccc"))

	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, 1, lock.locked)
	assert.False(t, lock.held)
	require.Len(t, published, 1)

	repo := s.Snapshot()
	newFeature, ok := repo.FindRef("refs/heads/feature")
	require.True(t, ok)
	assert.Equal(t, vcs.Branches["feature"], newFeature.Hash)
	assert.NotEqual(t, "s2s2", newFeature.Hash)
	parent := repo.Commits[newFeature.ParentHashes[0]]
	assert.Equal(t, []model.CommitHash{"cccc"}, parent.ParentHashes)
}

func TestRebase_FailureReloadsAndReturnsError(t *testing.T) {
	vcs, platform, _, s := newFixture(t)
	platform.On("GetPRForBranch", mock.Anything, mock.Anything).Return(nil, nil)
	require.NoError(t, s.Load(context.Background()))
	vcs.Conflicts["s2s2"] = true

	var states []State
	s.Subscribe(func(*model.Repository) { states = append(states, s.State()) })

	err := s.Rebase(context.Background(), "s1s1", "cccc")

	var conflict *stack.RebaseConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, []State{StateReady}, states)
	assert.Equal(t, "s2s2", vcs.Branches["feature"])
}

func TestRebase_LockFailure(t *testing.T) {
	_, platform, lock, s := newFixture(t)
	platform.On("GetPRForBranch", mock.Anything, mock.Anything).Return(nil, nil)
	require.NoError(t, s.Load(context.Background()))
	lock.err = errors.New("lock held by another process")

	err := s.Rebase(context.Background(), "s1s1", "cccc")

	require.ErrorIs(t, err, lock.err)
	assert.Equal(t, StateReady, s.State())
}

func TestBusyWhileOperationRuns(t *testing.T) {
	_, platform, _, s := newFixture(t)
	platform.On("GetPRForBranch", mock.Anything, mock.Anything).Return(nil, nil)
	require.NoError(t, s.Load(context.Background()))

	var nested error
	s.Subscribe(func(*model.Repository) {
		nested = s.PRStack(context.Background(), "s1s1")
	})
	require.NoError(t, s.Rebase(context.Background(), "s1s1", "cccc"))

	assert.ErrorIs(t, nested, ErrBusy)
}

func TestPRStack_CoversDescendants(t *testing.T) {
	vcs, platform, _, s := newFixture(t)
	platform.On("GetPRForBranch", mock.Anything, mock.Anything).Return(nil, nil)
	require.NoError(t, s.Load(context.Background()))

	platform.On("CreateOrUpdatePR", mock.Anything, "stack-attack/one", "main", "First change").
		Return(&model.PullRequestInfo{Number: 1}, nil).Once()
	platform.On("CreateOrUpdatePR", mock.Anything, mock.AnythingOfType("string"), "stack-attack/one", "Second change").
		Return(&model.PullRequestInfo{Number: 2}, nil).Once()

	require.NoError(t, s.PRStack(context.Background(), "s1s1"))

	assert.Len(t, vcs.Created, 1)
	assert.Len(t, vcs.Pushed, 2)
	platform.AssertExpectations(t)

	c, ok := s.Snapshot().Commit("s2s2")
	require.True(t, ok)
	_, hasStackBranch := c.StackBranch()
	assert.True(t, hasStackBranch)
}

func TestPROneCommit_OnlyThatCommit(t *testing.T) {
	vcs, platform, _, s := newFixture(t)
	platform.On("GetPRForBranch", mock.Anything, mock.Anything).Return(nil, nil)
	require.NoError(t, s.Load(context.Background()))
	platform.On("CreateOrUpdatePR", mock.Anything, mock.AnythingOfType("string"), "main", "Other work").
		Return(&model.PullRequestInfo{Number: 3}, nil).Once()

	require.NoError(t, s.PROneCommit(context.Background(), "cccc"))

	assert.Len(t, vcs.Pushed, 1)
	platform.AssertExpectations(t)
}

func TestResolveCommit(t *testing.T) {
	_, platform, _, s := newFixture(t)
	platform.On("GetPRForBranch", mock.Anything, mock.Anything).Return(nil, nil)

	_, err := s.ResolveCommit(context.Background(), "s1")
	require.ErrorIs(t, err, ErrNotReady)

	require.NoError(t, s.Load(context.Background()))

	c, err := s.ResolveCommit(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1s1", c.Hash)

	_, err = s.ResolveCommit(context.Background(), "s")
	var ambiguous *stack.AmbiguousOrMissingCommitError
	require.ErrorAs(t, err, &ambiguous)
	assert.Len(t, ambiguous.Matches, 2)
}
