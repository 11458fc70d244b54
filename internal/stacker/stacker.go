package stacker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/taneliang/stack-attack/internal/model"
	"github.com/taneliang/stack-attack/internal/stack"
)

// State is the lifecycle state of a Stacker.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateBusy
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateBusy:
		return "busy"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrBusy is returned when another operation is already running.
	ErrBusy = errors.New("another operation is in progress")
	// ErrNotReady is returned when an operation needs a loaded repository.
	ErrNotReady = errors.New("repository is not loaded")
)

// Listener receives every newly published snapshot.
type Listener func(repo *model.Repository)

// Locker serializes mutating operations on a repository across processes.
type Locker interface {
	Lock(ctx context.Context) (func(), error)
}

// Options configures a Stacker.
type Options struct {
	Settings stack.SyncSettings
	Lock     Locker
	Logger   zerolog.Logger
	// PRLookupConcurrency bounds concurrent PR lookups while loading. Defaults to 4.
	PRLookupConcurrency int
}

// Stacker is the single entry point for reading and changing a repository's stacks.
type Stacker struct {
	vcs       stack.VersionControl
	platform  stack.CollaborationPlatform
	graph     *stack.GraphBuilder
	rebaser   *stack.RebaseEngine
	syncer    *stack.Synchronizer
	lock      Locker
	log       zerolog.Logger
	prLookups int

	// opMu is held for the whole of an operation.
	opMu sync.Mutex

	mu       sync.Mutex // guards the fields below
	state    State
	snapshot *model.Repository
	listener Listener
	lastErr  error
}

// New creates a Stacker in the idle state.
func New(vcs stack.VersionControl, platform stack.CollaborationPlatform, opts Options) *Stacker {
	log := opts.Logger
	mergeBases := stack.NewMergeBaseResolver(vcs, opts.Settings.Remote, log)
	branches := stack.NewBranchManager(vcs, log)
	prLookups := opts.PRLookupConcurrency
	if prLookups <= 0 {
		prLookups = 4
	}
	return &Stacker{
		vcs:       vcs,
		platform:  platform,
		graph:     stack.NewGraphBuilder(vcs, mergeBases, log),
		rebaser:   stack.NewRebaseEngine(vcs, log),
		syncer:    stack.NewSynchronizer(vcs, platform, branches, mergeBases, opts.Settings, log),
		lock:      opts.Lock,
		log:       log,
		prLookups: prLookups,
		state:     StateIdle,
	}
}

// State returns the current state.
func (s *Stacker) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that last moved the Stacker into the error state.
func (s *Stacker) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Snapshot returns the latest published snapshot, or nil before the first successful load.
func (s *Stacker) Snapshot() *model.Repository {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Subscribe sets the listener invoked synchronously with every new snapshot.
// A nil listener unsubscribes.
func (s *Stacker) Subscribe(listener Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = listener
}

// Load rebuilds the snapshot from the repository and publishes it.
func (s *Stacker) Load(ctx context.Context) error {
	if !s.opMu.TryLock() {
		return ErrBusy
	}
	defer s.opMu.Unlock()

	switch st := s.State(); st {
	case StateIdle, StateReady, StateError:
	default:
		return fmt.Errorf("cannot load while %s: %w", st, ErrBusy)
	}
	return s.load(ctx)
}

func (s *Stacker) load(ctx context.Context) error {
	s.setState(StateLoading, nil)

	repo, err := s.graph.Build(ctx)
	if err != nil {
		s.setState(StateError, err)
		return err
	}
	repo = s.decorateWithPullRequests(ctx, repo)

	s.publish(repo)
	s.log.Debug().Int("commits", len(repo.Commits)).Msg("published snapshot")
	return nil
}

// decorateWithPullRequests attaches PR info to commits carrying a stack branch. Lookup
// failures leave the commit undecorated.
func (s *Stacker) decorateWithPullRequests(ctx context.Context, repo *model.Repository) *model.Repository {
	if s.platform == nil {
		return repo
	}

	type lookup struct {
		hash   model.CommitHash
		branch model.BranchName
		pr     *model.PullRequestInfo
	}
	var lookups []*lookup
	for _, hash := range repo.SortedHashes() {
		if branch, ok := repo.Commits[hash].StackBranch(); ok {
			lookups = append(lookups, &lookup{hash: hash, branch: branch})
		}
	}
	if len(lookups) == 0 {
		return repo
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.prLookups)
	for _, l := range lookups {
		g.Go(func() error {
			pr, err := s.platform.GetPRForBranch(gctx, l.branch)
			if err != nil {
				s.log.Warn().Err(err).Str("branch", l.branch).Msg("failed to look up PR")
				return nil
			}
			l.pr = pr
			return nil
		})
	}
	_ = g.Wait()

	b := model.Edit(repo)
	for _, l := range lookups {
		if l.pr == nil {
			continue
		}
		pr := l.pr.ForCommit(l.hash)
		b.Update(l.hash, func(c *model.Commit) *model.Commit { return c.WithPullRequest(pr) })
	}
	return b.Build()
}

// Rebase moves the subtree rooted at root onto target and reloads.
func (s *Stacker) Rebase(ctx context.Context, root, target model.CommitHash) error {
	return s.mutate(ctx, "rebase", func(ctx context.Context, repo *model.Repository) error {
		_, err := s.rebaser.Rebase(ctx, root, target, repo)
		return err
	})
}

// PROneCommit creates or updates the PR of a single commit and reloads.
func (s *Stacker) PROneCommit(ctx context.Context, commit model.CommitHash) error {
	return s.mutate(ctx, "pr-commit", func(ctx context.Context, repo *model.Repository) error {
		c, ok := repo.Commit(commit)
		if !ok {
			return &stack.AmbiguousOrMissingCommitError{Prefix: commit}
		}
		_, err := s.syncer.CreateOrUpdateStackPRs(ctx, []*model.Commit{c}, repo)
		return err
	})
}

// PRStack creates or updates PRs for commit and every commit above it, then reloads.
func (s *Stacker) PRStack(ctx context.Context, commit model.CommitHash) error {
	return s.mutate(ctx, "pr-stack", func(ctx context.Context, repo *model.Repository) error {
		commits := repo.Descendants(commit)
		if len(commits) == 0 {
			return &stack.AmbiguousOrMissingCommitError{Prefix: commit}
		}
		_, err := s.syncer.CreateOrUpdateStackPRs(ctx, commits, repo)
		return err
	})
}

// ResolveCommit resolves a hash prefix to a commit of the current snapshot.
func (s *Stacker) ResolveCommit(ctx context.Context, prefix string) (*model.Commit, error) {
	repo := s.Snapshot()
	if repo == nil {
		return nil, ErrNotReady
	}
	hash, err := s.vcs.LookupByHashPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	c, ok := repo.Commit(hash)
	if !ok {
		return nil, &stack.AmbiguousOrMissingCommitError{Prefix: prefix}
	}
	return c, nil
}

// mutate runs op against the current snapshot while holding the repository lock. A
// successful op is followed by a reload. A failed op leaves the Stacker in the error state
// until the reload that follows it succeeds.
func (s *Stacker) mutate(ctx context.Context, name string, op func(context.Context, *model.Repository) error) error {
	if !s.opMu.TryLock() {
		return ErrBusy
	}
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.state != StateReady || s.snapshot == nil {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("cannot %s while %s: %w", name, st, ErrNotReady)
	}
	repo := s.snapshot
	s.state = StateBusy
	s.mu.Unlock()

	if s.lock != nil {
		unlock, err := s.lock.Lock(ctx)
		if err != nil {
			s.setState(StateReady, nil)
			return err
		}
		defer unlock()
	}

	s.log.Debug().Str("op", name).Msg("starting operation")
	opErr := op(ctx, repo)
	if opErr != nil {
		s.setState(StateError, opErr)
		// Refs or PRs may have changed before the failure.
		if err := s.load(ctx); err != nil {
			return errors.Join(opErr, err)
		}
		return opErr
	}
	return s.load(ctx)
}

func (s *Stacker) setState(state State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	if err != nil {
		s.lastErr = err
	}
}

func (s *Stacker) publish(repo *model.Repository) {
	s.mu.Lock()
	s.snapshot = repo
	s.state = StateReady
	s.lastErr = nil
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener(repo)
	}
}
