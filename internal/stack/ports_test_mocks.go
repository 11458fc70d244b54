package stack

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/taneliang/stack-attack/internal/model"
)

// MockCollaborationPlatform is a testify mock of CollaborationPlatform.
type MockCollaborationPlatform struct {
	mock.Mock
}

// GetPRForCommit implements CollaborationPlatform.
func (m *MockCollaborationPlatform) GetPRForCommit(ctx context.Context, hash model.CommitHash) (*model.PullRequestInfo, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PullRequestInfo), args.Error(1)
}

// GetPRForBranch implements CollaborationPlatform.
func (m *MockCollaborationPlatform) GetPRForBranch(ctx context.Context, branch model.BranchName) (*model.PullRequestInfo, error) {
	args := m.Called(ctx, branch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PullRequestInfo), args.Error(1)
}

// CreateOrUpdatePR implements CollaborationPlatform.
func (m *MockCollaborationPlatform) CreateOrUpdatePR(ctx context.Context, head, base model.BranchName, title string) (*model.PullRequestInfo, error) {
	args := m.Called(ctx, head, base, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PullRequestInfo), args.Error(1)
}

// UpdatePRDescription implements CollaborationPlatform.
func (m *MockCollaborationPlatform) UpdatePRDescription(ctx context.Context, number int, body string) error {
	args := m.Called(ctx, number, body)
	return args.Error(0)
}

// MoveCall records one FakeVersionControl.MoveBranch call.
type MoveCall struct {
	Branch model.BranchName
	To     model.CommitHash
	Detach bool
}

// FakeVersionControl is an in-memory VersionControl for tests.
//
// Cherry-picks produce new commits named "<commit>'<n>" so tests can predict hashes.
type FakeVersionControl struct {
	mu sync.Mutex

	RepoPath  string
	Commits   map[model.CommitHash]CommitInfo
	Branches  map[model.BranchName]model.CommitHash
	Remotes   map[model.RefName]model.CommitHash
	Head      model.BranchName
	HeadHash  model.CommitHash
	Dirty     bool
	Conflicts map[model.CommitHash]bool
	FailMove  map[model.BranchName]error
	FailPush  map[model.BranchName]error

	Picks   []string
	Moves   []MoveCall
	Created []model.BranchName
	Pushed  []model.BranchName
	Calls   int

	picked int
	clock  time.Time
}

// NewFakeVersionControl returns an empty fake repository.
func NewFakeVersionControl() *FakeVersionControl {
	return &FakeVersionControl{
		RepoPath:  "/fake/repo",
		Commits:   map[model.CommitHash]CommitInfo{},
		Branches:  map[model.BranchName]model.CommitHash{},
		Remotes:   map[model.RefName]model.CommitHash{},
		Conflicts: map[model.CommitHash]bool{},
		FailMove:  map[model.BranchName]error{},
		FailPush:  map[model.BranchName]error{},
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// AddCommit adds a commit with a timestamp later than every commit added before it.
func (f *FakeVersionControl) AddCommit(hash model.CommitHash, title string, parents ...model.CommitHash) *FakeVersionControl {
	f.clock = f.clock.Add(time.Minute)
	f.Commits[hash] = CommitInfo{
		Hash:         hash,
		Title:        title,
		Timestamp:    f.clock,
		Author:       model.CommitSignature{Name: "Test User", Email: "test@example.com"},
		Committer:    model.CommitSignature{Name: "Test User", Email: "test@example.com"},
		ParentHashes: parents,
	}
	return f
}

// SetBranch points a local branch at hash.
func (f *FakeVersionControl) SetBranch(name model.BranchName, hash model.CommitHash) *FakeVersionControl {
	f.Branches[name] = hash
	return f
}

// Checkout makes name the checked out branch.
func (f *FakeVersionControl) Checkout(name model.BranchName) *FakeVersionControl {
	f.Head = name
	f.HeadHash = f.Branches[name]
	return f
}

func (f *FakeVersionControl) Path() string { return f.RepoPath }

func (f *FakeVersionControl) Status(ctx context.Context) (RepoStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	return RepoStatus{HeadHash: f.HeadHash, HeadBranch: f.Head, HasUncommittedChanges: f.Dirty}, nil
}

func (f *FakeVersionControl) ListBranchesAndTips(ctx context.Context) ([]BranchTip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	var tips []BranchTip
	for name, hash := range f.Branches {
		tips = append(tips, BranchTip{Ref: model.BranchNameToLocalRef(name), Commit: f.Commits[hash]})
	}
	for ref, hash := range f.Remotes {
		tips = append(tips, BranchTip{Ref: ref, Commit: f.Commits[hash]})
	}
	sort.Slice(tips, func(i, j int) bool { return tips[i].Ref < tips[j].Ref })
	return tips, nil
}

func (f *FakeVersionControl) ReadCommit(ctx context.Context, hash model.CommitHash) (CommitInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	info, ok := f.Commits[hash]
	if !ok {
		return CommitInfo{}, fmt.Errorf("object %s not found", hash)
	}
	return info, nil
}

func (f *FakeVersionControl) MergeBase(ctx context.Context, a, b model.CommitHash) (model.CommitHash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	ancestors := map[model.CommitHash]bool{}
	for _, h := range f.ancestry(a) {
		ancestors[h] = true
	}
	for _, h := range f.ancestry(b) {
		if ancestors[h] {
			return h, nil
		}
	}
	return "", fmt.Errorf("no merge base between %s and %s", a, b)
}

// ancestry lists hash and its ancestors, nearest first.
func (f *FakeVersionControl) ancestry(hash model.CommitHash) []model.CommitHash {
	seen := map[model.CommitHash]bool{hash: true}
	order := []model.CommitHash{hash}
	for i := 0; i < len(order); i++ {
		for _, p := range f.Commits[order[i]].ParentHashes {
			if !seen[p] {
				seen[p] = true
				order = append(order, p)
			}
		}
	}
	return order
}

func (f *FakeVersionControl) CherryPick(ctx context.Context, commit, onto model.CommitHash) (model.CommitHash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Conflicts[commit] {
		return "", &ConflictError{Commit: commit, Onto: onto, Output: "CONFLICT (content): Merge conflict in file.txt"}
	}
	original, ok := f.Commits[commit]
	if !ok {
		return "", fmt.Errorf("object %s not found", commit)
	}
	f.picked++
	hash := fmt.Sprintf("%s'%d", commit, f.picked)
	f.clock = f.clock.Add(time.Minute)
	f.Commits[hash] = CommitInfo{
		Hash:         hash,
		Title:        original.Title,
		Timestamp:    f.clock,
		Author:       original.Author,
		Committer:    original.Committer,
		ParentHashes: []model.CommitHash{onto},
	}
	f.Picks = append(f.Picks, commit)
	return hash, nil
}

func (f *FakeVersionControl) MoveBranch(ctx context.Context, name model.BranchName, to model.CommitHash, detachIfCheckedOut bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	f.Moves = append(f.Moves, MoveCall{Branch: name, To: to, Detach: detachIfCheckedOut})
	if err, ok := f.FailMove[name]; ok {
		// Only the forward move fails so rollbacks can be observed.
		delete(f.FailMove, name)
		return err
	}
	if _, ok := f.Branches[name]; !ok {
		return fmt.Errorf("branch %s does not exist", name)
	}
	f.Branches[name] = to
	if f.Head == name {
		f.HeadHash = to
	}
	return nil
}

func (f *FakeVersionControl) CreateBranch(ctx context.Context, name model.BranchName, at model.CommitHash) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if _, ok := f.Branches[name]; ok {
		return fmt.Errorf("branch %s already exists", name)
	}
	f.Branches[name] = at
	f.Created = append(f.Created, name)
	return nil
}

func (f *FakeVersionControl) PushBranch(ctx context.Context, name model.BranchName, remote string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if err, ok := f.FailPush[name]; ok {
		return err
	}
	hash, ok := f.Branches[name]
	if !ok {
		return fmt.Errorf("branch %s does not exist", name)
	}
	f.Remotes[model.RemoteBranchRef(remote, name)] = hash
	f.Pushed = append(f.Pushed, name)
	return nil
}

func (f *FakeVersionControl) LookupByHashPrefix(ctx context.Context, prefix string) (model.CommitHash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	var matches []model.CommitHash
	for hash := range f.Commits {
		if strings.HasPrefix(hash, prefix) {
			matches = append(matches, hash)
		}
	}
	slices.Sort(matches)
	if len(matches) != 1 {
		return "", &AmbiguousOrMissingCommitError{Prefix: prefix, Matches: matches}
	}
	return matches[0], nil
}
