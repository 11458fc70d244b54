package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taneliang/stack-attack/internal/stack"
	"github.com/taneliang/stack-attack/internal/testutil"
)

func newTestClient(t *testing.T) (*testutil.TestRepo, *Client) {
	t.Helper()
	repo := testutil.NewTestRepo(t)
	client, err := NewClientAt(context.Background(), repo.Dir, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	return repo, client
}

func TestNewClientAt_FindsRootFromSubdirectory(t *testing.T) {
	repo := testutil.NewTestRepo(t)
	sub := filepath.Join(repo.Dir, "nested", "dir")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	client, err := NewClientAt(context.Background(), sub, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)

	root, err := filepath.EvalSymlinks(repo.Dir)
	require.NoError(t, err)
	gotRoot, err := filepath.EvalSymlinks(client.Path())
	require.NoError(t, err)
	assert.Equal(t, root, gotRoot)
	assert.Equal(t, ".git", filepath.Base(client.GitDir()))
}

func TestNewClientAt_NotARepository(t *testing.T) {
	testutil.RequireGit(t)

	_, err := NewClientAt(context.Background(), t.TempDir(), Options{Logger: zerolog.Nop()})
	assert.Error(t, err)
}

func TestListBranchesAndTipsAndStatus(t *testing.T) {
	repo, client := newTestClient(t)
	initial := repo.RevParse("HEAD")
	repo.Git("checkout", "--quiet", "-b", "feature")
	feature := repo.Commit("Add feature")

	tips, err := client.ListBranchesAndTips(context.Background())
	require.NoError(t, err)
	require.Len(t, tips, 2)
	assert.Equal(t, "refs/heads/feature", tips[0].Ref)
	assert.Equal(t, feature, tips[0].Commit.Hash)
	assert.Equal(t, "Add feature", tips[0].Commit.Title)
	assert.Equal(t, []string{initial}, tips[0].Commit.ParentHashes)
	assert.Equal(t, "Test User", tips[0].Commit.Author.Name)
	assert.Equal(t, "refs/heads/main", tips[1].Ref)

	status, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, feature, status.HeadHash)
	assert.Equal(t, "feature", status.HeadBranch)
	assert.False(t, status.HasUncommittedChanges)

	require.NoError(t, os.WriteFile(filepath.Join(repo.Dir, "file-Add-feature.txt"), []byte("changed\n"), 0o644))
	status, err = client.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.HasUncommittedChanges)

	repo.Git("checkout", "--quiet", "--", "file-Add-feature.txt")
	repo.Git("checkout", "--quiet", "--detach", initial)
	status, err = client.Status(context.Background())
	require.NoError(t, err)
	assert.Empty(t, status.HeadBranch)
}

func TestMergeBase(t *testing.T) {
	repo, client := newTestClient(t)
	base := repo.RevParse("HEAD")
	repo.Git("checkout", "--quiet", "-b", "left")
	left := repo.Commit("Left")
	repo.Git("checkout", "--quiet", "main")
	right := repo.Commit("Right")

	got, err := client.MergeBase(context.Background(), left, right)
	require.NoError(t, err)
	assert.Equal(t, base, got)
}

func TestCherryPick_Clean(t *testing.T) {
	repo, client := newTestClient(t)
	repo.Git("checkout", "--quiet", "-b", "a")
	a := repo.Commit("Change A")
	repo.Git("checkout", "--quiet", "main")
	repo.Git("checkout", "--quiet", "-b", "b")
	b := repo.Commit("Change B")
	repo.Git("checkout", "--quiet", "main")
	head := repo.RevParse("HEAD")

	picked, err := client.CherryPick(context.Background(), a, b)
	require.NoError(t, err)

	info, err := client.ReadCommit(context.Background(), picked)
	require.NoError(t, err)
	assert.Equal(t, "Change A", info.Title)
	assert.Equal(t, []string{b}, info.ParentHashes)
	assert.Equal(t, "test@example.com", info.Author.Email)

	files := repo.Git("ls-tree", "--name-only", picked)
	assert.Contains(t, files, "file-Change-A.txt")
	assert.Contains(t, files, "file-Change-B.txt")

	// Nothing outside the object store moved.
	assert.Equal(t, head, repo.RevParse("HEAD"))
	assert.Equal(t, a, repo.RevParse("a"))
	assert.Equal(t, b, repo.RevParse("b"))
	assert.Empty(t, repo.Git("status", "--porcelain"))
}

func TestCherryPick_Conflict(t *testing.T) {
	repo, client := newTestClient(t)
	repo.Git("checkout", "--quiet", "-b", "a")
	a := repo.CommitFile("shared.txt", "from a\n", "Edit shared in A")
	repo.Git("checkout", "--quiet", "main")
	repo.Git("checkout", "--quiet", "-b", "b")
	b := repo.CommitFile("shared.txt", "from b\n", "Edit shared in B")

	_, err := client.CherryPick(context.Background(), a, b)

	var conflict *stack.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, a, conflict.Commit)
	assert.Contains(t, conflict.Output, "shared.txt")
	assert.Empty(t, repo.Git("status", "--porcelain"))
}

func TestCherryPick_RequiresRecentGit(t *testing.T) {
	repo, client := newTestClient(t)
	repo.Git("checkout", "--quiet", "-b", "a")
	a := repo.Commit("Change A")
	repo.Git("checkout", "--quiet", "main")

	tooOld := errors.New("git 2.30 is too old")
	checks := 0
	client.checkVersion = func(context.Context) error {
		checks++
		return tooOld
	}

	_, err := client.CherryPick(context.Background(), a, repo.RevParse("main"))
	assert.ErrorIs(t, err, tooOld)
	_, err = client.CherryPick(context.Background(), a, repo.RevParse("main"))
	assert.ErrorIs(t, err, tooOld)
	assert.Equal(t, 1, checks, "the version is checked once")

	// Reads do not depend on the git version.
	_, err = client.ListBranchesAndTips(context.Background())
	assert.NoError(t, err)
	_, err = client.Status(context.Background())
	assert.NoError(t, err)
}

func TestCreateAndMoveBranch(t *testing.T) {
	repo, client := newTestClient(t)
	initial := repo.RevParse("HEAD")
	second := repo.Commit("Second")

	require.NoError(t, client.CreateBranch(context.Background(), "stack-attack/test", initial))
	assert.Equal(t, initial, repo.RevParse("stack-attack/test"))
	assert.Error(t, client.CreateBranch(context.Background(), "stack-attack/test", second))
	assert.True(t, client.HasBranch("stack-attack/test"))
	assert.False(t, client.HasBranch("stack-attack/other"))

	require.NoError(t, client.MoveBranch(context.Background(), "stack-attack/test", second, false))
	assert.Equal(t, second, repo.RevParse("stack-attack/test"))

	assert.Error(t, client.MoveBranch(context.Background(), "missing", second, false))
}

func TestMoveBranch_CheckedOut(t *testing.T) {
	repo, client := newTestClient(t)
	repo.Git("checkout", "--quiet", "-b", "other")
	other := repo.Commit("Other work")
	repo.Git("checkout", "--quiet", "main")

	require.NoError(t, client.MoveBranch(context.Background(), "main", other, true))

	assert.Equal(t, other, repo.RevParse("main"))
	assert.Equal(t, "main", repo.Git("rev-parse", "--abbrev-ref", "HEAD"))
	assert.Empty(t, repo.Git("status", "--porcelain"))
	_, err := os.Stat(filepath.Join(repo.Dir, "file-Other-work.txt"))
	assert.NoError(t, err, "working copy follows the moved branch")
}

func TestLookupByHashPrefix(t *testing.T) {
	repo, client := newTestClient(t)
	second := repo.Commit("Second")

	got, err := client.LookupByHashPrefix(context.Background(), second[:10])
	require.NoError(t, err)
	assert.Equal(t, second, got)

	got, err = client.LookupByHashPrefix(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	for _, prefix := range []string{"", "not-hex", "0000000000000000000000000000000000000000"} {
		_, err := client.LookupByHashPrefix(context.Background(), prefix)
		var missing *stack.AmbiguousOrMissingCommitError
		assert.ErrorAs(t, err, &missing, "prefix %q", prefix)
	}
}

func TestPushBranch_WithCLI(t *testing.T) {
	repo, client := newTestClient(t)
	remote := t.TempDir()
	repo.Git("init", "--quiet", "--bare", remote)
	repo.Git("remote", "add", "origin", remote)
	head := repo.RevParse("HEAD")
	require.NoError(t, client.CreateBranch(context.Background(), "stack-attack/pushed", head))

	require.NoError(t, client.PushBranch(context.Background(), "stack-attack/pushed", "origin"))

	assert.Equal(t, head, repo.Git("--git-dir", remote, "rev-parse", "refs/heads/stack-attack/pushed"))

	url, err := client.RemoteURL("origin")
	require.NoError(t, err)
	assert.Equal(t, remote, url)
}

func TestRebaseEngineOnRealRepository(t *testing.T) {
	repo, client := newTestClient(t)
	repo.Git("checkout", "--quiet", "-b", "feature")
	one := repo.Commit("Feature one")
	repo.Commit("Feature two")
	repo.Git("checkout", "--quiet", "main")
	upstream := repo.Commit("Upstream")
	repo.Git("checkout", "--quiet", "feature")

	log := zerolog.Nop()
	graph := stack.NewGraphBuilder(client, stack.NewMergeBaseResolver(client, "origin", log), log)
	snapshot, err := graph.Build(context.Background())
	require.NoError(t, err)

	_, err = stack.NewRebaseEngine(client, log).Rebase(context.Background(), one, upstream, snapshot)
	require.NoError(t, err)

	assert.Equal(t, upstream, repo.RevParse("feature~2"))
	assert.Equal(t, "Feature two", repo.Git("log", "-1", "--format=%s", "feature"))
	assert.Equal(t, "feature", repo.Git("rev-parse", "--abbrev-ref", "HEAD"))
	assert.Empty(t, repo.Git("status", "--porcelain"))
}
