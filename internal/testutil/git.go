package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRepo is a throwaway git repository.
type TestRepo struct {
	t   *testing.T
	Dir string
	n   int
}

// RequireGit skips the test unless a git CLI with merge-tree --write-tree --merge-base is available.
func RequireGit(t *testing.T) {
	t.Helper()
	out, err := exec.Command("git", "version").Output()
	if err != nil {
		t.Skip("git is not installed")
	}
	fields := strings.Fields(string(out))
	if len(fields) < 3 {
		t.Skipf("unexpected git version output %q", out)
	}
	parts := strings.SplitN(fields[2], ".", 3)
	major, _ := strconv.Atoi(parts[0])
	minor := 0
	if len(parts) > 1 {
		minor, _ = strconv.Atoi(parts[1])
	}
	if major < 2 || (major == 2 && minor < 40) {
		t.Skipf("git %s is older than 2.40", fields[2])
	}
}

// NewTestRepo creates a repository in a temporary directory with an initial commit on main
func NewTestRepo(t *testing.T) *TestRepo {
	t.Helper()
	RequireGit(t)

	r := &TestRepo{t: t, Dir: t.TempDir()}
	r.Git("init", "--initial-branch=main")
	// Set user name and email for reproducible commits
	r.Git("config", "user.email", "test@example.com")
	r.Git("config", "user.name", "Test User")
	r.Git("config", "commit.gpgsign", "false")
	r.Commit("Initial commit")
	return r
}

// Git runs git in the repository and returns its trimmed output.
func (r *TestRepo) Git(args ...string) string {
	r.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	date := fmt.Sprintf("2024-01-01T00:%02d:00Z", r.n%60)
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_DATE="+date,
		"GIT_COMMITTER_DATE="+date,
		"GIT_CONFIG_NOSYSTEM=1",
	)
	output, err := cmd.CombinedOutput()
	require.NoError(r.t, err, "git %s failed: %s", strings.Join(args, " "), string(output))
	return strings.TrimSpace(string(output))
}

// Commit writes a file named after title and commits it on the current branch.
func (r *TestRepo) Commit(title string) string {
	r.t.Helper()
	return r.CommitFile(fmt.Sprintf("file-%s.txt", strings.ReplaceAll(title, " ", "-")), title+"\n", title)
}

// CommitFile writes content to name and commits it with title.
func (r *TestRepo) CommitFile(name, content, title string) string {
	r.t.Helper()
	r.n++
	path := filepath.Join(r.Dir, name)
	require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(r.t, os.WriteFile(path, []byte(content), 0o644))
	r.Git("add", ".")
	r.Git("commit", "--quiet", "-m", title)
	return r.Git("rev-parse", "HEAD")
}

// RevParse resolves a revision.
func (r *TestRepo) RevParse(rev string) string {
	r.t.Helper()
	return r.Git("rev-parse", rev)
}
