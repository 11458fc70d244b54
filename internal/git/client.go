package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/rs/zerolog"
)

// Options configures a Client.
type Options struct {
	// PrivateKeyPath enables pushing over SSH with go-git using this key.
	// When empty, pushes go through the git CLI and its credential setup.
	PrivateKeyPath string
	Passphrase     string
	Logger         zerolog.Logger
}

// Client implements the version control side of sttack for one working copy.
type Client struct {
	gitRoot string
	gitDir  string
	repo    *gogit.Repository
	opts    Options
	log     zerolog.Logger

	// checkVersion guards commands that need a recent git CLI. It runs at most once.
	checkVersion func(ctx context.Context) error
	versionOnce  sync.Once
	versionErr   error
}

// NewClient creates a git client for the repository containing the current directory.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	return NewClientAt(ctx, ".", opts)
}

// NewClientAt creates a git client for the repository containing dir.
func NewClientAt(ctx context.Context, dir string, opts Options) (*Client, error) {
	gitRoot, err := GetGitRoot(ctx, dir)
	if err != nil {
		return nil, err
	}
	gitDir, err := GetGitDir(ctx, gitRoot)
	if err != nil {
		return nil, err
	}
	repo, err := gogit.PlainOpenWithOptions(gitRoot, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", gitRoot, err)
	}
	return &Client{gitRoot: gitRoot, gitDir: gitDir, repo: repo, opts: opts, log: opts.Logger, checkVersion: CheckVersion}, nil
}

// Path returns the root directory of the working copy.
func (c *Client) Path() string {
	return c.gitRoot
}

// GitDir returns the absolute path of the repository's git directory.
func (c *Client) GitDir() string {
	return c.gitDir
}

// requireVersion fails when the git CLI is too old for merge-tree based cherry-picks.
// Read-only operations never call it.
func (c *Client) requireVersion(ctx context.Context) error {
	c.versionOnce.Do(func() {
		c.versionErr = c.checkVersion(ctx)
	})
	return c.versionErr
}

// run executes git in the working copy and returns its trimmed stdout.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	return c.runWith(ctx, nil, nil, args...)
}

func (c *Client) runWith(ctx context.Context, env []string, stdin io.Reader, args ...string) (string, error) {
	return runGit(ctx, c.gitRoot, env, stdin, args...)
}

// GitError is a failed git invocation.
type GitError struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *GitError) Error() string {
	msg := fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	if out := strings.TrimSpace(e.Stderr); out != "" {
		msg += "\nOutput: " + out
	}
	return msg
}

func (e *GitError) Unwrap() error { return e.Err }

func runGit(ctx context.Context, dir string, env []string, stdin io.Reader, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	cmd.Stdin = stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		gerr := &GitError{Args: args, ExitCode: -1, Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			gerr.ExitCode = exitErr.ExitCode()
		}
		return stdout.String(), gerr
	}
	return strings.TrimSpace(stdout.String()), nil
}
