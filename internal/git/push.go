package git

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/taneliang/stack-attack/internal/model"
)

// PushBranch force-pushes a local branch to the branch of the same name on remote.
func (c *Client) PushBranch(ctx context.Context, name model.BranchName, remote string) error {
	ref := plumbing.NewBranchReferenceName(name)
	if c.opts.PrivateKeyPath == "" {
		out, err := c.run(ctx, "push", "--force", "--quiet", remote, fmt.Sprintf("%s:%s", ref, ref))
		if err != nil {
			return fmt.Errorf("failed to push branch %s: %w\nOutput: %s", name, err, out)
		}
		c.log.Debug().Str("branch", name).Str("remote", remote).Msg("pushed branch with git")
		return nil
	}

	auth, err := ssh.NewPublicKeysFromFile("git", c.opts.PrivateKeyPath, c.opts.Passphrase)
	if err != nil {
		return fmt.Errorf("failed to load SSH key %s: %w", c.opts.PrivateKeyPath, err)
	}
	err = c.repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: remote,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(fmt.Sprintf("+%s:%s", ref, ref))},
		Auth:       auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push branch %s: %w", name, err)
	}
	c.log.Debug().Str("branch", name).Str("remote", remote).Msg("pushed branch over SSH")
	return nil
}

// RemoteURL returns the first URL configured for remote.
func (c *Client) RemoteURL(remote string) (string, error) {
	r, err := c.repo.Remote(remote)
	if err != nil {
		return "", fmt.Errorf("failed to find remote %s: %w", remote, err)
	}
	urls := r.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", remote)
	}
	return urls[0], nil
}

// OwnerAndRepo returns the GitHub owner and repository name of remote.
func (c *Client) OwnerAndRepo(remote string) (string, string, error) {
	remoteURL, err := c.RemoteURL(remote)
	if err != nil {
		return "", "", err
	}
	return ParseOwnerAndRepo(remoteURL)
}

// ParseOwnerAndRepo extracts owner and repository from remote URLs such as
// git@github.com:owner/repo.git, ssh://git@github.com/owner/repo and
// https://github.com/owner/repo.git.
func ParseOwnerAndRepo(remoteURL string) (string, string, error) {
	var path string
	if u, err := url.Parse(remoteURL); err == nil && u.Scheme != "" && u.Host != "" {
		path = u.Path
	} else if _, after, ok := strings.Cut(remoteURL, ":"); ok && !strings.Contains(remoteURL, "://") {
		// scp-like syntax: [user@]host:path
		path = after
	} else {
		return "", "", fmt.Errorf("failed to parse remote URL %q", remoteURL)
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("remote URL %q does not point at an owner/repo", remoteURL)
	}
	return parts[0], parts[1], nil
}
