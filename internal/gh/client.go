package gh

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/exec"
	"strings"

	"github.com/google/go-github/v72/github"
	"github.com/rs/zerolog"

	"github.com/taneliang/stack-attack/internal/model"
	"github.com/taneliang/stack-attack/internal/stack"
)

var _ stack.CollaborationPlatform = (*Client)(nil)

// Options configures a Client.
type Options struct {
	Owner string
	Repo  string
	// Token authenticates API calls. When empty, `gh auth token` is asked for one.
	Token string
	// BaseURL overrides the API endpoint, e.g. for GitHub Enterprise.
	BaseURL string
	// NewPRBody is the description new PRs start with, typically the repository's PR template.
	NewPRBody string
	Logger    zerolog.Logger
}

// Client provides pull request operations via the GitHub REST API
type Client struct {
	api       *github.Client
	owner     string
	repo      string
	newPRBody string
	log       zerolog.Logger
}

// NewClient creates a new GitHub client
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.Owner == "" || opts.Repo == "" {
		return nil, fmt.Errorf("failed to create GitHub client: owner and repository are required")
	}

	token := opts.Token
	if token == "" {
		t, err := AuthToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("no GitHub token configured and %w", err)
		}
		token = t
	}

	api := github.NewClient(nil).WithAuthToken(token)
	if opts.BaseURL != "" {
		base, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse GitHub API URL %q: %w", opts.BaseURL, err)
		}
		if !strings.HasSuffix(base.Path, "/") {
			base.Path += "/"
		}
		api.BaseURL = base
	}

	return &Client{
		api:       api,
		owner:     opts.Owner,
		repo:      opts.Repo,
		newPRBody: opts.NewPRBody,
		log:       opts.Logger,
	}, nil
}

// GetPRForBranch returns the open PR whose head is branch, or nil if there is none.
func (c *Client) GetPRForBranch(ctx context.Context, branch model.BranchName) (*model.PullRequestInfo, error) {
	pr, err := c.openPRForHead(ctx, branch)
	if err != nil || pr == nil {
		return nil, err
	}
	return toPullRequestInfo(pr), nil
}

// GetPRForCommit returns the open PR associated with hash, or nil if there is none.
func (c *Client) GetPRForCommit(ctx context.Context, hash model.CommitHash) (*model.PullRequestInfo, error) {
	prs, resp, err := c.api.PullRequests.ListPullRequestsWithCommit(ctx, c.owner, c.repo, hash, &github.ListOptions{PerPage: 20})
	if err != nil {
		// GitHub answers 422 for commits it has never seen.
		if resp != nil && (resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list PRs for commit %s: %w", hash, err)
	}
	// Prefer the PR the commit is the head of.
	var fallback *github.PullRequest
	for _, pr := range prs {
		if pr.GetState() != "open" {
			continue
		}
		if pr.GetHead().GetSHA() == hash {
			return toPullRequestInfo(pr), nil
		}
		if fallback == nil {
			fallback = pr
		}
	}
	if fallback == nil {
		return nil, nil
	}
	return toPullRequestInfo(fallback), nil
}

// CreateOrUpdatePR creates a draft PR for head or retitles and rebases the existing one.
// The description of an existing PR is left alone.
func (c *Client) CreateOrUpdatePR(ctx context.Context, head, base model.BranchName, title string) (*model.PullRequestInfo, error) {
	existing, err := c.openPRForHead(ctx, head)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		pr, err := c.createPR(ctx, head, base, title)
		if err == nil {
			return toPullRequestInfo(pr), nil
		}
		// Auto-recover: the PR may have been opened since we looked
		if !isPRAlreadyExistsError(err) {
			return nil, err
		}
		existing, err = c.openPRForHead(ctx, head)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("PR for %s reportedly exists but was not found", head)
		}
	}
	return c.updatePR(ctx, existing, base, title)
}

// UpdatePRDescription replaces the description of a PR.
func (c *Client) UpdatePRDescription(ctx context.Context, number int, body string) error {
	_, _, err := c.api.PullRequests.Edit(ctx, c.owner, c.repo, number, &github.PullRequest{Body: github.Ptr(body)})
	if err != nil {
		return fmt.Errorf("failed to update description of PR #%d: %w", number, err)
	}
	c.log.Debug().Int("pr", number).Msg("updated PR description")
	return nil
}

func (c *Client) createPR(ctx context.Context, head, base model.BranchName, title string) (*github.PullRequest, error) {
	pr, _, err := c.api.PullRequests.Create(ctx, c.owner, c.repo, &github.NewPullRequest{
		Title: github.Ptr(title),
		Head:  github.Ptr(head),
		Base:  github.Ptr(base),
		Body:  github.Ptr(c.newPRBody),
		Draft: github.Ptr(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create PR for %s: %w", head, err)
	}
	c.log.Debug().Int("pr", pr.GetNumber()).Str("head", head).Str("base", base).Msg("created PR")
	return pr, nil
}

func (c *Client) updatePR(ctx context.Context, pr *github.PullRequest, base model.BranchName, title string) (*model.PullRequestInfo, error) {
	if pr.GetTitle() == title && pr.GetBase().GetRef() == base {
		return toPullRequestInfo(pr), nil
	}
	updated, _, err := c.api.PullRequests.Edit(ctx, c.owner, c.repo, pr.GetNumber(), &github.PullRequest{
		Title: github.Ptr(title),
		Base:  &github.PullRequestBranch{Ref: github.Ptr(base)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update PR #%d: %w", pr.GetNumber(), err)
	}
	c.log.Debug().Int("pr", updated.GetNumber()).Str("base", base).Msg("updated PR")
	return toPullRequestInfo(updated), nil
}

// openPRForHead finds the open PR by head branch name (private helper)
func (c *Client) openPRForHead(ctx context.Context, head model.BranchName) (*github.PullRequest, error) {
	prs, _, err := c.api.PullRequests.List(ctx, c.owner, c.repo, &github.PullRequestListOptions{
		Head:        c.owner + ":" + head,
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list PRs for %s: %w", head, err)
	}
	if len(prs) == 0 {
		return nil, nil
	}
	return prs[0], nil
}

// isPRAlreadyExistsError checks if error indicates PR already exists (private helper)
func isPRAlreadyExistsError(err error) bool {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		for _, e := range ghErr.Errors {
			if strings.Contains(e.Message, "already exists") {
				return true
			}
		}
	}
	return strings.Contains(err.Error(), "already exists")
}

// AuthToken asks the gh CLI for the token of the logged in user.
func AuthToken(ctx context.Context) (string, error) {
	output, err := execGH(ctx, "auth", "token")
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(output))
	if token == "" {
		return "", fmt.Errorf("gh CLI returned an empty token")
	}
	return token, nil
}

// execGH executes a gh CLI command and returns the output
func execGH(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("gh CLI error: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("failed to execute gh: %w", err)
	}
	return output, nil
}
