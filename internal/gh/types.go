package gh

import (
	"github.com/google/go-github/v72/github"

	"github.com/taneliang/stack-attack/internal/model"
)

// toPullRequestInfo converts an API pull request. IsOutdated is computed later against the
// local commit.
func toPullRequestInfo(pr *github.PullRequest) *model.PullRequestInfo {
	return &model.PullRequestInfo{
		Number:      pr.GetNumber(),
		URL:         pr.GetHTMLURL(),
		Title:       pr.GetTitle(),
		Description: pr.GetBody(),
		HeadHash:    pr.GetHead().GetSHA(),
	}
}
