package model

// PullRequestInfo is what the hosting platform knows about the PR driven by a commit's branch.
type PullRequestInfo struct {
	Number      int    `json:"number"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`

	// HeadHash is the PR's head SHA on the remote.
	HeadHash CommitHash `json:"head_hash"`

	// IsOutdated is true when HeadHash differs from the local commit driving the PR.
	IsOutdated bool `json:"is_outdated"`

	// Dependencies lists the PR numbers this PR is stacked on, nearest last.
	Dependencies []int `json:"dependencies,omitempty"`
}

// ForCommit returns a copy of p with IsOutdated computed against the local commit hash.
func (p *PullRequestInfo) ForCommit(hash CommitHash) *PullRequestInfo {
	cp := *p
	cp.IsOutdated = p.HeadHash != "" && p.HeadHash != hash
	return &cp
}
