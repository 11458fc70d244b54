package git

import (
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/taneliang/stack-attack/internal/model"
	"github.com/taneliang/stack-attack/internal/stack"
)

// ParseTitle returns the first line of a commit message.
func ParseTitle(message string) string {
	title, _, _ := strings.Cut(strings.TrimLeft(message, "\n"), "\n")
	return strings.TrimSpace(title)
}

func toCommitInfo(c *object.Commit) stack.CommitInfo {
	parents := make([]model.CommitHash, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return stack.CommitInfo{
		Hash:         c.Hash.String(),
		Title:        ParseTitle(c.Message),
		Timestamp:    c.Committer.When,
		Author:       model.CommitSignature{Name: c.Author.Name, Email: c.Author.Email},
		Committer:    model.CommitSignature{Name: c.Committer.Name, Email: c.Committer.Email},
		ParentHashes: parents,
	}
}

// authorEnv makes git record sig as the author of a new commit.
func authorEnv(sig object.Signature) []string {
	return []string{
		"GIT_AUTHOR_NAME=" + sig.Name,
		"GIT_AUTHOR_EMAIL=" + sig.Email,
		"GIT_AUTHOR_DATE=" + formatGitDate(sig),
	}
}

func formatGitDate(sig object.Signature) string {
	return "@" + strconv.FormatInt(sig.When.Unix(), 10) + " " + sig.When.Format("-0700")
}
