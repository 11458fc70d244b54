package git

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/taneliang/stack-attack/internal/model"
)

// prTemplateLocations lists GitHub PR template locations in order of precedence.
var prTemplateLocations = []string{
	".github/PULL_REQUEST_TEMPLATE.md",
	".github/pull_request_template.md",
	"docs/pull_request_template.md",
	"docs/PULL_REQUEST_TEMPLATE.md",
	"PULL_REQUEST_TEMPLATE.md",
	"pull_request_template.md",
}

// prTemplateDir holds multiple templates; the first markdown file is used.
const prTemplateDir = ".github/PULL_REQUEST_TEMPLATE"

// FindPRTemplate returns the pull request template committed on branch, falling back to
// HEAD when branch is empty or missing. Returns "" when there is no template.
func (c *Client) FindPRTemplate(branch model.BranchName) (string, error) {
	tree, err := c.templateTree(branch)
	if err != nil || tree == nil {
		return "", err
	}

	for _, location := range prTemplateLocations {
		content, err := fileContents(tree, location)
		if err != nil {
			return "", err
		}
		if content != "" {
			c.log.Debug().Str("path", location).Msg("using PR template")
			return content, nil
		}
	}

	dir, err := tree.Tree(prTemplateDir)
	if errors.Is(err, object.ErrDirectoryNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", prTemplateDir, err)
	}
	// Tree entries are sorted by name.
	for _, entry := range dir.Entries {
		if entry.Mode.IsFile() && strings.EqualFold(path.Ext(entry.Name), ".md") {
			location := path.Join(prTemplateDir, entry.Name)
			c.log.Debug().Str("path", location).Msg("using PR template")
			return fileContents(tree, location)
		}
	}
	return "", nil
}

func (c *Client) templateTree(branch model.BranchName) (*object.Tree, error) {
	var hash plumbing.Hash
	if branch != "" {
		if ref, err := c.repo.Reference(plumbing.NewBranchReferenceName(branch), true); err == nil {
			hash = ref.Hash()
		}
	}
	if hash.IsZero() {
		head, err := c.repo.Head()
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			// Unborn HEAD: nothing committed yet.
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
		}
		hash = head.Hash()
	}
	commit, err := c.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to read commit %s: %w", hash, err)
	}
	return commit.Tree()
}

func fileContents(tree *object.Tree, name string) (string, error) {
	f, err := tree.File(name)
	if errors.Is(err, object.ErrFileNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return f.Contents()
}
