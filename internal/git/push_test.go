package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOwnerAndRepo(t *testing.T) {
	tests := []struct {
		url   string
		owner string
		repo  string
	}{
		{url: "git@github.com:taneliang/stack-attack.git", owner: "taneliang", repo: "stack-attack"},
		{url: "git@github.com:taneliang/stack-attack", owner: "taneliang", repo: "stack-attack"},
		{url: "https://github.com/taneliang/stack-attack.git", owner: "taneliang", repo: "stack-attack"},
		{url: "https://github.com/taneliang/stack-attack/", owner: "taneliang", repo: "stack-attack"},
		{url: "ssh://git@github.com/taneliang/stack-attack.git", owner: "taneliang", repo: "stack-attack"},
		{url: "github.com:taneliang/stack-attack", owner: "taneliang", repo: "stack-attack"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			owner, repo, err := ParseOwnerAndRepo(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.repo, repo)
		})
	}
}

func TestParseOwnerAndRepo_Invalid(t *testing.T) {
	for _, url := range []string{"", "/local/path/repo", "https://github.com/only-owner", "git@github.com:a/b/c.git"} {
		_, _, err := ParseOwnerAndRepo(url)
		assert.Error(t, err, url)
	}
}

func TestParseVersion(t *testing.T) {
	major, minor, err := parseVersion("git version 2.43.0")
	require.NoError(t, err)
	assert.Equal(t, 2, major)
	assert.Equal(t, 43, minor)

	major, minor, err = parseVersion("git version 2.39.3 (Apple Git-146)")
	require.NoError(t, err)
	assert.Equal(t, 2, major)
	assert.Equal(t, 39, minor)

	_, _, err = parseVersion("nonsense")
	assert.Error(t, err)
}

func TestParseTitle(t *testing.T) {
	assert.Equal(t, "Add feature", ParseTitle("Add feature\n\nLonger body\n"))
	assert.Equal(t, "Single line", ParseTitle("Single line"))
	assert.Equal(t, "Leading newline", ParseTitle("\nLeading newline\n"))
	assert.Empty(t, ParseTitle(""))
}
