package prstack

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taneliang/stack-attack/internal/common"
	"github.com/taneliang/stack-attack/internal/stacker"
	"github.com/taneliang/stack-attack/internal/ui"
)

// Command creates or updates PRs for a commit and every commit above it
type Command struct {
	Options *common.Options

	// Arguments
	Commit string

	// Clients (can be mocked in tests)
	Stacker *stacker.Stacker
}

// Register registers the command with cobra
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "pr-stack <commit>",
		Short: "Create or update PRs for a commit and its descendants",
		Long: `Run pr-commit for the commit and every commit above it. Each PR is based on
the branch of the commit below it, so the PRs review as a stack.

If one commit fails, the others are still attempted and all failures are
reported at the end.

Example:
  sttack pr-stack 1a2b3c`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			env, err := common.InitAndLoad(cmd.Context(), *c.Options)
			if err != nil {
				return err
			}
			c.Stacker = env.Stacker
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Commit = args[0]
			return c.Run(cmd.Context())
		},
	}

	parent.AddCommand(cmd)
}

// Run executes the command
func (c *Command) Run(ctx context.Context) error {
	commit, err := c.Stacker.ResolveCommit(ctx, c.Commit)
	if err != nil {
		return err
	}

	if err := c.Stacker.PRStack(ctx, commit.Hash); err != nil {
		return err
	}

	repo := c.Stacker.Snapshot()
	descendants := repo.Descendants(commit.Hash)
	if len(descendants) == 1 {
		ui.Success("Synced 1 commit")
	} else {
		ui.Successf("Synced %d commits", len(descendants))
	}
	for _, d := range descendants {
		line := fmt.Sprintf("  %s %s", ui.ShortHash(d.Hash), d.Title)
		if pr := d.PullRequestInfo; pr != nil {
			line += " " + ui.Highlight(fmt.Sprintf("#%d", pr.Number)) + " " + ui.Dim(pr.URL)
		}
		ui.Println(line)
	}
	return nil
}
