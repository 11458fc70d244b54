package prcommit

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/taneliang/stack-attack/internal/common"
	"github.com/taneliang/stack-attack/internal/stacker"
	"github.com/taneliang/stack-attack/internal/ui"
)

// Command creates or updates the PR of one commit
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
		Use:   "pr-commit <commit>",
		Short: "Create or update the PR of a single commit",
		Long: `Give the commit a stack branch if it has none, push it and create or update
its pull request. The PR is based on the branch of the commit below it, or on the
target branch. New PRs are opened as drafts.

Afterwards the descriptions of every PR in the same stack are updated to list
the stack.

Example:
  sttack pr-commit 1a2b3c`,
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

	if err := c.Stacker.PROneCommit(ctx, commit.Hash); err != nil {
		return err
	}

	if updated, ok := c.Stacker.Snapshot().Commit(commit.Hash); ok && updated.PullRequestInfo != nil {
		pr := updated.PullRequestInfo
		ui.Successf("PR #%d %s", pr.Number, pr.URL)
		return nil
	}
	ui.Successf("Pushed %s %s", ui.ShortHash(commit.Hash), commit.Title)
	return nil
}
