package rebase

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/taneliang/stack-attack/internal/common"
	"github.com/taneliang/stack-attack/internal/model"
	"github.com/taneliang/stack-attack/internal/stack"
	"github.com/taneliang/stack-attack/internal/stacker"
	"github.com/taneliang/stack-attack/internal/ui"
)

// Command moves a commit and everything above it onto another commit
type Command struct {
	Options *common.Options

	// Arguments
	Root   string
	Target string

	// Clients (can be mocked in tests)
	Stacker *stacker.Stacker
}

// Register registers the command with cobra
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "rebase <root> <target>",
		Short: "Rebase a commit and its descendants onto another commit",
		Long: `Replay root and every commit above it onto target, then move the branches
that pointed at the old commits to their replayed versions.

Nothing is moved if any commit fails to replay cleanly. Merge commits are not
supported. Both commits may be given as hash prefixes.

Example:
  sttack rebase 1a2b3c main-tip-hash`,
		Args: cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			env, err := common.InitAndLoad(cmd.Context(), *c.Options)
			if err != nil {
				return err
			}
			c.Stacker = env.Stacker
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Root, c.Target = args[0], args[1]
			return c.Run(cmd.Context())
		},
	}

	parent.AddCommand(cmd)
}

// Run executes the command
func (c *Command) Run(ctx context.Context) error {
	root, err := c.Stacker.ResolveCommit(ctx, c.Root)
	if err != nil {
		return err
	}
	target, err := c.Stacker.ResolveCommit(ctx, c.Target)
	if err != nil {
		return err
	}

	if slices.Equal(root.ParentHashes, []model.CommitHash{target.Hash}) {
		ui.Infof("%s is already based on %s", ui.ShortHash(root.Hash), ui.ShortHash(target.Hash))
		return nil
	}

	count := len(c.Stacker.Snapshot().Descendants(root.Hash))
	if err := c.Stacker.Rebase(ctx, root.Hash, target.Hash); err != nil {
		var conflict *stack.ConflictError
		if errors.As(err, &conflict) {
			ui.Warningf("No branches were moved: %s does not apply cleanly onto %s. Resolve the conflict with git and try again.",
				ui.ShortHash(conflict.Commit), ui.ShortHash(conflict.Onto))
		}
		return err
	}

	ui.Successf("Rebased %d %s onto %s %s", count, plural(count, "commit"), ui.ShortHash(target.Hash), target.Title)
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return fmt.Sprintf("%ss", word)
}
