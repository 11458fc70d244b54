package interactive

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/taneliang/stack-attack/cmd/prcommit"
	"github.com/taneliang/stack-attack/cmd/prstack"
	"github.com/taneliang/stack-attack/cmd/rebase"
	"github.com/taneliang/stack-attack/internal/common"
	"github.com/taneliang/stack-attack/internal/model"
	"github.com/taneliang/stack-attack/internal/stack"
	"github.com/taneliang/stack-attack/internal/stacker"
	"github.com/taneliang/stack-attack/internal/ui"
)

const (
	actionRebase = iota
	actionPRCommit
	actionPRStack
	actionQuit
)

var actions = []ui.Action{
	actionRebase:   {Name: "Rebase onto...", Description: "Move this commit and everything above it onto another commit."},
	actionPRCommit: {Name: "Create or update PR", Description: "Push this commit's branch and create or update its PR."},
	actionPRStack:  {Name: "Create or update PRs for the stack", Description: "Do the same for this commit and every commit above it."},
	actionQuit:     {Name: "Quit", Description: "Leave interactive mode."},
}

// Command picks commits and actions with a fuzzy finder until the user quits
type Command struct {
	Options *common.Options

	// Clients (can be mocked in tests)
	Stacker *stacker.Stacker

	// Prompts (can be replaced in tests)
	SelectCommit func(prompt string, commits []*model.Commit) (*model.Commit, error)
	SelectAction func(prompt string, actions []ui.Action) (int, error)
	Confirm      func(prompt string) bool
}

// Register registers the command with cobra
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"i"},
		Short:   "Pick commits and actions interactively",
		Long: `Show the repository, then pick a commit and what to do with it: rebase it
onto another commit, or create or update its PR or the PRs of its stack.

Press Esc in the commit picker to quit.

Example:
  sttack interactive`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !ui.IsInteractive() {
				return errors.New("interactive mode needs a terminal")
			}
			env, err := common.InitAndLoad(cmd.Context(), *c.Options)
			if err != nil {
				return err
			}
			c.Stacker = env.Stacker
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Run(cmd.Context())
		},
	}

	parent.AddCommand(cmd)
}

// Run executes the command
func (c *Command) Run(ctx context.Context) error {
	c.setDefaults()

	for {
		repo := c.Stacker.Snapshot()
		if repo == nil {
			return stacker.ErrNotReady
		}
		ui.Println(ui.RenderRepository(repo))

		commit, err := c.SelectCommit("commit", newestFirst(repo))
		if err != nil {
			return err
		}
		if commit == nil {
			return nil
		}

		idx, err := c.SelectAction(fmt.Sprintf("%s %s", ui.ShortHash(commit.Hash), commit.Title), actions)
		if err != nil {
			return err
		}

		var actionErr error
		switch idx {
		case actionRebase:
			actionErr = c.rebase(ctx, repo, commit)
		case actionPRCommit:
			actionErr = (&prcommit.Command{Commit: commit.Hash, Stacker: c.Stacker}).Run(ctx)
		case actionPRStack:
			n := len(repo.Descendants(commit.Hash))
			if !c.Confirm(fmt.Sprintf("Push %d commits and update their PRs?", n)) {
				ui.Infof("Skipped pushing %d commits", n)
				continue
			}
			actionErr = (&prstack.Command{Commit: commit.Hash, Stacker: c.Stacker}).Run(ctx)
		case actionQuit:
			return nil
		}

		// Failed actions are reported and the loop goes on with the reloaded snapshot.
		switch {
		case stack.IsPrecondition(actionErr):
			ui.Warning(actionErr.Error())
		case actionErr != nil:
			ui.Errorf("%s failed: %v", actions[idx].Name, actionErr)
		}
	}
}

func (c *Command) rebase(ctx context.Context, repo *model.Repository, root *model.Commit) error {
	// Commits being moved cannot be targets.
	targets := slices.DeleteFunc(newestFirst(repo), func(x *model.Commit) bool { return repo.IsAncestor(root.Hash, x.Hash) })

	target, err := c.SelectCommit("rebase onto", targets)
	if err != nil || target == nil {
		return err
	}
	return (&rebase.Command{Root: root.Hash, Target: target.Hash, Stacker: c.Stacker}).Run(ctx)
}

func (c *Command) setDefaults() {
	if c.SelectCommit == nil {
		c.SelectCommit = ui.SelectCommit
	}
	if c.SelectAction == nil {
		c.SelectAction = ui.SelectAction
	}
	if c.Confirm == nil {
		c.Confirm = ui.Confirm
	}
}

// newestFirst lists the commits of repo by descending timestamp.
func newestFirst(repo *model.Repository) []*model.Commit {
	hashes := repo.SortedHashes()
	commits := make([]*model.Commit, 0, len(hashes))
	for i := len(hashes) - 1; i >= 0; i-- {
		commits = append(commits, repo.Commits[hashes[i]])
	}
	return commits
}
