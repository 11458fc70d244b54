package show

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taneliang/stack-attack/internal/common"
	"github.com/taneliang/stack-attack/internal/stacker"
	"github.com/taneliang/stack-attack/internal/ui"
)

// Command prints the current snapshot of the repository
type Command struct {
	Options *common.Options

	// Flags
	JSON bool

	// Clients (can be mocked in tests)
	Stacker *stacker.Stacker
}

// Register registers the command with cobra
func (c *Command) Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show commits, branches and PRs",
		Long: `Show the commit graph from the oldest commit any branch is based on up to
every branch tip, with branch names, PR numbers and the HEAD marker.

Runs of commits without branches or PRs are folded.

Example:
  sttack show
  sttack show --json`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
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

	cmd.Flags().BoolVar(&c.JSON, "json", false, "print the snapshot as JSON")
	parent.AddCommand(cmd)
}

// Run executes the command
func (c *Command) Run(ctx context.Context) error {
	repo := c.Stacker.Snapshot()
	if repo == nil {
		return stacker.ErrNotReady
	}

	if c.JSON {
		data, err := json.MarshalIndent(repo, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
		ui.Println(string(data))
		return nil
	}

	ui.Println(ui.RenderRepository(repo))
	return nil
}
