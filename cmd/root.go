package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/taneliang/stack-attack/cmd/interactive"
	"github.com/taneliang/stack-attack/cmd/prcommit"
	"github.com/taneliang/stack-attack/cmd/prstack"
	"github.com/taneliang/stack-attack/cmd/rebase"
	"github.com/taneliang/stack-attack/cmd/show"
	"github.com/taneliang/stack-attack/internal/common"
	"github.com/taneliang/stack-attack/internal/ui"
)

var globalOpts common.Options

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sttack",
	Short: "Stacked commits and pull requests on GitHub",
	Long: `sttack manages stacks of commits in a git repository and the GitHub pull
requests that back them.

Each commit of a stack gets its own branch and PR, based on the branch of the
commit below it. Descriptions of the PRs in a stack link to each other.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.Error(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalOpts.RepoPath, "repo", "", "path inside the repository to operate on (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.Verbose, "verbose", "v", false, "print debug logs to stderr")

	// Register all commands
	commands := []Command{
		&show.Command{Options: &globalOpts},
		&rebase.Command{Options: &globalOpts},
		&prcommit.Command{Options: &globalOpts},
		&prstack.Command{Options: &globalOpts},
		&interactive.Command{Options: &globalOpts},
	}

	for _, cmd := range commands {
		cmd.Register(rootCmd)
	}
}
