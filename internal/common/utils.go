package common

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/taneliang/stack-attack/internal/config"
	"github.com/taneliang/stack-attack/internal/gh"
	"github.com/taneliang/stack-attack/internal/git"
	"github.com/taneliang/stack-attack/internal/locks"
	"github.com/taneliang/stack-attack/internal/logs"
	"github.com/taneliang/stack-attack/internal/stack"
	"github.com/taneliang/stack-attack/internal/stacker"
)

// Options are the global flags every command shares.
type Options struct {
	// RepoPath is any directory inside the working copy. Defaults to the current directory.
	RepoPath string
	Verbose  bool
}

// Env holds the clients a command works with.
type Env struct {
	Config  *config.Config
	Git     *git.Client
	GitHub  *gh.LazyClient
	Stacker *stacker.Stacker
	Log     zerolog.Logger
}

// InitStacker loads the repository configuration and wires the git and GitHub clients into
// a Stacker. The Stacker is not loaded yet. The GitHub client and the git version check
// are deferred to the operations that need them.
// Returns an error that is suitable for use in PreRunE hooks
func InitStacker(ctx context.Context, opts Options) (*Env, error) {
	dir := opts.RepoPath
	if dir == "" {
		dir = "."
	}

	root, err := git.GetGitRoot(ctx, dir)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	level, err := logs.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log := logs.Stderr(level, opts.Verbose)
	if cfg.Source != "" {
		log.Debug().Str("file", cfg.Source).Msg("loaded config")
	}
	if cfg.PublicKeyPath != "" {
		log.Debug().Str("path", cfg.PublicKeyPath).Msg("public key path is derived from the private key and ignored")
	}

	gitClient, err := git.NewClientAt(ctx, root, git.Options{
		PrivateKeyPath: cfg.PrivateKeyPath,
		Passphrase:     cfg.Passphrase,
		Logger:         log.With().Str("component", "git").Logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("git client initialization failed: %w", err)
	}

	if err := cfg.ApplyDefaults(gitClient.HasBranch); err != nil {
		return nil, err
	}

	// GitHub is only needed once a PR is looked up or written; read-only commands work
	// without a token or a GitHub remote.
	ghClient := gh.NewLazyClient(func(ctx context.Context) (*gh.Client, error) {
		owner, repo, err := gitClient.OwnerAndRepo(cfg.Remote)
		if err != nil {
			return nil, err
		}
		template, err := gitClient.FindPRTemplate(cfg.TargetBranch)
		if err != nil {
			return nil, fmt.Errorf("failed to read PR template: %w", err)
		}
		return gh.NewClient(ctx, gh.Options{
			Owner:     owner,
			Repo:      repo,
			Token:     cfg.GithubToken,
			BaseURL:   cfg.GithubAPIURL,
			NewPRBody: template,
			Logger:    log.With().Str("component", "github").Logger(),
		})
	})

	st := stacker.New(gitClient, ghClient, stacker.Options{
		Settings: stack.SyncSettings{
			LongLivedBranches: cfg.LongLivedBranches,
			TargetBranch:      cfg.TargetBranch,
			Remote:            cfg.Remote,
		},
		Lock:   locks.ForGitDir(gitClient.GitDir(), log),
		Logger: log,
	})

	return &Env{
		Config:  cfg,
		Git:     gitClient,
		GitHub:  ghClient,
		Stacker: st,
		Log:     log,
	}, nil
}

// InitAndLoad is InitStacker followed by loading the first snapshot.
func InitAndLoad(ctx context.Context, opts Options) (*Env, error) {
	env, err := InitStacker(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := env.Stacker.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load repository: %w", err)
	}
	return env, nil
}
