// Package config loads the per-repository settings of sttack.
//
// Settings come from a config file at the repository root (sttack.config.json or
// sttack.config.yaml), overlaid by STTACK_* environment variables. A .env file at the
// repository root is loaded into the environment first and never overrides variables that
// are already set.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/taneliang/stack-attack/internal/model"
)

const (
	JSONFileName = "sttack.config.json"
	YAMLFileName = "sttack.config.yaml"
	DotEnvName   = ".env"

	DefaultRemote = "origin"

	envPrefix = "STTACK"
)

// defaultLongLivedBranches are tried in order when no long-lived branch is configured.
var defaultLongLivedBranches = []model.BranchName{"main", "master"}

// File is the on-disk config format. JSON is a subset of YAML, so both files share it.
type File struct {
	LongLivedBranches  []string `yaml:"longLivedBranches"`
	TargetBranch       string   `yaml:"targetBranch"`
	Remote             string   `yaml:"remote"`
	UserPublicKeyPath  string   `yaml:"userPublicKeyPath"`
	UserPrivateKeyPath string   `yaml:"userPrivateKeyPath"`
	UserPassphrase     string   `yaml:"userPassphrase"`
	GithubToken        string   `yaml:"githubToken"`
	GithubAPIURL       string   `yaml:"githubApiUrl"`
}

// Env holds the environment overrides.
type Env struct {
	// Env: STTACK_GITHUB_TOKEN, falling back to GITHUB_TOKEN
	GithubToken string `envconfig:"GITHUB_TOKEN"`

	// Env: STTACK_REMOTE
	Remote string `split_words:"true"`

	// Env: STTACK_LOG_LEVEL
	LogLevel string `split_words:"true"`
}

// Config is the resolved configuration of one repository.
type Config struct {
	LongLivedBranches []model.BranchName
	TargetBranch      model.BranchName
	Remote            string

	PublicKeyPath  string
	PrivateKeyPath string
	Passphrase     string

	GithubToken  string
	GithubAPIURL string
	LogLevel     string

	// Source is the config file that was read, empty if there was none.
	Source string
}

// Load reads the configuration of the repository rooted at root.
func Load(root string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(root, DotEnvName)); err != nil {
		return nil, err
	}

	file, source, err := ReadFile(root)
	if err != nil {
		return nil, err
	}

	env, err := LoadFromEnv()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		TargetBranch:   file.TargetBranch,
		Remote:         file.Remote,
		PublicKeyPath:  expandHome(file.UserPublicKeyPath),
		PrivateKeyPath: expandHome(file.UserPrivateKeyPath),
		Passphrase:     file.UserPassphrase,
		GithubToken:    file.GithubToken,
		GithubAPIURL:   file.GithubAPIURL,
		Source:         source,
	}
	for _, b := range file.LongLivedBranches {
		if b = strings.TrimSpace(b); b != "" {
			cfg.LongLivedBranches = append(cfg.LongLivedBranches, b)
		}
	}

	if env.GithubToken != "" {
		cfg.GithubToken = env.GithubToken
	}
	if env.Remote != "" {
		cfg.Remote = env.Remote
	}
	cfg.LogLevel = env.LogLevel

	if cfg.Remote == "" {
		cfg.Remote = DefaultRemote
	}
	return cfg, nil
}

// ReadFile reads the first config file found at root and returns it with its path.
// A missing file is not an error.
func ReadFile(root string) (File, string, error) {
	for _, name := range []string{JSONFileName, YAMLFileName} {
		path := filepath.Join(root, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return File{}, "", fmt.Errorf("failed to read %s: %w", path, err)
		}

		var file File
		if err := yaml.Unmarshal(data, &file); err != nil {
			return File{}, "", fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return file, path, nil
	}
	return File{}, "", nil
}

// LoadFromEnv reads the STTACK_* environment variables.
func LoadFromEnv() (Env, error) {
	var env Env
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return Env{}, fmt.Errorf("failed to read environment: %w", err)
	}
	return env, nil
}

// ApplyDefaults fills in the branch settings that depend on the repository. hasBranch
// reports whether a local branch exists.
func (c *Config) ApplyDefaults(hasBranch func(model.BranchName) bool) error {
	if len(c.LongLivedBranches) == 0 {
		for _, b := range defaultLongLivedBranches {
			if hasBranch(b) {
				c.LongLivedBranches = []model.BranchName{b}
				break
			}
		}
	}
	if len(c.LongLivedBranches) == 0 {
		return fmt.Errorf("no long-lived branch configured and none of %s exist; set longLivedBranches in %s",
			strings.Join(defaultLongLivedBranches, ", "), JSONFileName)
	}
	if c.TargetBranch == "" {
		c.TargetBranch = c.LongLivedBranches[0]
	}
	return nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
