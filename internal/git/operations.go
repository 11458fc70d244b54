package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// MinimumVersion is the oldest git that supports `merge-tree --write-tree --merge-base`.
var MinimumVersion = [2]int{2, 40}

// GetGitRoot returns the root directory of the git repository containing dir.
func GetGitRoot(ctx context.Context, dir string) (string, error) {
	out, err := runGit(ctx, dir, nil, nil, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not in a git repository: %w", err)
	}
	return out, nil
}

// GetGitDir returns the absolute git directory of the repository containing dir.
func GetGitDir(ctx context.Context, dir string) (string, error) {
	out, err := runGit(ctx, dir, nil, nil, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", fmt.Errorf("failed to find git directory: %w", err)
	}
	return out, nil
}

// Version returns the major and minor version of the git CLI.
func Version(ctx context.Context) (int, int, error) {
	out, err := runGit(ctx, "", nil, nil, "version")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to run git: %w", err)
	}
	return parseVersion(out)
}

// CheckVersion fails when the git CLI is older than MinimumVersion.
func CheckVersion(ctx context.Context) error {
	major, minor, err := Version(ctx)
	if err != nil {
		return err
	}
	if major < MinimumVersion[0] || (major == MinimumVersion[0] && minor < MinimumVersion[1]) {
		return fmt.Errorf("git %d.%d is too old, sttack needs git %d.%d or newer", major, minor, MinimumVersion[0], MinimumVersion[1])
	}
	return nil
}

// parseVersion parses output such as "git version 2.43.0" or "git version 2.39.3 (Apple Git-146)".
func parseVersion(out string) (int, int, error) {
	fields := strings.Fields(out)
	if len(fields) < 3 {
		return 0, 0, fmt.Errorf("unexpected git version output %q", out)
	}
	parts := strings.SplitN(fields[2], ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("unexpected git version %q", fields[2])
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected git version %q: %w", fields[2], err)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected git version %q: %w", fields[2], err)
	}
	return major, minor, nil
}
