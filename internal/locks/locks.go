package locks

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
)

// LockFileName is created inside the git directory of a repository.
const LockFileName = "sttack.lock"

const retryDelay = 50 * time.Millisecond

// RepoLock serializes destructive operations on one repository, both within the process
// and across processes.
type RepoLock struct {
	mu   sync.Mutex
	file *flock.Flock
	log  zerolog.Logger
}

// ForGitDir returns the lock guarding the repository whose git directory is gitDir.
func ForGitDir(gitDir string, log zerolog.Logger) *RepoLock {
	return &RepoLock{file: flock.New(filepath.Join(gitDir, LockFileName)), log: log}
}

// Path returns the lock file path.
func (l *RepoLock) Path() string {
	return l.file.Path()
}

// Lock blocks until the repository is locked or ctx is done. The returned function releases it.
func (l *RepoLock) Lock(ctx context.Context) (func(), error) {
	l.log.Debug().Str("path", l.file.Path()).Msg("acquiring repo lock")
	start := time.Now()
	l.mu.Lock()

	locked, err := l.file.TryLockContext(ctx, retryDelay)
	if err != nil || !locked {
		l.mu.Unlock()
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("failed to lock %s: %w", l.file.Path(), err)
	}
	l.log.Debug().Dur("waited", time.Since(start)).Msg("repo lock acquired")

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := l.file.Unlock(); err != nil {
				l.log.Warn().Err(err).Str("path", l.file.Path()).Msg("failed to release repo lock")
			}
			l.mu.Unlock()
			l.log.Debug().Msg("repo lock released")
		})
	}, nil
}
