package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// DefaultLockTimeout bounds how long a run waits for another playrun
// process to release a lock.
const DefaultLockTimeout = 5 * time.Second

const lockRetryDelay = 100 * time.Millisecond

// WithLock runs fn while holding an exclusive lock on path + ".lock".
func WithLock(ctx context.Context, path string, timeout time.Duration, fn func() error) error {
	return withLock(ctx, path, timeout, false, fn)
}

// WithReadLock runs fn while holding a shared lock on path + ".lock".
func WithReadLock(ctx context.Context, path string, timeout time.Duration, fn func() error) error {
	return withLock(ctx, path, timeout, true, fn)
}

func withLock(ctx context.Context, path string, timeout time.Duration, shared bool, fn func() error) error {
	lockPath := path + ".lock"
	if _, err := os.Stat(filepath.Dir(lockPath)); err != nil {
		return fmt.Errorf("lock directory for %s: %w", path, err)
	}
	fileLock := flock.New(lockPath)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	kind := "lock"
	try := fileLock.TryLockContext
	if shared {
		kind = "read lock"
		try = fileLock.TryRLockContext
	}

	locked, err := try(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquiring %s on %s: %w", kind, lockPath, err)
	}
	if !locked {
		return fmt.Errorf("timed out acquiring %s on %s", kind, lockPath)
	}
	defer fileLock.Unlock()

	return fn()
}
