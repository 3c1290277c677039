package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockRetryDelay = 50 * time.Millisecond
	lockTimeout    = 10 * time.Second
)

// withFileLock runs fn while holding an exclusive lock on path.
func withFileLock(ctx context.Context, path string, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	fl := flock.New(path)
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock %s", path)
	}
	defer fl.Unlock()

	return fn()
}
