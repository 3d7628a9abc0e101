package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// variantSweeper abstracts the memory-tier expiry sweep (for testability).
type variantSweeper interface {
	DeleteExpired() int
}

// originSweeper abstracts the disk-tier age sweep (for testability).
type originSweeper interface {
	CleanupOld(ctx context.Context, maxAge time.Duration) (int, error)
}

// MemoryCacheJanitorJob returns a scheduler job function that sweeps
// expired variants out of the memory tier. Lazy expiry on read keeps the
// cache correct without this; the sweep bounds growth from keys that are
// written but never read again.
func MemoryCacheJanitorJob(cache variantSweeper) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		removed := cache.DeleteExpired()
		if removed > 0 {
			slog.InfoContext(ctx, "memory cache janitor: removed expired variants", "removed", removed)
		}
		return nil
	}
}

// DiskCacheJanitorJob returns a scheduler job function that deletes origin
// files not accessed within maxAge. Filesystem errors are returned for the
// scheduler to log; the next tick retries.
func DiskCacheJanitorJob(store originSweeper, maxAge time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		removed, err := store.CleanupOld(ctx, maxAge)
		if err != nil {
			return fmt.Errorf("disk cache cleanup: %w", err)
		}
		if removed > 0 {
			slog.InfoContext(ctx, "disk cache janitor: removed stale files", "removed", removed)
		}
		return nil
	}
}
