package redis

import (
	"context"
	"time"

	"dormride/internal/repository"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireSweepLock(ctx context.Context, ttl time.Duration) (bool, error)
	ReleaseSweepLock(ctx context.Context) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface      = (*LockStore)(nil)
	_ repository.DatasetStore = (*DatasetStore)(nil)
)
