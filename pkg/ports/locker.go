package ports

import (
	"context"
	"errors"
	"time"
)

// ErrLockLost is returned when a held lock expired or was taken by another holder.
var ErrLockLost = errors.New("distributed lock lost")

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// ExtendFunc resets the expiry of a held lock to ttl from now.
// It returns ErrLockLost when the lock is no longer ours.
type ExtendFunc func(ctx context.Context, ttl time.Duration) error

// DistributedLocker serializes access to one conversation across replicas.
// The session manager takes it after its in-process lock, so a resume on one
// instance cannot interleave with a fresh message handled by another.
type DistributedLocker interface {
	// Lock blocks until the lock for key is held or ctx is done.
	// The lock expires after ttl if the holder never releases it.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

// ExtendableLocker is a DistributedLocker whose holder can keep a lock alive
// past its ttl. The session manager renews such locks while a turn runs.
type ExtendableLocker interface {
	DistributedLocker
	LockExtendable(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, ExtendFunc, error)
}
