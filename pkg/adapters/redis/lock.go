package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/squadchat/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPollInterval is how often a blocked Lock retries.
const DefaultPollInterval = 100 * time.Millisecond

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// extendScript resets the expiry only if the lock still holds our token.
var extendScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`)

var _ ports.ExtendableLocker = (*Locker)(nil)

// Locker implements ports.DistributedLocker using Redis SET NX PX.
type Locker struct {
	client backend.UniversalClient
	prefix string
	poll   time.Duration
}

// NewLocker creates a new Redis locker.
func NewLocker(client backend.UniversalClient, prefix string) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
		poll:   DefaultPollInterval,
	}
}

// Lock blocks until the lock for key is acquired or ctx ends.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	unlock, _, err := l.LockExtendable(ctx, key, ttl)
	return unlock, err
}

// LockExtendable is Lock that also returns a function to push back the expiry.
func (l *Locker) LockExtendable(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, ports.ExtendFunc, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	acquire := func() (bool, error) {
		ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			return false, fmt.Errorf("redis error acquiring lock: %w", err)
		}
		return ok, nil
	}

	unlock := func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{lockKey}, token).Err()
	}

	extend := func(ctx context.Context, ttl time.Duration) error {
		n, err := extendScript.Run(ctx, l.client, []string{lockKey}, token, ttl.Milliseconds()).Int64()
		if err != nil {
			return fmt.Errorf("redis error extending lock: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ports.ErrLockLost, key)
		}
		return nil
	}

	ok, err := acquire()
	if err != nil {
		return nil, nil, err
	}
	if ok {
		return unlock, extend, nil
	}

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-ticker.C:
			ok, err := acquire()
			if err != nil {
				return nil, nil, err
			}
			if ok {
				return unlock, extend, nil
			}
		}
	}
}
