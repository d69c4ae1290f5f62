package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
)

const defaultLockTTL = 15 * time.Minute

// ErrLockHeld is returned when another owner holds the lock.
var ErrLockHeld = errors.New("lock held by another owner")

type releaseFunc func(ctx context.Context) error

// Lock is a single-owner distributed lock with a TTL, backed by redislock.
type Lock struct {
	key    string
	ttl    time.Duration
	obtain func(ctx context.Context, key string, ttl time.Duration) (releaseFunc, error)
}

// NewLock constructs a lock over key on the client's connection.
func NewLock(c *Client, key string, ttl time.Duration) (*Lock, error) {
	if c == nil || c.raw == nil {
		return nil, errNotInitialized
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	locker := redislock.New(c.raw)
	return &Lock{
		key: key,
		ttl: ttl,
		obtain: func(ctx context.Context, key string, ttl time.Duration) (releaseFunc, error) {
			held, err := locker.Obtain(ctx, key, ttl, nil)
			if err != nil {
				return nil, err
			}
			return held.Release, nil
		},
	}, nil
}

// Do runs fn while holding the lock, returning ErrLockHeld when it is taken.
func (l *Lock) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	release, err := l.obtain(ctx, l.key, l.ttl)
	if errors.Is(err, redislock.ErrNotObtained) {
		return ErrLockHeld
	}
	if err != nil {
		return fmt.Errorf("obtain lock %s: %w", l.key, err)
	}
	defer func() {
		relErr := release(context.WithoutCancel(ctx))
		if relErr != nil && !errors.Is(relErr, redislock.ErrLockNotHeld) && err == nil {
			err = fmt.Errorf("release lock %s: %w", l.key, relErr)
		}
	}()
	return fn(ctx)
}
