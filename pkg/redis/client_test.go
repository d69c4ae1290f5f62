package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beveragedistro/ops-backend/pkg/config"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "login", 2, time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.EqualValues(t, 1, count)
	assert.Len(t, mock.expireCalls, 1)

	allowed, count, err = client.FixedWindowAllow(ctx, "login", 2, time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.EqualValues(t, 2, count)
	assert.Len(t, mock.expireCalls, 1, "expire should only be set on first increment")

	allowed, _, err = client.FixedWindowAllow(ctx, "login", 2, time.Second)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "bd:idempotency:orders:abc", client.IdempotencyKey("orders", "abc"))
	assert.Equal(t, "bd:rate_limit:login:ip", client.RateLimitKey("login:ip"))
	assert.Equal(t, "bd:session:access:jti", client.AccessSessionKey("jti"))
	assert.Equal(t, "bd:lock:stock-reconcile", client.LockKey(" stock-reconcile "))
	assert.Equal(t, "bd:idempotency:orders", client.IdempotencyKey("orders", ""))
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	ctx := context.Background()
	assert.Error(t, client.Ping(ctx))
	assert.Error(t, client.Set(ctx, "k", "v", 0))
	_, err := client.Get(ctx, "k")
	assert.Error(t, err)
	assert.NoError(t, client.Close())
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)
}

func stubLock(obtainErr, releaseErr error) (*Lock, *int) {
	released := 0
	return &Lock{
		key: "bd:lock:job",
		ttl: time.Minute,
		obtain: func(context.Context, string, time.Duration) (releaseFunc, error) {
			if obtainErr != nil {
				return nil, obtainErr
			}
			return func(context.Context) error {
				released++
				return releaseErr
			}, nil
		},
	}, &released
}

func TestLockDoRunsAndReleases(t *testing.T) {
	lock, released := stubLock(nil, nil)
	ran := false
	require.NoError(t, lock.Do(context.Background(), func(context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
	assert.Equal(t, 1, *released)
}

func TestLockDoReportsHeldLock(t *testing.T) {
	lock, released := stubLock(redislock.ErrNotObtained, nil)
	err := lock.Do(context.Background(), func(context.Context) error {
		t.Fatal("fn must not run without the lock")
		return nil
	})
	assert.True(t, errors.Is(err, ErrLockHeld))
	assert.Zero(t, *released)
}

func TestLockDoKeepsCallbackError(t *testing.T) {
	lock, _ := stubLock(nil, redislock.ErrLockNotHeld)
	boom := errors.New("boom")
	err := lock.Do(context.Background(), func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	lock, _ = stubLock(nil, redislock.ErrLockNotHeld)
	assert.NoError(t, lock.Do(context.Background(), func(context.Context) error { return nil }))
}

func TestNewLockRequiresConnection(t *testing.T) {
	_, err := NewLock(nil, "k", 0)
	assert.Error(t, err)
	_, err = NewLock(&Client{}, "k", 0)
	assert.Error(t, err)
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
