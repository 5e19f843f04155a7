package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, time.Minute), mr
}

func TestRedisLocker_ExclusiveUntilReleased(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLocker(t)

	release, err := l.Acquire(ctx, "po:1")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "po:1")
	assert.ErrorIs(t, err, ErrNotAcquired)

	other, err := l.Acquire(ctx, "po:2")
	require.NoError(t, err)
	other()

	release()
	again, err := l.Acquire(ctx, "po:1")
	require.NoError(t, err)
	again()
}

func TestRedisLocker_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLocker(t)

	_, err := l.Acquire(ctx, "po:1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	release, err := l.Acquire(ctx, "po:1")
	require.NoError(t, err)
	release()
}

func TestRedisLocker_StaleReleaseKeepsNewOwner(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLocker(t)

	stale, err := l.Acquire(ctx, "po:1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = l.Acquire(ctx, "po:1")
	require.NoError(t, err)

	stale()
	assert.True(t, mr.Exists("lock:po:1"))
}

func TestConnect_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Connect(ctx, "127.0.0.1:1", "")
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	release, err := Noop{}.Acquire(context.Background(), "x")
	require.NoError(t, err)
	release()
}
