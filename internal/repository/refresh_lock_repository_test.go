package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedisLock(t *testing.T, ttl time.Duration) (*RedisRefreshLock, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRefreshLock(client, ttl, zap.NewNop()), mr
}

func TestRedisRefreshLockExclusive(t *testing.T) {
	lock, mr := newRedisLock(t, 200*time.Millisecond)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(refreshLockPrefix+"user-1"))

	_, err = lock.Acquire(ctx, "user-1")
	assert.ErrorIs(t, err, ErrLockTimeout)

	other, err := lock.Acquire(ctx, "user-2")
	require.NoError(t, err)
	other()

	release()
	assert.False(t, mr.Exists(refreshLockPrefix+"user-1"))

	again, err := lock.Acquire(ctx, "user-1")
	require.NoError(t, err)
	again()
}

func TestRedisRefreshLockReleaseKeepsSuccessor(t *testing.T) {
	lock, mr := newRedisLock(t, time.Second)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "user-1")
	require.NoError(t, err)

	// Simulate expiry and a new holder.
	require.NoError(t, mr.Set(refreshLockPrefix+"user-1", "someone-else"))
	release()

	value, err := mr.Get(refreshLockPrefix + "user-1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", value)
}

func TestRedisRefreshLockContextCancelled(t *testing.T) {
	lock, _ := newRedisLock(t, time.Second)

	release, err := lock.Acquire(context.Background(), "user-1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = lock.Acquire(ctx, "user-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLocalRefreshLockSerializes(t *testing.T) {
	lock := NewLocalRefreshLock(time.Second)
	ctx := context.Background()

	var inside int32
	var maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := lock.Acquire(ctx, "user-1")
			if err != nil {
				t.Error(err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				current := atomic.LoadInt32(&maxInside)
				if n <= current || atomic.CompareAndSwapInt32(&maxInside, current, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, lock.locks)
}

func TestLocalRefreshLockContextCancelled(t *testing.T) {
	lock := NewLocalRefreshLock(time.Second)

	release, err := lock.Acquire(context.Background(), "user-1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = lock.Acquire(ctx, "user-1")
	assert.ErrorIs(t, err, context.Canceled)

	release()
	release()
	assert.Empty(t, lock.locks)
}

func TestLocalRefreshLockTimesOut(t *testing.T) {
	lock := NewLocalRefreshLock(30 * time.Millisecond)

	release, err := lock.Acquire(context.Background(), "user-1")
	require.NoError(t, err)

	start := time.Now()
	_, err = lock.Acquire(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	release()
	assert.Empty(t, lock.locks)

	release, err = lock.Acquire(context.Background(), "user-1")
	require.NoError(t, err)
	release()
}
