package lock_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/captable/lock"
)

func TestLocalMutualExclusion(t *testing.T) {
	l := lock.NewLocal()
	exerciseLocker(t, l)
	assert.Equal(t, 0, l.Held())
}

func TestLocalKeysAreIndependent(t *testing.T) {
	l := lock.NewLocal()
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "acct_a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, "acct_b")
	require.NoError(t, err)
	unlockB()
}

func TestLocalContextCanceled(t *testing.T) {
	l := lock.NewLocal()
	unlock, err := l.Lock(context.Background(), "acct")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "acct")
	require.Error(t, err)
	assert.True(t, errors.Is(err, lock.ErrNotAcquired))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	unlock()
	unlock()
	assert.Equal(t, 0, l.Held())
}

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("CAPTABLE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CAPTABLE_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	r := lock.NewRedis(client,
		lock.WithPrefix("captable:test:"+t.Name()+":"),
		lock.WithTTL(5*time.Second),
		lock.WithPollInterval(5*time.Millisecond),
	)
	exerciseLocker(t, r)
}

func exerciseLocker(t *testing.T, l lock.Locker) {
	t.Helper()

	var (
		inside  atomic.Int32
		overlap atomic.Bool
		wg      sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				unlock, err := l.Lock(context.Background(), "acct_shared")
				if !assert.NoError(t, err) {
					return
				}
				if inside.Add(1) > 1 {
					overlap.Store(true)
				}
				time.Sleep(100 * time.Microsecond)
				inside.Add(-1)
				unlock()
			}
		}()
	}
	wg.Wait()
	assert.False(t, overlap.Load())
}
