package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *goredis.Client {
	t.Helper()
	client, err := NewClient(&Config{Host: "localhost", Port: "6379"})
	if err != nil {
		t.Skip("Redis not available")
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestFlightLockKey(t *testing.T) {
	assert.Equal(t, "lock:flight:1001", FlightLockKey(1001))
}

func TestLockManager_AcquireLock(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	manager := NewLockManager(client)

	t.Run("同じキーのロックは取得できない", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "test:lock:2", 5*time.Second)
		require.NoError(t, err)
		defer lock1.Release(ctx)

		lock2, err := manager.AcquireLock(ctx, "test:lock:2", 5*time.Second)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		assert.Nil(t, lock2)
	})

	t.Run("解放後は再取得できる", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "test:lock:3", 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, lock1.Release(ctx))

		lock2, err := manager.AcquireLock(ctx, "test:lock:3", 5*time.Second)
		require.NoError(t, err)
		defer lock2.Release(ctx)
	})

	t.Run("期限切れ後の解放は所有者エラー", func(t *testing.T) {
		lock, err := manager.AcquireLock(ctx, "test:lock:4", 100*time.Millisecond)
		require.NoError(t, err)
		time.Sleep(200 * time.Millisecond)

		assert.ErrorIs(t, lock.Release(ctx), ErrLockNotOwned)
	})
}

func TestLockManager_LockFlight(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	manager := NewLockManager(client)
	client.Del(ctx, FlightLockKey(990001), FlightLockKey(990002), FlightLockKey(990003))

	t.Run("解放されるまで待って取得する", func(t *testing.T) {
		first, err := manager.LockFlight(ctx, 990001, 5*time.Second)
		require.NoError(t, err)

		go func() {
			time.Sleep(100 * time.Millisecond)
			first.Release(ctx)
		}()

		second, err := manager.LockFlight(ctx, 990001, 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, second.Release(ctx))
	})

	t.Run("期限内に取得できなければエラー", func(t *testing.T) {
		held, err := manager.LockFlight(ctx, 990002, 5*time.Second)
		require.NoError(t, err)
		defer held.Release(ctx)

		waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		_, err = manager.LockFlight(waitCtx, 990002, 5*time.Second)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
	})

	t.Run("同時に保持するのは1つだけ", func(t *testing.T) {
		var inside, maxInside int32
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				lock, err := manager.LockFlight(ctx, 990003, 5*time.Second)
				if !assert.NoError(t, err) {
					return
				}
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				assert.NoError(t, lock.Release(ctx))
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), maxInside)
	})
}
