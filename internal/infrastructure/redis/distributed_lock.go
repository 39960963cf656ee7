package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("ロックを取得できませんでした")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
)

// 所有者確認と削除をアトミックに行う
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// Lock は取得済みの分散ロック
type Lock interface {
	Release(ctx context.Context) error
}

// LockManagerInterface は便単位の分散ロックを提供する
type LockManagerInterface interface {
	// LockFlight は便のロックを取得する。取得できるまで ctx の期限内で待つ
	LockFlight(ctx context.Context, flightID int64, ttl time.Duration) (Lock, error)
}

// DistributedLock は Redis を使用した分散ロック
type DistributedLock struct {
	client *redis.Client
	key    string
	value  string
}

// LockManager は分散ロックを管理する
type LockManager struct {
	client        *redis.Client
	retryDelay    time.Duration
	maxRetryDelay time.Duration
}

func NewLockManager(client *redis.Client) *LockManager {
	return &LockManager{client: client, retryDelay: 5 * time.Millisecond, maxRetryDelay: 100 * time.Millisecond}
}

// FlightLockKey は便ロックのキーを返す
func FlightLockKey(flightID int64) string {
	return fmt.Sprintf("lock:flight:%d", flightID)
}

// AcquireLock はロックを1回だけ試みる
func (m *LockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*DistributedLock, error) {
	value := uuid.New().String()

	ok, err := m.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	return &DistributedLock{client: m.client, key: key, value: value}, nil
}

// LockFlight は便のロックが空くまでリトライする
// 待ち時間は retryDelay から倍々に増やし maxRetryDelay と ttl の小さい方を上限とする
func (m *LockManager) LockFlight(ctx context.Context, flightID int64, ttl time.Duration) (Lock, error) {
	key := FlightLockKey(flightID)
	delay := m.retryDelay

	for {
		lock, err := m.AcquireLock(ctx, key, ttl)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, ErrLockNotAcquired) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrLockNotAcquired, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
		if delay > m.maxRetryDelay {
			delay = m.maxRetryDelay
		}
		if delay > ttl {
			delay = ttl
		}
	}
}

// Release はロックを解放する
func (l *DistributedLock) Release(ctx context.Context) error {
	result, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.value).Int()
	if err != nil {
		return fmt.Errorf("ロック解放に失敗: %w", err)
	}
	if result == 0 {
		return ErrLockNotOwned
	}
	return nil
}

var _ LockManagerInterface = (*LockManager)(nil)
