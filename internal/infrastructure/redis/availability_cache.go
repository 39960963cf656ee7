package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss       = errors.New("キャッシュが見つかりません")
	ErrStaleGeneration = errors.New("キャッシュの世代が進んでいるため保存しません")
)

// DefaultAvailabilityTTL は空席数キャッシュの既定の有効期限
const DefaultAvailabilityTTL = 30 * time.Second

// 世代が読み出し時点から変わっていない場合だけ値を書き込む
// KEYS[1]: 空席数, KEYS[2]: 世代, ARGV: 世代, 空席数, TTL(ms)
var setIfGenerationScript = redis.NewScript(`
	local gen = redis.call("GET", KEYS[2])
	if gen == false then
		gen = "0"
	end
	if gen ~= ARGV[1] then
		return 0
	end
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	return 1
`)

// AvailabilityCacheInterface は便ごとの空席数キャッシュ
// 読み出し側は DB を読む前に Generation を取得し、その世代を SetSeatsAvailable に渡す
type AvailabilityCacheInterface interface {
	GetSeatsAvailable(ctx context.Context, flightID int64) (int, error)
	Generation(ctx context.Context, flightID int64) (int64, error)
	SetSeatsAvailable(ctx context.Context, flightID int64, seats int, generation int64) error
	Invalidate(ctx context.Context, flightID int64) error
}

// AvailabilityCache は空席数を Redis にキャッシュする
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAvailabilityCache は新しいキャッシュを作成する。ttl が0以下なら既定値
func NewAvailabilityCache(client *redis.Client, ttl time.Duration) *AvailabilityCache {
	if ttl <= 0 {
		ttl = DefaultAvailabilityTTL
	}
	return &AvailabilityCache{client: client, ttl: ttl}
}

func (c *AvailabilityCache) GetSeatsAvailable(ctx context.Context, flightID int64) (int, error) {
	val, err := c.client.Get(ctx, availabilityKey(flightID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// Generation は便のキャッシュ世代を返す。Invalidate のたびに1つ進む
func (c *AvailabilityCache) Generation(ctx context.Context, flightID int64) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(flightID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("キャッシュ世代の取得に失敗: %w", err)
	}
	return gen, nil
}

// SetSeatsAvailable は generation が現在の世代と一致する場合だけ保存する
// 読み出し中に予約が確定して無効化された場合は ErrStaleGeneration を返し、古い値を書き戻さない
func (c *AvailabilityCache) SetSeatsAvailable(ctx context.Context, flightID int64, seats int, generation int64) error {
	keys := []string{availabilityKey(flightID), generationKey(flightID)}
	stored, err := setIfGenerationScript.Run(ctx, c.client, keys, generation, seats, c.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	if stored == 0 {
		return ErrStaleGeneration
	}
	return nil
}

// Invalidate は世代を進めてから便のキャッシュを削除する
func (c *AvailabilityCache) Invalidate(ctx context.Context, flightID int64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(flightID))
		pipe.Del(ctx, availabilityKey(flightID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func availabilityKey(flightID int64) string {
	return fmt.Sprintf("flight:%d:seats_available", flightID)
}

func generationKey(flightID int64) string {
	return fmt.Sprintf("flight:%d:seats_generation", flightID)
}

var _ AvailabilityCacheInterface = (*AvailabilityCache)(nil)
