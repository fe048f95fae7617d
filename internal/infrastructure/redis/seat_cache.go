package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// SeatCache はフライトごとの空席数キャッシュを管理する
// 予約・キャンセルのたびに無効化され、次回参照時にDBから再構築される
type SeatCache struct {
	client *redis.Client
}

// NewSeatCache は新しいSeatCacheインスタンスを作成する
func NewSeatCache(client *redis.Client) *SeatCache {
	return &SeatCache{client: client}
}

// GetAvailableCount はフライトの空席数をキャッシュから取得する
func (c *SeatCache) GetAvailableCount(ctx context.Context, flightID string) (int, error) {
	key := c.availableCountKey(flightID)
	val, err := c.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// SetAvailableCount はフライトの空席数をキャッシュに保存する
func (c *SeatCache) SetAvailableCount(ctx context.Context, flightID string, count int, ttl time.Duration) error {
	key := c.availableCountKey(flightID)
	err := c.client.Set(ctx, key, count, ttl).Err()
	if err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はフライトのキャッシュを無効化する
func (c *SeatCache) Invalidate(ctx context.Context, flightID string) error {
	key := c.availableCountKey(flightID)
	err := c.client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *SeatCache) availableCountKey(flightID string) string {
	return fmt.Sprintf("flights:available:%s", flightID)
}
