package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatCache_GetAvailableCount(t *testing.T) {
	client := setupTestRedis(t)
	cache := NewSeatCache(client)
	ctx := context.Background()
	flightID := "test-flight-123"

	t.Run("キャッシュミス時はErrCacheMissを返す", func(t *testing.T) {
		cache.Invalidate(ctx, flightID)
		_, err := cache.GetAvailableCount(ctx, flightID)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("キャッシュにセットした値を取得できる", func(t *testing.T) {
		err := cache.SetAvailableCount(ctx, flightID, 100, 30*time.Second)
		require.NoError(t, err)

		count, err := cache.GetAvailableCount(ctx, flightID)
		require.NoError(t, err)
		assert.Equal(t, 100, count)
	})

	t.Run("キャッシュを無効化できる", func(t *testing.T) {
		err := cache.SetAvailableCount(ctx, flightID, 50, 30*time.Second)
		require.NoError(t, err)

		err = cache.Invalidate(ctx, flightID)
		require.NoError(t, err)

		_, err = cache.GetAvailableCount(ctx, flightID)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})
}
