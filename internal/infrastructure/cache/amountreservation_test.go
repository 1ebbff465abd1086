package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/orris-inc/usdtpay/internal/domain/order/valueobjects"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	client.FlushDB(ctx)

	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})

	return client
}

func TestAmountReservationStore_Reserve(t *testing.T) {
	client := setupTestRedis(t)
	store := NewAmountReservationStore(client, time.Minute)
	ctx := context.Background()
	amount := decimal.RequireFromString("10.37")

	ok, err := store.Reserve(ctx, vo.ChainTRC20, "TAddr", amount)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(ctx, vo.ChainTRC20, "TAddr", decimal.RequireFromString("10.370"))
	require.NoError(t, err)
	assert.False(t, ok, "same amount must not be claimed twice")

	ok, err = store.Reserve(ctx, vo.ChainBSC, "TAddr", amount)
	require.NoError(t, err)
	assert.True(t, ok, "other chain is independent")

	require.NoError(t, store.Release(ctx, vo.ChainTRC20, "TAddr", amount))
	ok, err = store.Reserve(ctx, vo.ChainTRC20, "TAddr", amount)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAmountReservationStore_BSCAddressCaseInsensitive(t *testing.T) {
	client := setupTestRedis(t)
	store := NewAmountReservationStore(client, time.Minute)
	ctx := context.Background()
	amount := decimal.RequireFromString("20.05")

	ok, err := store.Reserve(ctx, vo.ChainBSC, "0xABCDEF", amount)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(ctx, vo.ChainBSC, "0xabcdef", amount)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAmountReservationStore_Expires(t *testing.T) {
	client := setupTestRedis(t)
	store := NewAmountReservationStore(client, time.Second)
	ctx := context.Background()
	amount := decimal.RequireFromString("5.01")

	ok, err := store.Reserve(ctx, vo.ChainTRC20, "TAddr", amount)
	require.NoError(t, err)
	require.True(t, ok)

	ttl, err := client.TTL(ctx, "usdtpay:alloc:TRC20:TAddr:5.01").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Second)
}
