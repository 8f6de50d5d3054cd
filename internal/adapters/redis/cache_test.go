package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisad "hotel_listings/internal/adapters/redis"
	"hotel_listings/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetDel(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	h := domain.Hotel{HotelID: "SVE349", Slug: "sunshine-inn", Title: "Sunshine Inn"}
	require.NoError(t, c.Set(ctx, "hotel:SVE349", h, 60))
	assert.True(t, mr.Exists("hotels:hotel:SVE349"), "keys are namespaced")

	var got domain.Hotel
	ok, err := c.Get(ctx, "hotel:SVE349", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Sunshine Inn", got.Title)

	require.NoError(t, c.Del(ctx, "hotel:SVE349", "hotel-lookup:sunshine-inn"))
	ok, err = c.Get(ctx, "hotel:SVE349", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_TTLExpires(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "hotel-lookup:sunshine-inn", map[string]string{"sunshine-inn": "SVE349"}, 30))
	mr.FastForward(31 * time.Second)

	var ids map[string]string
	ok, err := c.Get(ctx, "hotel-lookup:sunshine-inn", &ids)
	require.NoError(t, err)
	assert.False(t, ok)
}
