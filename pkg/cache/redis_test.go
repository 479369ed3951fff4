package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupMiniRedis starts an in-memory Redis and returns a client for it.
func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
	})
	return mr, client
}

func TestNewRedisCache_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedisCache should panic with nil redis client")
		}
	}()
	NewRedisCache(nil)
}

func TestRedisCache_SetAndGet(t *testing.T) {
	_, client := setupMiniRedis(t)
	c := NewRedisCache(client)
	ctx := context.Background()

	key := Key{URL: "/items", Method: "GET"}
	entry := NewEntry([]byte(`{"data":[1,2]}`), 200, 5*time.Minute)

	require.NoError(t, c.Set(ctx, key, entry))

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, entry.Data, got.Data)
	assert.Equal(t, 200, got.StatusCode)
}

func TestRedisCache_Miss(t *testing.T) {
	_, client := setupMiniRedis(t)
	c := NewRedisCache(client)

	_, err := c.Get(context.Background(), Key{URL: "/nothing"})
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestRedisCache_ExpiredEntryNotStored(t *testing.T) {
	mr, client := setupMiniRedis(t)
	c := NewRedisCache(client)
	ctx := context.Background()

	key := Key{URL: "/items"}
	expired := &Entry{Data: []byte(`{}`), Expires: time.Now().Add(-time.Minute)}
	require.NoError(t, c.Set(ctx, key, expired))
	assert.False(t, mr.Exists(key.String()))
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	mr, client := setupMiniRedis(t)
	c := NewRedisCache(client)
	ctx := context.Background()

	key := Key{URL: "/items"}
	require.NoError(t, c.Set(ctx, key, NewEntry([]byte(`{}`), 200, time.Minute)))

	mr.FastForward(2 * time.Minute)

	_, err := c.Get(ctx, key)
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestRedisCache_InvalidEntry(t *testing.T) {
	mr, client := setupMiniRedis(t)
	c := NewRedisCache(client)

	key := Key{URL: "/corrupt"}
	require.NoError(t, mr.Set(key.String(), "not json"))

	_, err := c.Get(context.Background(), key)
	assert.True(t, errors.Is(err, ErrInvalidEntry))
}

func TestRedisCache_Delete(t *testing.T) {
	_, client := setupMiniRedis(t)
	c := NewRedisCache(client)
	ctx := context.Background()

	key := Key{URL: "/items"}
	require.NoError(t, c.Set(ctx, key, NewEntry([]byte(`{}`), 200, time.Minute)))
	require.NoError(t, c.Delete(ctx, key))

	_, err := c.Get(ctx, key)
	assert.True(t, errors.Is(err, ErrCacheMiss))
}
