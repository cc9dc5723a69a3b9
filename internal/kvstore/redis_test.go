package kvstore

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisBackend_WriteReadRemove(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	b := NewRedisBackend(client, "test:kv:")
	ctx := context.Background()

	_, ok, err := b.Read(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, b.Write(ctx, KeyAccessToken, "tok", 0))

	v, ok, err := b.Read(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "tok", v)

	require.NoError(t, b.Remove(ctx, KeyAccessToken))
	_, ok, err = b.Read(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisBackend_TTL(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	b := NewRedisBackend(client, "test:kv:")
	ctx := context.Background()

	require.NoError(t, b.Write(ctx, "k", "v", time.Second))
	_, ok, err := b.Read(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	m.FastForward(2 * time.Second)

	_, ok, err = b.Read(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}
