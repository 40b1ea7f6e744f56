package db

import (
	"context"
	"testing"

	goRedis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/undeadops/tersemap/internal/store"
)

func newRedisStore(t *testing.T) *Redis {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	tc.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = tc.TerminateContainer(container) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	r, err := OpenRedis(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRedis_CRUD(t *testing.T) {
	r := newRedisStore(t)
	ctx := context.Background()

	_, err := r.Get(ctx, "abc")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, r.Insert(ctx, "abc", "https://first.example"))
	require.NoError(t, r.Insert(ctx, "abc", "https://second.example"))

	rec, err := r.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "https://first.example", rec.OriginalURI)

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.Record{{Token: "abc", OriginalURI: "https://first.example"}}, all)

	deleted, err := r.Delete(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = r.Delete(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestOpenRedis_BadURL(t *testing.T) {
	_, err := OpenRedis(context.Background(), "not-a-redis-url")
	assert.Error(t, err)
}

func TestNewRedis_Prefix(t *testing.T) {
	r := NewRedis(goRedis.NewClient(&goRedis.Options{Addr: "localhost:0"}))
	defer r.Close()
	assert.Equal(t, redisKeyPrefix, r.prefix)
}
