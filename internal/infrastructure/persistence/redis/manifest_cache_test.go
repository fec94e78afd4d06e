package redis

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/lesson-catalog/internal/domain/lesson"
	"github.com/alem-hub/lesson-catalog/internal/domain/shared"
)

func TestKeysFor(t *testing.T) {
	keys := KeysFor("course:")
	assert.Equal(t, "course:manifest", keys.Manifest)
	assert.Equal(t, "course:titles", keys.Titles)
	assert.Equal(t, "course:version", keys.Version)
	assert.Equal(t, "course:events", keys.Events)

	assert.Equal(t, "lessons:manifest", KeysFor("").Manifest)
}

func TestConfigAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "cache.internal"
	assert.Equal(t, "cache.internal:6379", cfg.Addr())
}

func TestWrapRedisError(t *testing.T) {
	netErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	assert.True(t, shared.IsRetryable(wrapRedisError("Replace", netErr)))
	assert.True(t, shared.IsRetryable(wrapRedisError("Replace", redis.ErrClosed)))
	assert.ErrorIs(t, wrapRedisError("Replace", netErr), shared.ErrSinkUnavailable)

	other := wrapRedisError("Replace", errors.New("WRONGTYPE"))
	assert.False(t, shared.IsRetryable(other))
	assert.True(t, shared.IsExternalService(other))
	assert.NotErrorIs(t, other, shared.ErrSinkUnavailable)
}

func TestManifestCache_RejectsNegativeTTL(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	mc := NewManifestCache(NewCacheWithClient(client), "", -time.Second)
	err := mc.Replace(context.Background(), lesson.Catalog().Snapshot(time.Now()))
	assert.ErrorIs(t, err, ErrCacheInvalidTTL)
}

func TestManifestCache_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	mc := NewManifestCache(NewCacheWithClient(client), "", 0)
	err := mc.Replace(context.Background(), lesson.Catalog().Snapshot(time.Now()))
	require.Error(t, err)
	assert.True(t, shared.IsExternalService(err))
}

// Integration test; runs only when TEST_REDIS_ADDR is set.
func TestManifestCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	defer client.Close()

	ctx := context.Background()
	prefix := "test:lessons:" + time.Now().Format("150405.000000") + ":"
	mc := NewManifestCache(NewCacheWithClient(client), prefix, time.Minute)
	t.Cleanup(func() {
		k := mc.Keys()
		client.Del(context.Background(), k.Manifest, k.Titles, k.Version)
	})

	v, err := mc.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = mc.Get(ctx)
	assert.True(t, shared.IsNotFound(err))

	catalog := lesson.Catalog()
	require.NoError(t, mc.Replace(ctx, catalog.Snapshot(time.Now())))

	v, err = mc.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.Fingerprint(), v)

	snap, err := mc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.All(), snap.Records)

	title, err := mc.Title(ctx, "lesson1.md")
	require.NoError(t, err)
	assert.Contains(t, title, "Урок 1")

	_, err = mc.Title(ctx, "does-not-exist.md")
	assert.True(t, shared.IsNotFound(err))
}
