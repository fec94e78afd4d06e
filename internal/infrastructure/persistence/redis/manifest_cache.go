package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alem-hub/lesson-catalog/internal/domain/lesson"
	"github.com/alem-hub/lesson-catalog/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// KEYS
// ══════════════════════════════════════════════════════════════════════════════

// DefaultKeyPrefix namespaces all catalog keys.
const DefaultKeyPrefix = "lessons:"

// Keys holds the Redis keys used for one published catalog.
type Keys struct {
	Manifest string // JSON snapshot
	Titles   string // hash file -> title
	Version  string // fingerprint of the published snapshot
	Events   string // pub/sub channel for publish notifications
}

// KeysFor builds the key set for prefix.
func KeysFor(prefix string) Keys {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return Keys{
		Manifest: prefix + "manifest",
		Titles:   prefix + "titles",
		Version:  prefix + "version",
		Events:   prefix + "events",
	}
}

// PublishedEvent is broadcast on Keys.Events after a successful Replace.
type PublishedEvent struct {
	Version     string    `json:"version"`
	Count       int       `json:"count"`
	PublishedAt time.Time `json:"published_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// MANIFEST CACHE
// ══════════════════════════════════════════════════════════════════════════════

// ManifestCache implements lesson.Store on top of Redis.
type ManifestCache struct {
	cache *Cache
	keys  Keys
	ttl   time.Duration
}

// NewManifestCache creates a ManifestCache. ttl of 0 keeps keys forever.
func NewManifestCache(cache *Cache, prefix string, ttl time.Duration) *ManifestCache {
	return &ManifestCache{
		cache: cache,
		keys:  KeysFor(prefix),
		ttl:   ttl,
	}
}

// Keys returns the keys this cache writes to.
func (m *ManifestCache) Keys() Keys {
	return m.keys
}

// Name implements lesson.Sink.
func (m *ManifestCache) Name() string {
	return "redis"
}

// Replace writes the snapshot, title hash and version in one MULTI/EXEC
// block, then announces the new version on the events channel.
func (m *ManifestCache) Replace(ctx context.Context, snapshot lesson.Snapshot) error {
	if m.ttl < 0 {
		return ErrCacheInvalidTTL
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	titles := make(map[string]any, len(snapshot.Records))
	for _, rec := range snapshot.Records {
		titles[rec.File] = rec.Title
	}

	_, err = m.cache.Client().TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, m.keys.Titles)
		if len(titles) > 0 {
			pipe.HSet(ctx, m.keys.Titles, titles)
		}
		pipe.Set(ctx, m.keys.Manifest, data, m.ttl)
		pipe.Set(ctx, m.keys.Version, snapshot.Version, m.ttl)
		if m.ttl > 0 {
			pipe.Expire(ctx, m.keys.Titles, m.ttl)
		}
		return nil
	})
	if err != nil {
		return wrapRedisError("Replace", err)
	}

	event := PublishedEvent{
		Version:     snapshot.Version,
		Count:       len(snapshot.Records),
		PublishedAt: snapshot.PublishedAt,
	}
	if err := m.cache.Publish(ctx, m.keys.Events, event); err != nil {
		return wrapRedisError("Replace", err)
	}
	return nil
}

// CurrentVersion implements lesson.VersionReader.
func (m *ManifestCache) CurrentVersion(ctx context.Context) (string, error) {
	v, err := m.cache.GetString(ctx, m.keys.Version)
	if errors.Is(err, ErrCacheMiss) {
		return "", nil
	}
	if err != nil {
		return "", wrapRedisError("CurrentVersion", err)
	}
	return v, nil
}

// Get returns the published snapshot.
// Returns shared.ErrNotFound when nothing has been published yet.
func (m *ManifestCache) Get(ctx context.Context) (lesson.Snapshot, error) {
	var snap lesson.Snapshot
	err := m.cache.Get(ctx, m.keys.Manifest, &snap)
	if errors.Is(err, ErrCacheMiss) {
		return lesson.Snapshot{}, shared.NewDomainError("redis", "Get", shared.ErrNotFound, "catalog not published")
	}
	if err != nil {
		return lesson.Snapshot{}, wrapRedisError("Get", err)
	}
	return snap, nil
}

// Title returns the published title for file.
// Returns shared.ErrLessonNotFound if the file is not in the published catalog.
func (m *ManifestCache) Title(ctx context.Context, file string) (string, error) {
	title, err := m.cache.HGetString(ctx, m.keys.Titles, file)
	if errors.Is(err, ErrCacheMiss) {
		return "", fmt.Errorf("%w: %s", shared.ErrLessonNotFound, file)
	}
	if err != nil {
		return "", wrapRedisError("Title", err)
	}
	return title, nil
}

// wrapRedisError marks network failures as retryable service errors.
func wrapRedisError(op string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) || errors.Is(err, ErrCacheConnection) {
		return shared.WrapError("redis", op, shared.ErrSinkUnavailable, "redis unavailable", err)
	}
	return shared.WrapError("redis", op, shared.ErrExternalService, "redis command failed", err)
}
