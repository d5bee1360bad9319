package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

// cacheKeyLength is the hex-digit prefix of the digest kept in the key.
const cacheKeyLength = 16

// BuildCacheKey derives a deterministic key from request identity. Query
// parameters are serialized as a map with sorted keys, so differently-ordered
// but equivalent requests collide; any byte change in the body changes the
// key with overwhelming probability.
func BuildCacheKey(path string, query url.Values, body []byte) string {
	params := make(map[string]string, len(query))
	for name := range query {
		params[name] = query.Get(name)
	}
	payload := map[string]any{
		"query": params,
		"body":  string(body),
	}
	// encoding/json writes map keys in sorted order, which keeps the
	// serialization canonical.
	raw, _ := json.Marshal(payload)
	digest := sha256.Sum256(raw)
	return "cache:" + path + ":" + hex.EncodeToString(digest[:])[:cacheKeyLength]
}

// CacheStore is the key-value store behind the response cache.
type CacheStore interface {
	// Get returns the stored value, or (nil, nil) on a miss.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore implements CacheStore on a redis client.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

// ResponseCache is a look-aside cache for serialized response bodies.
// Entries live for a fixed TTL, refreshed only by a new Set, never extended
// by a Get.
type ResponseCache struct {
	store CacheStore
	ttl   time.Duration
}

func NewResponseCache(store CacheStore, ttl time.Duration) *ResponseCache {
	return &ResponseCache{store: store, ttl: ttl}
}

// Get returns the cached payload for key, or (nil, nil) on a miss. Store
// failures surface as ErrCacheUnavailable so callers can fall through to
// computing the response.
func (rc *ResponseCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := rc.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return data, nil
}

// Set stores a payload under key with the configured TTL.
func (rc *ResponseCache) Set(ctx context.Context, key string, value []byte) error {
	if err := rc.store.Set(ctx, key, value, rc.ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}
