package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/desertthunder/hsrx/internal/shared"
)

// ErrCacheDisabled is returned when a nil [RedisBackend] is used.
var ErrCacheDisabled = fmt.Errorf("cache is disabled")

// RedisBackend stores metadata documents in Redis under a namespace.
//
// Documents for a build never change, so entries are stored without a TTL
// unless one is configured.
type RedisBackend struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedisBackend connects to the Redis server at rawURL and verifies the connection.
func NewRedisBackend(ctx context.Context, rawURL, namespace string) (*RedisBackend, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse Redis URL: %v", shared.ErrInvalidConfig, err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: failed to connect to Redis: %v", shared.ErrServiceUnavailable, err)
	}

	return newRedisBackend(client, namespace), nil
}

func newRedisBackend(client *redis.Client, namespace string) *RedisBackend {
	if namespace == "" {
		namespace = "hsrx"
	}
	return &RedisBackend{client: client, namespace: namespace}
}

// WithTTL sets an expiry on subsequently stored documents.
func (r *RedisBackend) WithTTL(ttl time.Duration) *RedisBackend {
	if r != nil {
		r.ttl = ttl
	}
	return r
}

func (r *RedisBackend) namespaceKey(key string) string {
	return r.namespace + ":" + key
}

func (r *RedisBackend) Has(ctx context.Context, key string) (bool, error) {
	if r == nil || r.client == nil {
		return false, ErrCacheDisabled
	}
	count, err := r.client.Exists(ctx, r.namespaceKey(key)).Result()
	return count > 0, err
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if r == nil || r.client == nil {
		return nil, ErrCacheDisabled
	}
	payload, err := r.client.Get(ctx, r.namespaceKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", shared.ErrMetadataNotFound, key)
	}
	return payload, err
}

func (r *RedisBackend) Set(ctx context.Context, key string, payload []byte) error {
	if r == nil || r.client == nil {
		return ErrCacheDisabled
	}
	return r.client.Set(ctx, r.namespaceKey(key), payload, r.ttl).Err()
}

// Close closes the Redis connection.
func (r *RedisBackend) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
