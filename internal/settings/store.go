package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ignite/commerce-tracker/internal/domain"
	"github.com/ignite/commerce-tracker/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// DefaultHash is the Redis hash the host mirrors its general settings into.
const DefaultHash = "edd_settings"

// Store reads host settings. A missing key yields "" and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
}

// RedisStore reads settings from a Redis hash.
type RedisStore struct {
	client *redis.Client
	hash   string
}

// NewRedisStore creates a store over the given hash (DefaultHash when empty).
func NewRedisStore(client *redis.Client, hash string) *RedisStore {
	if hash == "" {
		hash = DefaultHash
	}
	return &RedisStore{client: client, hash: hash}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.HGet(ctx, s.hash, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read setting %s: %w", key, err)
	}
	return val, nil
}

// StaticStore serves settings from memory, typically seeded from config.
type StaticStore map[string]string

func (s StaticStore) Get(_ context.Context, key string) (string, error) {
	return s[key], nil
}

// Resolver turns the stored token into a TrackingConfig.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver over store. A nil store always resolves disabled.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve reads the token fresh from the store. Read failures are logged and
// resolve to a disabled config.
func (r *Resolver) Resolve(ctx context.Context) domain.TrackingConfig {
	if r == nil || r.store == nil {
		return domain.TrackingConfig{}
	}
	tok, err := r.store.Get(ctx, TokenKey)
	if err != nil {
		logger.Warn("settings: token lookup failed, tracking disabled", "error", err)
		return domain.TrackingConfig{}
	}
	return domain.TrackingConfig{APIToken: strings.TrimSpace(tok)}
}
