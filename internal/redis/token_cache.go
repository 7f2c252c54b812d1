package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pawhncho/futurepulse/internal/domain"
)

const tokenCacheTTL = 5 * time.Minute

// TokenAuthenticator resolves an API token to its user.
type TokenAuthenticator interface {
	GetUserByToken(ctx context.Context, key string) (*domain.User, error)
}

// Cache is the slice of the Redis client the token cache uses.
type Cache interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// TokenCache is a read-through Redis cache in front of the token lookup.
// Cache failures degrade to the underlying lookup; they are never surfaced.
type TokenCache struct {
	rdb   Cache
	users TokenAuthenticator
}

func NewTokenCache(rdb Cache, users TokenAuthenticator) *TokenCache {
	return &TokenCache{rdb: rdb, users: users}
}

func (c *TokenCache) GetUserByToken(ctx context.Context, key string) (*domain.User, error) {
	if user, ok := c.getCached(ctx, key); ok {
		return user, nil
	}

	user, err := c.users.GetUserByToken(ctx, key)
	if err != nil {
		return nil, err
	}

	c.writeCache(ctx, key, user)
	return user, nil
}

// Invalidate evicts a token from the cache, e.g. after a password reset.
func (c *TokenCache) Invalidate(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, tokenCacheKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate token cache: %w", err)
	}
	return nil
}

func (c *TokenCache) getCached(ctx context.Context, key string) (*domain.User, bool) {
	encoded, err := c.rdb.Get(ctx, tokenCacheKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("Token cache read failed", "error", err)
		return nil, false
	}

	var user domain.User
	if err := json.Unmarshal(encoded, &user); err != nil {
		slog.Warn("Token cache entry corrupt, falling through", "error", err)
		return nil, false
	}
	return &user, true
}

func (c *TokenCache) writeCache(ctx context.Context, key string, user *domain.User) {
	encoded, err := json.Marshal(user)
	if err != nil {
		slog.Warn("Failed to marshal user for token cache", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, tokenCacheKey(key), encoded, tokenCacheTTL).Err(); err != nil {
		slog.Warn("Failed to populate token cache", "error", err)
	}
}

func tokenCacheKey(key string) string {
	return "token_cache:" + key
}
