package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	notesapp "github.com/promissory/backend/internal/application/notes"
	"github.com/promissory/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisDebtorCache memoizes debtor directory lookups in Redis. Suitable for
// distributed deployments where multiple instances share the cache; a cache
// failure degrades to a repository lookup, never to an error.
type RedisDebtorCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewRedisDebtorCache creates a Redis-backed debtor cache and verifies the
// connection.
func NewRedisDebtorCache(cfg config.RedisConfig, logger *zap.Logger) (*RedisDebtorCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisDebtorCacheWithClient(client, logger), nil
}

// NewRedisDebtorCacheWithClient creates a cache with an existing Redis client.
// Useful for testing or when sharing a client across components.
func NewRedisDebtorCacheWithClient(client *redis.Client, logger *zap.Logger) *RedisDebtorCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisDebtorCache{
		client:    client,
		keyPrefix: "directory:debtor:",
		ttl:       time.Hour,
		logger:    logger,
	}
}

func (c *RedisDebtorCache) key(customerID uuid.UUID) string {
	return c.keyPrefix + customerID.String()
}

// Get returns the cached debtor info for a customer if present
func (c *RedisDebtorCache) Get(ctx context.Context, customerID uuid.UUID) (notesapp.DebtorInfo, bool) {
	data, err := c.client.Get(ctx, c.key(customerID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("debtor cache read failed", zap.Error(err))
		}
		return notesapp.DebtorInfo{}, false
	}
	var info notesapp.DebtorInfo
	if err := json.Unmarshal(data, &info); err != nil {
		c.logger.Warn("debtor cache entry corrupt, dropping", zap.Error(err))
		c.client.Del(ctx, c.key(customerID))
		return notesapp.DebtorInfo{}, false
	}
	return info, true
}

// Set stores the debtor info for a customer with the configured TTL
func (c *RedisDebtorCache) Set(ctx context.Context, customerID uuid.UUID, info notesapp.DebtorInfo) {
	data, err := json.Marshal(info)
	if err != nil {
		c.logger.Warn("debtor cache marshal failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key(customerID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("debtor cache write failed", zap.Error(err))
	}
}

// Invalidate removes the cached entry for a customer
func (c *RedisDebtorCache) Invalidate(ctx context.Context, customerID uuid.UUID) {
	if err := c.client.Del(ctx, c.key(customerID)).Err(); err != nil {
		c.logger.Warn("debtor cache invalidation failed", zap.Error(err))
	}
}
