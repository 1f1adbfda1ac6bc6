package cache

import (
	partnerapp "github.com/promissory/backend/internal/application/partner"
	"github.com/promissory/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewDebtorCache selects a DirectoryCache implementation from configuration:
// Redis when a host is configured, in-process memory otherwise. A Redis
// connection failure falls back to memory with a warning rather than
// blocking startup.
func NewDebtorCache(cfg config.RedisConfig, logger *zap.Logger) partnerapp.DirectoryCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.RedisEnabled() {
		logger.Info("debtor cache using in-process memory (no Redis host configured)")
		return NewInMemoryDebtorCache()
	}

	redisCache, err := NewRedisDebtorCache(cfg, logger)
	if err != nil {
		logger.Warn("Redis unavailable, debtor cache falling back to in-process memory",
			zap.String("addr", cfg.Addr()),
			zap.Error(err))
		return NewInMemoryDebtorCache()
	}

	logger.Info("debtor cache using Redis", zap.String("addr", cfg.Addr()))
	return redisCache
}
