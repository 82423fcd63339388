package core

import (
	"fmt"

	"authgate/internal/cache"
	"authgate/internal/configuration"
	"authgate/internal/models"

	"go.uber.org/zap"
)

func NewCache(config models.CacheConfiguration) (cache.ISessionStore, error) {
	var store cache.ISessionStore
	var err error

	switch config.Type {
	case configuration.ProviderRedis:
		store, err = cache.NewRedisCache(*config.Redis)
	case configuration.ProviderValkey:
		store, err = cache.NewValkeyCache(*config.Valkey)
	case configuration.ProviderMemory:
		store = cache.NewMemoryCache()
	default:
		return nil, fmt.Errorf("unsupported cache type %q", config.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s cache: %w", config.Type, err)
	}

	zap.L().Info("Initialized session store", zap.String("provider", config.Type))
	return store, nil
}
