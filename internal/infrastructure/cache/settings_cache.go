package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tmb8080/nova-sub001/internal/domain/entities"
)

const settingsCacheKey = "settings"

// SettingsStore is the persistent store the cache fronts
type SettingsStore interface {
	Load(ctx context.Context) (entities.Settings, error)
	Set(ctx context.Context, key, value string) error
}

// CachedSettings reads settings through a short-TTL redis cache. Every
// engine operation loads settings once at its start, so the cache keeps
// the hot paths off the settings table. Redis failures fall through to
// the store; a cache outage never breaks an operation.
type CachedSettings struct {
	store  SettingsStore
	redis  RedisClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedSettings wraps a settings store with a redis cache
func NewCachedSettings(store SettingsStore, redis RedisClient, ttl time.Duration, logger *zap.Logger) *CachedSettings {
	return &CachedSettings{
		store:  store,
		redis:  redis,
		ttl:    ttl,
		logger: logger,
	}
}

// Load returns the cached settings, falling back to the store on a miss
func (c *CachedSettings) Load(ctx context.Context) (entities.Settings, error) {
	var settings entities.Settings
	if err := c.redis.Get(ctx, settingsCacheKey, &settings); err == nil {
		return settings, nil
	}

	settings, err := c.store.Load(ctx)
	if err != nil {
		return settings, err
	}

	if err := c.redis.Set(ctx, settingsCacheKey, settings, c.ttl); err != nil {
		c.logger.Warn("failed to cache settings", zap.Error(err))
	}

	return settings, nil
}

// Set writes through to the store and invalidates the cached value, so
// the next Load sees the update immediately rather than after the TTL.
func (c *CachedSettings) Set(ctx context.Context, key, value string) error {
	if err := c.store.Set(ctx, key, value); err != nil {
		return err
	}

	if err := c.redis.Del(ctx, settingsCacheKey); err != nil {
		c.logger.Warn("failed to invalidate settings cache", zap.Error(err))
	}

	return nil
}
