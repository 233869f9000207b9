package product

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Cache is the read-through store used for catalog reads
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

const (
	cacheKeyCategories = "catalog:categories"
	cacheKeyProduct    = "catalog:product:"
)

func productCacheKey(slug string) string {
	return cacheKeyProduct + slug
}

// catalogCache tolerates a nil or failing backend; the database stays the source of truth
type catalogCache struct {
	backend Cache
	ttl     time.Duration
	log     *logrus.Logger
}

func (c *catalogCache) get(ctx context.Context, key string, dest interface{}) bool {
	if c.backend == nil {
		return false
	}
	found, err := c.backend.GetJSON(ctx, key, dest)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("catalog cache read failed")
		return false
	}
	return found
}

func (c *catalogCache) set(ctx context.Context, key string, value interface{}) {
	if c.backend == nil {
		return
	}
	if err := c.backend.SetJSON(ctx, key, value, c.ttl); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("catalog cache write failed")
	}
}

func (c *catalogCache) del(ctx context.Context, keys ...string) {
	if c.backend == nil || len(keys) == 0 {
		return
	}
	if err := c.backend.Del(ctx, keys...); err != nil {
		c.log.WithError(err).WithField("keys", keys).Warn("catalog cache invalidation failed")
	}
}
