// Package productcache remembers which store product an ingredient name matched at a
// location. It is a best-effort optimization: failures degrade to a miss or a no-op.
package productcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/grubyapp/gruby/internal/matching"
	"github.com/grubyapp/gruby/internal/model"
)

const DefaultTTL = 24 * time.Hour

type Cache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

func New(store Store, opts ...Option) *Cache {
	c := &Cache{store: store, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompositeKey joins the normalized ingredient name and the verbatim location id.
func CompositeKey(ingredientName, locationID string) string {
	return matching.Normalize(ingredientName) + "_" + locationID
}

// Get returns the cached product payload. A missing, stale or unreadable entry is a miss;
// stale entries are left in place for the next Put to replace.
func (c *Cache) Get(ctx context.Context, ingredientName, locationID string) (json.RawMessage, bool) {
	key := CompositeKey(ingredientName, locationID)
	logger := logutil.GetLogger(ctx).With(zap.String("cache_key", key))
	item, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logger.Warn("read product cache failed", zap.Error(err))
		return nil, false
	}
	if !ok || item == nil {
		return nil, false
	}
	if c.now().Sub(time.Unix(0, item.CachedAt)) >= c.ttl {
		logger.Debug("product cache entry stale")
		return nil, false
	}
	logger.Debug("product cache hit")
	return item.Product, true
}

// Put overwrites the entry for the key unconditionally. It reports whether the write
// landed; failures are logged and not retried.
func (c *Cache) Put(ctx context.Context, ingredientName, locationID string, product json.RawMessage) bool {
	key := CompositeKey(ingredientName, locationID)
	err := c.store.Save(ctx, &model.ProductCacheEntry{
		CacheKey:       key,
		IngredientName: ingredientName,
		LocationID:     locationID,
		Product:        product,
		CachedAt:       c.now().UnixNano(),
	})
	if err != nil {
		logutil.GetLogger(ctx).Warn("write product cache failed", zap.String("cache_key", key), zap.Error(err))
		return false
	}
	return true
}
