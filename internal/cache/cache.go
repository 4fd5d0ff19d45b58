// Package cache holds the derived, time-bounded copy of widget records in
// Redis. The versioned store stays authoritative; everything here is best
// effort and a broken cache only ever degrades reads to store lookups.
package cache

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Nawaf-TBE/home-widget-platform/internal/domain"
	"github.com/Nawaf-TBE/home-widget-platform/internal/metrics"
	"github.com/Nawaf-TBE/home-widget-platform/pkg/logger"
)

// WidgetCache is the read-through cache in front of the widget store.
type WidgetCache struct {
	client *goredis.Client
	log    *logger.Logger
}

func NewWidgetCache(client *goredis.Client, log *logger.Logger) *WidgetCache {
	return &WidgetCache{client: client, log: log}
}

// GetMany bulk-resolves keys and splits them into hits and misses. A cache
// error never fails the batch: the whole lookup degrades to misses and the
// caller falls through to the store.
func (c *WidgetCache) GetMany(ctx context.Context, keys []domain.WidgetKey) ([]*domain.WidgetRecord, []domain.WidgetKey) {
	if len(keys) == 0 {
		return nil, nil
	}

	cacheKeys := make([]string, len(keys))
	for i, k := range keys {
		cacheKeys[i] = k.CacheKey()
	}

	values, err := c.client.MGet(ctx, cacheKeys...).Result()
	if err != nil {
		c.log.Warnf("cache lookup failed, treating %d keys as misses: %s", len(keys), err)
		metrics.CacheMisses.Add(float64(len(keys)))
		return nil, keys
	}

	var hits []*domain.WidgetRecord
	var misses []domain.WidgetKey
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			misses = append(misses, keys[i])
			continue
		}
		var record domain.WidgetRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			c.log.Warnf("corrupt cache entry %s, treating as miss: %s", cacheKeys[i], err)
			misses = append(misses, keys[i])
			continue
		}
		hits = append(hits, &record)
	}

	metrics.CacheHits.Add(float64(len(hits)))
	metrics.CacheMisses.Add(float64(len(misses)))
	return hits, misses
}

// Put stores a serialized copy of the record under its widget key.
func (c *WidgetCache) Put(ctx context.Context, record *domain.WidgetRecord, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, record.CacheKey(), data, ttl).Err()
}

// Invalidate removes the entry for key. Used when an authenticated write
// bypasses the pipeline and the cached copy can no longer be trusted.
func (c *WidgetCache) Invalidate(ctx context.Context, key domain.WidgetKey) error {
	return c.client.Del(ctx, key.CacheKey()).Err()
}
