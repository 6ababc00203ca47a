package recommendation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servicehub/models"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Cache stores ranked lists in Redis keyed by ranker, user and list size.
// A nil *Cache is a valid, disabled cache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache returns nil when ttl is not positive.
func NewCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func cacheKey(ranker string, userID int64, topN int) string {
	return fmt.Sprintf("recommend:%s:%d:%d", ranker, userID, topN)
}

// Get returns a cached list. Misses and Redis errors both report false.
func (c *Cache) Get(ctx context.Context, key string) ([]models.Recommendation, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Recommendation cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var recs []models.Recommendation
	if err := json.Unmarshal(data, &recs); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return recs, true
}

// Set stores recs under key for the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, recs []models.Recommendation) {
	if c == nil {
		return
	}
	data, err := json.Marshal(recs)
	if err != nil {
		c.logger.Warn("Failed to encode recommendations for cache", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Recommendation cache write failed", zap.String("key", key), zap.Error(err))
	}
}
