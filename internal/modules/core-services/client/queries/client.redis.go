package queries

import (
	"context"
	"time"

	redisInfra "sofimed-core/internal/infrastructure/database/redis"
)

// InsightRedisCache cache JSON des agrégats commerciaux (pattern cache_commercial)
type InsightRedisCache struct {
	redisClient *redisInfra.Client
}

func NewInsightRedisCache(redisClient *redisInfra.Client) *InsightRedisCache {
	return &InsightRedisCache{redisClient: redisClient}
}

func (c *InsightRedisCache) Get(ctx context.Context, identifier string, dest interface{}) (bool, error) {
	return c.redisClient.GetJSON(ctx, c.redisClient.Keys().MustKey("cache_commercial", identifier), dest)
}

func (c *InsightRedisCache) Set(ctx context.Context, identifier string, value interface{}) error {
	seconds, _ := c.redisClient.Keys().GetTTL("cache_commercial")
	return c.redisClient.SetJSON(ctx, c.redisClient.Keys().MustKey("cache_commercial", identifier), value, time.Duration(seconds)*time.Second)
}
