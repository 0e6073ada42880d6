package queries

import (
	"context"
	"time"

	redisInfra "sofimed-core/internal/infrastructure/database/redis"
	"sofimed-core/internal/modules/back-office/dashboard/dto"
)

// DashboardRedisCache cache JSON par (département, période) et liste des départements
type DashboardRedisCache struct {
	redisClient *redisInfra.Client
}

func NewDashboardRedisCache(redisClient *redisInfra.Client) *DashboardRedisCache {
	return &DashboardRedisCache{redisClient: redisClient}
}

func (c *DashboardRedisCache) GetDashboard(ctx context.Context, key string, dest *dto.DashboardResponse) (bool, error) {
	return c.redisClient.GetJSON(ctx, c.redisClient.Keys().MustKey("cache_dashboard", key), dest)
}

func (c *DashboardRedisCache) SetDashboard(ctx context.Context, key string, value *dto.DashboardResponse, ttl time.Duration) error {
	if ttl <= 0 {
		seconds, _ := c.redisClient.Keys().GetTTL("cache_dashboard")
		ttl = time.Duration(seconds) * time.Second
	}
	return c.redisClient.SetJSON(ctx, c.redisClient.Keys().MustKey("cache_dashboard", key), value, ttl)
}

func (c *DashboardRedisCache) GetDepartements(ctx context.Context) ([]string, bool) {
	var departements []string
	hit, err := c.redisClient.GetJSON(ctx, c.redisClient.Keys().MustKey("cache_departements"), &departements)
	if err != nil || !hit {
		return nil, false
	}
	return departements, true
}

func (c *DashboardRedisCache) SetDepartements(ctx context.Context, departements []string) error {
	seconds, _ := c.redisClient.Keys().GetTTL("cache_departements")
	return c.redisClient.SetJSON(ctx, c.redisClient.Keys().MustKey("cache_departements"), departements, time.Duration(seconds)*time.Second)
}
