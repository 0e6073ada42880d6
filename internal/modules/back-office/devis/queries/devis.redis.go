package queries

import (
	"context"

	redisInfra "sofimed-core/internal/infrastructure/database/redis"
)

// DevisCacheInvalidator purge les agrégats qui comptent les devis
type DevisCacheInvalidator struct {
	redisClient *redisInfra.Client
}

func NewDevisCacheInvalidator(redisClient *redisInfra.Client) *DevisCacheInvalidator {
	return &DevisCacheInvalidator{redisClient: redisClient}
}

func (i *DevisCacheInvalidator) InvalidateAggregates(ctx context.Context) error {
	if err := i.redisClient.DeleteByPattern(ctx, "cache_dashboard"); err != nil {
		return err
	}
	return i.redisClient.DeleteByPattern(ctx, "cache_commercial")
}
