package client

import (
	"go.uber.org/fx"

	"sofimed-core/internal/modules/core-services/client/queries"
	"sofimed-core/internal/modules/core-services/client/services"
)

var Module = fx.Options(
	fx.Provide(
		fx.Annotate(queries.NewClientPostgresRepository, fx.As(new(services.ClientRepository))),
		fx.Annotate(queries.NewInsightRedisCache, fx.As(new(services.InsightCache))),
		services.NewClientInsightService,
	),
)
