package negotiation

import (
	"go.uber.org/fx"

	"sofimed-core/internal/modules/core-services/negotiation/queries"
	"sofimed-core/internal/modules/core-services/negotiation/services"
)

var Module = fx.Options(
	fx.Provide(
		fx.Annotate(queries.NewNegotiationPostgresRepository, fx.As(new(services.NegotiationRepository))),
		services.NewNegotiationService,
	),
)
