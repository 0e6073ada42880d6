package scope

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"sofimed-core/internal/modules/core-services/scope/dto"
	"sofimed-core/internal/modules/core-services/scope/queries"
	"sofimed-core/internal/modules/core-services/scope/services"
)

var Module = fx.Options(
	fx.Provide(
		fx.Annotate(queries.NewScopePostgresRepository, fx.As(new(services.ScopeRepository))),
		services.NewScopeGuard,
	),
)

// ActorFrom lit l'acteur posé par le middleware de session
func ActorFrom(c *gin.Context) dto.Actor {
	return dto.Actor{
		UserID: c.GetString("user_id"),
		Role:   c.GetString("user_role"),
	}
}
