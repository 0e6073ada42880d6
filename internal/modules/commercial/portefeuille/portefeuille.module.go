package portefeuille

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"sofimed-core/internal/modules/commercial/portefeuille/controllers"
	"sofimed-core/internal/modules/commercial/portefeuille/queries"
	"sofimed-core/internal/modules/commercial/portefeuille/services"
	authMiddleware "sofimed-core/internal/shared/middleware/auth"
)

var Module = fx.Options(
	fx.Provide(
		fx.Annotate(queries.NewPortefeuillePostgresRepository, fx.As(new(services.PortefeuilleRepository))),
		services.NewPortefeuilleService,
		controllers.NewPortefeuilleController,
	),
	fx.Invoke(RegisterPortefeuilleRoutes),
)

func RegisterPortefeuilleRoutes(
	r *gin.Engine,
	ctrl *controllers.PortefeuilleController,
	authStack *authMiddleware.AuthMiddlewareStack,
) {
	commercials := r.Group("/api/commercials")
	commercials.Use(authMiddleware.Protected(authStack)...)
	{
		commercials.GET("/user/:userId", authStack.Permission("commercial.dashboard", "admin.dashboard"), ctrl.OverviewByUser)
		commercials.GET("/:id/dashboard", authStack.Permission("commercial.dashboard", "admin.dashboard"), ctrl.Dashboard)
		commercials.GET("/:id/clients", authStack.Permission("commercial.clients", "admin.dashboard"), ctrl.Clients)
	}

	clients := r.Group("/api")
	clients.Use(authMiddleware.RequirePermission(authStack, "commercial.clients", "admin.dashboard")...)
	{
		clients.GET("/client-stats/:clientId", ctrl.ClientStats)
		clients.GET("/clients/:clientId/user-id", ctrl.ClientUserID)
	}
}
