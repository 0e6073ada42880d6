package system

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"sofimed-core/internal/modules/system/controllers"
	"sofimed-core/internal/modules/system/queries"
	"sofimed-core/internal/modules/system/services"
	authMiddleware "sofimed-core/internal/shared/middleware/auth"
)

// Module regroupe tous les providers du domaine System
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(queries.NewSystemPostgresRepository, fx.As(new(services.SystemRepository))),
		services.NewSystemService,
	),

	// Controllers
	fx.Provide(controllers.NewSystemController),

	// Configuration des routes
	fx.Invoke(RegisterSystemRoutes),
)

// RegisterSystemRoutes sondes publiques et informations système réservées aux administrateurs
func RegisterSystemRoutes(
	r *gin.Engine,
	ctrl *controllers.SystemController,
	authStack *authMiddleware.AuthMiddlewareStack,
) {
	r.GET("/health", ctrl.Health)
	r.GET("/ready", ctrl.Ready)

	api := r.Group("/api/system")
	api.Use(authMiddleware.RequireAdmin(authStack)...)
	{
		api.GET("/info", ctrl.GetSystemInfo)
	}
}
