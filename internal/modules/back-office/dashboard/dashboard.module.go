package dashboard

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"sofimed-core/internal/modules/back-office/dashboard/controllers"
	"sofimed-core/internal/modules/back-office/dashboard/queries"
	"sofimed-core/internal/modules/back-office/dashboard/services"
	authMiddleware "sofimed-core/internal/shared/middleware/auth"
)

var Module = fx.Options(
	fx.Provide(
		fx.Annotate(queries.NewDashboardPostgresRepository, fx.As(new(services.DashboardRepository))),
		fx.Annotate(queries.NewDashboardRedisCache, fx.As(new(services.DashboardCache))),
	),
	fx.Provide(services.NewDashboardService),
	fx.Provide(controllers.NewDashboardController),
	fx.Invoke(RegisterDashboardRoutes),
)

func RegisterDashboardRoutes(
	r *gin.Engine,
	ctrl *controllers.DashboardController,
	authStack *authMiddleware.AuthMiddlewareStack,
) {
	api := r.Group("/api/admin")
	api.Use(authMiddleware.RequireAdmin(authStack)...)
	api.Use(authStack.Permission("admin.dashboard"))
	{
		api.GET("/dashboard", ctrl.GetDashboard)
		api.GET("/dashboard/export", ctrl.ExportDashboard)
		api.GET("/departements", ctrl.ListDepartements)
	}
}
