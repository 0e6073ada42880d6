package devis

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"sofimed-core/internal/modules/back-office/devis/controllers"
	"sofimed-core/internal/modules/back-office/devis/queries"
	"sofimed-core/internal/modules/back-office/devis/services"
	authMiddleware "sofimed-core/internal/shared/middleware/auth"
)

var Module = fx.Options(
	fx.Provide(
		fx.Annotate(queries.NewDevisPostgresRepository, fx.As(new(services.DevisRepository))),
		fx.Annotate(queries.NewDevisCacheInvalidator, fx.As(new(services.AggregateInvalidator))),
	),
	fx.Provide(services.NewDevisService),
	fx.Provide(controllers.NewDevisController),
	fx.Invoke(RegisterDevisRoutes),
)

func RegisterDevisRoutes(
	r *gin.Engine,
	ctrl *controllers.DevisController,
	authStack *authMiddleware.AuthMiddlewareStack,
) {
	api := r.Group("/api/admin/devis")
	api.Use(authMiddleware.RequireAdmin(authStack)...)
	api.Use(authStack.Permission("admin.devis"))
	{
		api.GET("", ctrl.ListDevis)
		api.GET("/export", ctrl.ExportDevis)
		api.GET("/:id", ctrl.GetDevis)
		api.PATCH("/:id/statut", ctrl.UpdateStatut)
	}
}
