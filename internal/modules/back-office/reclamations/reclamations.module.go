package reclamations

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"sofimed-core/internal/modules/back-office/reclamations/controllers"
	"sofimed-core/internal/modules/back-office/reclamations/queries"
	"sofimed-core/internal/modules/back-office/reclamations/services"
	authMiddleware "sofimed-core/internal/shared/middleware/auth"
)

var Module = fx.Options(
	fx.Provide(
		fx.Annotate(
			queries.NewReclamationMongoStore,
			fx.As(fx.Self()),
			fx.As(new(services.ReclamationStore)),
		),
		fx.Annotate(queries.NewReclamationSequence, fx.As(new(services.ReferenceSequence))),
	),
	fx.Provide(services.NewReclamationService),
	fx.Provide(controllers.NewReclamationController),
	fx.Invoke(RegisterReclamationRoutes),
)

func RegisterReclamationRoutes(
	r *gin.Engine,
	ctrl *controllers.ReclamationController,
	authStack *authMiddleware.AuthMiddlewareStack,
) {
	api := r.Group("/api/admin/reclamations")
	api.Use(authMiddleware.RequireAdmin(authStack)...)
	api.Use(authStack.Permission("admin.reclamations"))
	{
		api.GET("", ctrl.List)
		api.POST("", ctrl.Create)
		api.GET("/:id", ctrl.Get)
		api.PUT("/:id", ctrl.Update)
		api.PATCH("/:id/statut", ctrl.UpdateStatut)
		api.POST("/:id/reponses", ctrl.AddReponse)
		api.DELETE("/:id", ctrl.Delete)
	}
}
