package negociation

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"sofimed-core/internal/modules/commercial/negociation/controllers"
	authMiddleware "sofimed-core/internal/shared/middleware/auth"
)

var Module = fx.Options(
	fx.Provide(controllers.NewNegociationController),
	fx.Invoke(RegisterNegociationRoutes),
)

func RegisterNegociationRoutes(
	r *gin.Engine,
	ctrl *controllers.NegociationController,
	authStack *authMiddleware.AuthMiddlewareStack,
) {
	negotiation := r.Group("/api/negotiation")
	negotiation.Use(authMiddleware.RequirePermission(authStack, "commercial.dashboard", "admin.devis", "predictions.analyse")...)
	{
		negotiation.GET("/devis/:id/analysis", ctrl.Analysis)
	}
}
