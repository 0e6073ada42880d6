package consultations

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"sofimed-core/internal/infrastructure/storage"
	"sofimed-core/internal/modules/commercial/consultations/controllers"
	"sofimed-core/internal/modules/commercial/consultations/queries"
	"sofimed-core/internal/modules/commercial/consultations/services"
	authMiddleware "sofimed-core/internal/shared/middleware/auth"
)

var Module = fx.Options(
	fx.Provide(
		fx.Annotate(queries.NewConsultationPostgresRepository, fx.As(new(services.ConsultationRepository))),
		func(files *storage.LocalStorage) services.AttachmentStore { return files },
		services.NewConsultationService,
		controllers.NewConsultationController,
	),
	fx.Invoke(RegisterConsultationRoutes),
)

func RegisterConsultationRoutes(
	r *gin.Engine,
	ctrl *controllers.ConsultationController,
	authStack *authMiddleware.AuthMiddlewareStack,
) {
	consultations := r.Group("/api/consultations")
	consultations.Use(authMiddleware.RequirePermission(authStack, "commercial.consultations")...)
	{
		consultations.GET("/commercial/:commercialId", ctrl.ListThreads)
		consultations.GET("/download/:file", ctrl.Download)
		consultations.GET("/:id", ctrl.GetThread)
		consultations.POST("/:id/reply", ctrl.Reply)
	}

	indicators := r.Group("/api")
	indicators.Use(authMiddleware.RequirePermission(authStack, "commercial.consultations", "predictions.analyse")...)
	{
		indicators.GET("/messages/temps-reponse-moyen-client/:devisId", ctrl.MeanClientResponseTime)
		indicators.GET("/sessions/totalDuration/:clientId", ctrl.TotalSessionDuration)
	}
}
