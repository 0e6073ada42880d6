package predictions

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	clientServices "sofimed-core/internal/modules/core-services/client/services"
	negotiationServices "sofimed-core/internal/modules/core-services/negotiation/services"
	"sofimed-core/internal/modules/predictions/controllers"
	"sofimed-core/internal/modules/predictions/queries"
	"sofimed-core/internal/modules/predictions/services"
	authMiddleware "sofimed-core/internal/shared/middleware/auth"
)

var Module = fx.Options(
	fx.Provide(
		fx.Annotate(queries.NewPredictionPostgresRepository, fx.As(new(services.DevisRepository))),
		fx.Annotate(queries.NewPredictionHTTPClient, fx.As(new(services.PredictionGateway))),
		fx.Annotate(queries.NewReportMongoStore, fx.As(new(services.ReportStore))),
		fx.Annotate(queries.NewReportLock, fx.As(new(services.ReportLocker))),
		func(insights *clientServices.ClientInsightService) services.ClientInsights { return insights },
		func(negotiation *negotiationServices.NegotiationService) services.NegotiationAnalyzer { return negotiation },
		services.NewPredictionService,
		controllers.NewPredictionController,
	),
	fx.Invoke(RegisterPredictionRoutes),
)

func RegisterPredictionRoutes(
	r *gin.Engine,
	ctrl *controllers.PredictionController,
	authStack *authMiddleware.AuthMiddlewareStack,
) {
	predictions := r.Group("/api/predictions")
	predictions.Use(authMiddleware.RequirePermission(authStack, "predictions.analyse")...)
	{
		predictions.POST("/analyze", ctrl.Analyze)
		predictions.POST("/devis/:id/report", ctrl.GenerateReport)
		predictions.GET("/devis/:id/reports", ctrl.History)
		predictions.GET("/reports/:reportId/pdf", ctrl.ReportPDF)
	}
}
