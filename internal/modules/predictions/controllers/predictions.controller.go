package controllers

import (
	"fmt"
	"net/http"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/modules/core-services/scope"
	scopeServices "sofimed-core/internal/modules/core-services/scope/services"
	"sofimed-core/internal/modules/predictions/dto"
	"sofimed-core/internal/modules/predictions/services"
	"sofimed-core/internal/shared/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var predictionErrorStatus = map[string]int{
	"DEVIS_NOT_FOUND":          http.StatusNotFound,
	"CLIENT_NOT_FOUND":         http.StatusNotFound,
	"REPORT_NOT_FOUND":         http.StatusNotFound,
	"REPORT_IN_PROGRESS":       http.StatusConflict,
	"PREDICTION_SERVICE_ERROR": http.StatusBadGateway,
	"PREDICTION_TIMEOUT":       http.StatusGatewayTimeout,
}

type PredictionController struct {
	service   *services.PredictionService
	guard     *scopeServices.ScopeGuard
	validator *validator.Validate
}

func NewPredictionController(service *services.PredictionService, guard *scopeServices.ScopeGuard, cfg *config.Config) *PredictionController {
	return &PredictionController{
		service:   service,
		guard:     guard,
		validator: utils.NewValidator(cfg.Bootstrap.DefaultPhoneRegion),
	}
}

// Analyze - POST /api/predictions/analyze
func (c *PredictionController) Analyze(ctx *gin.Context) {
	var req dto.AnalyzeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "INVALID_REQUEST_FORMAT", "Format de requête invalide", nil)
		return
	}
	if validationErr := utils.ValidateStruct(c.validator, req); validationErr != nil {
		utils.RespondValidation(ctx, validationErr)
		return
	}
	if !c.ensureDevis(ctx, req.DevisID) {
		return
	}

	result, err := c.service.Analyze(ctx.Request.Context(), req.DevisID)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de l'analyse prédictive", predictionErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// GenerateReport - POST /api/predictions/devis/:id/report
func (c *PredictionController) GenerateReport(ctx *gin.Context) {
	devisID, ok := c.devisParam(ctx)
	if !ok {
		return
	}

	result, err := c.service.GenerateReport(ctx.Request.Context(), devisID, ctx.GetString("user_id"))
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la génération du rapport", predictionErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusCreated, result)
}

// History - GET /api/predictions/devis/:id/reports
func (c *PredictionController) History(ctx *gin.Context) {
	devisID, ok := c.devisParam(ctx)
	if !ok {
		return
	}

	result, err := c.service.History(ctx.Request.Context(), devisID)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la récupération de l'historique", predictionErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// ReportPDF - GET /api/predictions/reports/:reportId/pdf
func (c *PredictionController) ReportPDF(ctx *gin.Context) {
	reportID, ok := utils.RequireUUIDParam(ctx, "reportId")
	if !ok {
		return
	}

	report, err := c.service.Report(ctx.Request.Context(), reportID)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la récupération du rapport", predictionErrorStatus)
		return
	}
	if !c.ensureDevis(ctx, report.DevisID) {
		return
	}

	content, err := services.RenderPDF(*report)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors du rendu PDF", predictionErrorStatus)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="analyse_%s.pdf"`, report.DevisReference))
	ctx.Data(http.StatusOK, "application/pdf", content)
}

func (c *PredictionController) devisParam(ctx *gin.Context) (string, bool) {
	devisID, ok := utils.RequireUUIDParam(ctx, "id")
	if !ok {
		return "", false
	}
	return devisID, c.ensureDevis(ctx, devisID)
}

func (c *PredictionController) ensureDevis(ctx *gin.Context, devisID string) bool {
	err := c.guard.EnsureResource(ctx.Request.Context(), scope.ActorFrom(ctx), scopeServices.KindDevis, devisID)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors du contrôle d'accès", nil)
		return false
	}
	return true
}
