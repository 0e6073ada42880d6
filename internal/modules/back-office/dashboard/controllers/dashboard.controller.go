package controllers

import (
	"net/http"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/modules/back-office/dashboard/dto"
	"sofimed-core/internal/modules/back-office/dashboard/services"
	"sofimed-core/internal/shared/export"
	"sofimed-core/internal/shared/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type DashboardController struct {
	service   *services.DashboardService
	validator *validator.Validate
}

func NewDashboardController(service *services.DashboardService, cfg *config.Config) *DashboardController {
	return &DashboardController{
		service:   service,
		validator: utils.NewValidator(cfg.Bootstrap.DefaultPhoneRegion),
	}
}

// GetDashboard - GET /api/admin/dashboard
func (c *DashboardController) GetDashboard(ctx *gin.Context) {
	query, ok := c.bindQuery(ctx)
	if !ok {
		return
	}

	result, err := c.service.GetDashboard(ctx.Request.Context(), query)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors du calcul du tableau de bord", nil)
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// ExportDashboard - GET /api/admin/dashboard/export
func (c *DashboardController) ExportDashboard(ctx *gin.Context) {
	query, ok := c.bindQuery(ctx)
	if !ok {
		return
	}

	content, err := c.service.ExportDashboard(ctx.Request.Context(), query)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de l'export du tableau de bord", nil)
		return
	}

	export.SendXLSX(ctx, "tableau_de_bord", content)
}

// ListDepartements - GET /api/admin/departements
func (c *DashboardController) ListDepartements(ctx *gin.Context) {
	departements, err := c.service.ListDepartements(ctx.Request.Context())
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la récupération des départements", nil)
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, departements)
}

func (c *DashboardController) bindQuery(ctx *gin.Context) (dto.DashboardQuery, bool) {
	var query dto.DashboardQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "INVALID_QUERY_PARAMS", "Paramètres invalides", nil)
		return query, false
	}
	if validationErr := utils.ValidateStruct(c.validator, query); validationErr != nil {
		utils.RespondValidation(ctx, validationErr)
		return query, false
	}
	return query, true
}
