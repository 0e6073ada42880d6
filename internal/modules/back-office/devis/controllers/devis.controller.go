package controllers

import (
	"net/http"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/modules/back-office/devis/dto"
	"sofimed-core/internal/modules/back-office/devis/services"
	"sofimed-core/internal/shared/export"
	"sofimed-core/internal/shared/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var devisErrorStatus = map[string]int{
	"DEVIS_NOT_FOUND": http.StatusNotFound,
}

type DevisController struct {
	service   *services.DevisService
	validator *validator.Validate
}

func NewDevisController(service *services.DevisService, cfg *config.Config) *DevisController {
	return &DevisController{
		service:   service,
		validator: utils.NewValidator(cfg.Bootstrap.DefaultPhoneRegion),
	}
}

// ListDevis - GET /api/admin/devis
func (c *DevisController) ListDevis(ctx *gin.Context) {
	query, ok := c.bindQuery(ctx)
	if !ok {
		return
	}

	result, err := c.service.ListDevis(ctx.Request.Context(), query)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la récupération des devis", devisErrorStatus)
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// GetDevis - GET /api/admin/devis/:id
func (c *DevisController) GetDevis(ctx *gin.Context) {
	id, ok := utils.RequireUUIDParam(ctx, "id")
	if !ok {
		return
	}

	result, err := c.service.GetDevis(ctx.Request.Context(), id)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la récupération du devis", devisErrorStatus)
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// UpdateStatut - PATCH /api/admin/devis/:id/statut
func (c *DevisController) UpdateStatut(ctx *gin.Context) {
	id, ok := utils.RequireUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateStatutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "INVALID_REQUEST_FORMAT", "Format de requête invalide", nil)
		return
	}
	if validationErr := utils.ValidateStruct(c.validator, req); validationErr != nil {
		utils.RespondValidation(ctx, validationErr)
		return
	}

	result, err := c.service.UpdateStatut(ctx.Request.Context(), id, ctx.GetString("user_id"), req)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la mise à jour du devis", devisErrorStatus)
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// ExportDevis - GET /api/admin/devis/export
func (c *DevisController) ExportDevis(ctx *gin.Context) {
	query, ok := c.bindQuery(ctx)
	if !ok {
		return
	}

	content, err := c.service.ExportDevis(ctx.Request.Context(), query)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de l'export des devis", devisErrorStatus)
		return
	}

	export.SendXLSX(ctx, "devis", content)
}

func (c *DevisController) bindQuery(ctx *gin.Context) (dto.DevisListQuery, bool) {
	var query dto.DevisListQuery
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
