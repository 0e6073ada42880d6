package controllers

import (
	"net/http"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/modules/back-office/reclamations/dto"
	"sofimed-core/internal/modules/back-office/reclamations/services"
	"sofimed-core/internal/shared/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var reclamationErrorStatus = map[string]int{
	"RECLAMATION_NOT_FOUND": http.StatusNotFound,
	"RECLAMATION_CLOSED":    http.StatusConflict,
}

type ReclamationController struct {
	service   *services.ReclamationService
	validator *validator.Validate
}

func NewReclamationController(service *services.ReclamationService, cfg *config.Config) *ReclamationController {
	return &ReclamationController{
		service:   service,
		validator: utils.NewValidator(cfg.Bootstrap.DefaultPhoneRegion),
	}
}

// List - GET /api/admin/reclamations
func (c *ReclamationController) List(ctx *gin.Context) {
	var query dto.ReclamationQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "INVALID_QUERY_PARAMS", "Paramètres invalides", nil)
		return
	}
	if validationErr := utils.ValidateStruct(c.validator, query); validationErr != nil {
		utils.RespondValidation(ctx, validationErr)
		return
	}

	result, err := c.service.List(ctx.Request.Context(), query)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la récupération des réclamations", reclamationErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// Get - GET /api/admin/reclamations/:id
func (c *ReclamationController) Get(ctx *gin.Context) {
	id, ok := utils.RequireUUIDParam(ctx, "id")
	if !ok {
		return
	}

	result, err := c.service.Get(ctx.Request.Context(), id)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la récupération de la réclamation", reclamationErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// Create - POST /api/admin/reclamations
func (c *ReclamationController) Create(ctx *gin.Context) {
	var req dto.CreateReclamationRequest
	if !c.bind(ctx, &req) {
		return
	}

	result, err := c.service.Create(ctx.Request.Context(), req, ctx.GetString("user_id"))
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la création de la réclamation", reclamationErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusCreated, result)
}

// Update - PUT /api/admin/reclamations/:id
func (c *ReclamationController) Update(ctx *gin.Context) {
	id, ok := utils.RequireUUIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateReclamationRequest
	if !c.bind(ctx, &req) {
		return
	}

	result, err := c.service.Update(ctx.Request.Context(), id, req)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la mise à jour de la réclamation", reclamationErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// UpdateStatut - PATCH /api/admin/reclamations/:id/statut
func (c *ReclamationController) UpdateStatut(ctx *gin.Context) {
	id, ok := utils.RequireUUIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateStatutRequest
	if !c.bind(ctx, &req) {
		return
	}

	result, err := c.service.UpdateStatut(ctx.Request.Context(), id, req)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors du changement de statut", reclamationErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// AddReponse - POST /api/admin/reclamations/:id/reponses
func (c *ReclamationController) AddReponse(ctx *gin.Context) {
	id, ok := utils.RequireUUIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.AddReponseRequest
	if !c.bind(ctx, &req) {
		return
	}

	result, err := c.service.AddReponse(ctx.Request.Context(), id, ctx.GetString("user_id"), ctx.GetString("user_role"), req)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de l'ajout de la réponse", reclamationErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusCreated, result)
}

// Delete - DELETE /api/admin/reclamations/:id
func (c *ReclamationController) Delete(ctx *gin.Context) {
	id, ok := utils.RequireUUIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.service.Delete(ctx.Request.Context(), id); err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la suppression de la réclamation", reclamationErrorStatus)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Réclamation supprimée",
	})
}

func (c *ReclamationController) bind(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "INVALID_REQUEST_FORMAT", "Format de requête invalide", nil)
		return false
	}
	if validationErr := utils.ValidateStruct(c.validator, req); validationErr != nil {
		utils.RespondValidation(ctx, validationErr)
		return false
	}
	return true
}
