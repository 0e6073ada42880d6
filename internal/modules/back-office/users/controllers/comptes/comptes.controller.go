package comptes

import (
	"net/http"

	"sofimed-core/internal/app/config"
	dto "sofimed-core/internal/modules/back-office/users/dto/comptes"
	services "sofimed-core/internal/modules/back-office/users/services/comptes"
	"sofimed-core/internal/shared/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var comptesErrorStatus = map[string]int{
	"DUPLICATE_IDENTIFIER":            http.StatusConflict,
	"USER_NOT_FOUND":                  http.StatusNotFound,
	"SELF_MODIFICATION_FORBIDDEN":     http.StatusForbidden,
	"SUPER_ADMIN_IMMUTABLE":           http.StatusForbidden,
	"UNKNOWN_PERMISSION":              http.StatusBadRequest,
	"PERMISSION_NOT_ALLOWED_FOR_ROLE": http.StatusUnprocessableEntity,
}

type ComptesController struct {
	service   *services.ComptesService
	validator *validator.Validate
}

func NewComptesController(service *services.ComptesService, cfg *config.Config) *ComptesController {
	return &ComptesController{
		service:   service,
		validator: utils.NewValidator(cfg.Bootstrap.DefaultPhoneRegion),
	}
}

// ListUsers - GET /api/users
func (c *ComptesController) ListUsers(ctx *gin.Context) {
	var filters dto.UserListFilters
	if err := ctx.ShouldBindQuery(&filters); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "INVALID_QUERY_PARAMS", "Paramètres de recherche invalides", nil)
		return
	}
	if validationErr := utils.ValidateStruct(c.validator, filters); validationErr != nil {
		utils.RespondValidation(ctx, validationErr)
		return
	}

	result, err := c.service.ListUsers(ctx.Request.Context(), filters)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la récupération des utilisateurs", comptesErrorStatus)
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// ListAdmins - GET /api/users/admins
func (c *ComptesController) ListAdmins(ctx *gin.Context) {
	admins, err := c.service.ListAdmins(ctx.Request.Context())
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la récupération des administrateurs", comptesErrorStatus)
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, admins)
}

// GetPermissionsOverview - GET /api/admin/permissions/all
func (c *ComptesController) GetPermissionsOverview(ctx *gin.Context) {
	result, err := c.service.GetPermissionsOverview(ctx.Request.Context())
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la récupération des permissions", comptesErrorStatus)
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// CreateAdmin - POST /api/users/admins
func (c *ComptesController) CreateAdmin(ctx *gin.Context) {
	var req dto.CreateAdminRequest
	if !c.bind(ctx, &req) {
		return
	}

	result, err := c.service.CreateAdmin(ctx.Request.Context(), req, ctx.GetString("user_id"))
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la création de l'administrateur", comptesErrorStatus)
		return
	}

	utils.RespondSuccess(ctx, http.StatusCreated, result)
}

// CreateCommercial - POST /api/users/commercials
func (c *ComptesController) CreateCommercial(ctx *gin.Context) {
	var req dto.CreateCommercialRequest
	if !c.bind(ctx, &req) {
		return
	}

	result, err := c.service.CreateCommercial(ctx.Request.Context(), req, ctx.GetString("user_id"))
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la création du commercial", comptesErrorStatus)
		return
	}

	utils.RespondSuccess(ctx, http.StatusCreated, result)
}

// ModifyUserPermissions - PUT /api/users/:id/permissions
func (c *ComptesController) ModifyUserPermissions(ctx *gin.Context) {
	userID, ok := utils.RequireUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.ModifyPermissionsRequest
	if !c.bind(ctx, &req) {
		return
	}

	result, err := c.service.ModifyPermissions(ctx.Request.Context(), userID, ctx.GetString("user_id"), req)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la modification des permissions", comptesErrorStatus)
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// UpdateUserStatut - PATCH /api/users/:id/statut
func (c *ComptesController) UpdateUserStatut(ctx *gin.Context) {
	userID, ok := utils.RequireUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateStatutRequest
	if !c.bind(ctx, &req) {
		return
	}

	result, err := c.service.UpdateStatut(ctx.Request.Context(), userID, ctx.GetString("user_id"), req)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors du changement de statut", comptesErrorStatus)
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, result)
}

func (c *ComptesController) bind(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "INVALID_REQUEST_FORMAT", "Format de requête invalide", map[string]interface{}{
			"message": err.Error(),
		})
		return false
	}
	if validationErr := utils.ValidateStruct(c.validator, req); validationErr != nil {
		utils.RespondValidation(ctx, validationErr)
		return false
	}
	return true
}
