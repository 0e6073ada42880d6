package controllers

import (
	"net/http"
	"strconv"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/modules/commercial/portefeuille/dto"
	"sofimed-core/internal/modules/commercial/portefeuille/services"
	clientServices "sofimed-core/internal/modules/core-services/client/services"
	"sofimed-core/internal/modules/core-services/scope"
	scopeServices "sofimed-core/internal/modules/core-services/scope/services"
	"sofimed-core/internal/shared/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var portefeuilleErrorStatus = map[string]int{
	"COMMERCIAL_NOT_FOUND":     http.StatusNotFound,
	"CLIENT_NOT_FOUND":         http.StatusNotFound,
	"PORTAL_ACCOUNT_NOT_FOUND": http.StatusNotFound,
}

type PortefeuilleController struct {
	service   *services.PortefeuilleService
	insights  *clientServices.ClientInsightService
	guard     *scopeServices.ScopeGuard
	validator *validator.Validate
}

func NewPortefeuilleController(
	service *services.PortefeuilleService,
	insights *clientServices.ClientInsightService,
	guard *scopeServices.ScopeGuard,
	cfg *config.Config,
) *PortefeuilleController {
	return &PortefeuilleController{
		service:   service,
		insights:  insights,
		guard:     guard,
		validator: utils.NewValidator(cfg.Bootstrap.DefaultPhoneRegion),
	}
}

// OverviewByUser - GET /api/commercials/user/:userId
func (c *PortefeuilleController) OverviewByUser(ctx *gin.Context) {
	userID, ok := utils.RequireUUIDParam(ctx, "userId")
	if !ok {
		return
	}

	actor := scope.ActorFrom(ctx)
	if !actor.IsBackOffice() && actor.UserID != userID {
		utils.RespondError(ctx, http.StatusForbidden, "FORBIDDEN", "Accès limité à votre propre profil", nil)
		return
	}

	result, err := c.service.OverviewByUser(ctx.Request.Context(), userID)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la récupération du profil commercial", portefeuilleErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// Clients - GET /api/commercials/:id/clients
func (c *PortefeuilleController) Clients(ctx *gin.Context) {
	commercialID, ok := c.commercialParam(ctx)
	if !ok {
		return
	}

	var query dto.ClientListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "INVALID_QUERY_PARAMS", "Paramètres invalides", nil)
		return
	}
	if validationErr := utils.ValidateStruct(c.validator, query); validationErr != nil {
		utils.RespondValidation(ctx, validationErr)
		return
	}

	result, err := c.service.Clients(ctx.Request.Context(), commercialID, query)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la récupération des clients", portefeuilleErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// Dashboard - GET /api/commercials/:id/dashboard
func (c *PortefeuilleController) Dashboard(ctx *gin.Context) {
	commercialID, ok := c.commercialParam(ctx)
	if !ok {
		return
	}
	refresh, _ := strconv.ParseBool(ctx.Query("refresh"))

	result, err := c.service.Dashboard(ctx.Request.Context(), commercialID, refresh)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors du calcul du tableau de bord commercial", portefeuilleErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// ClientStats - GET /api/client-stats/:clientId
func (c *PortefeuilleController) ClientStats(ctx *gin.Context) {
	clientID, ok := c.clientParam(ctx)
	if !ok {
		return
	}

	result, err := c.insights.ClientStats(ctx.Request.Context(), clientID)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors du calcul des statistiques client", portefeuilleErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// ClientUserID - GET /api/clients/:clientId/user-id
func (c *PortefeuilleController) ClientUserID(ctx *gin.Context) {
	clientID, ok := c.clientParam(ctx)
	if !ok {
		return
	}

	result, err := c.insights.PortalUserID(ctx.Request.Context(), clientID)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la récupération du compte client", portefeuilleErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusOK, result)
}

func (c *PortefeuilleController) commercialParam(ctx *gin.Context) (string, bool) {
	commercialID, ok := utils.RequireUUIDParam(ctx, "id")
	if !ok {
		return "", false
	}
	if err := c.guard.EnsureCommercial(ctx.Request.Context(), scope.ActorFrom(ctx), commercialID); err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors du contrôle d'accès", nil)
		return "", false
	}
	return commercialID, true
}

func (c *PortefeuilleController) clientParam(ctx *gin.Context) (string, bool) {
	clientID, ok := utils.RequireUUIDParam(ctx, "clientId")
	if !ok {
		return "", false
	}
	if err := c.guard.EnsureResource(ctx.Request.Context(), scope.ActorFrom(ctx), scopeServices.KindClient, clientID); err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors du contrôle d'accès", nil)
		return "", false
	}
	return clientID, true
}
