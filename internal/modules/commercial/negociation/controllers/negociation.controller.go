package controllers

import (
	"net/http"

	"sofimed-core/internal/modules/core-services/negotiation/services"
	"sofimed-core/internal/modules/core-services/scope"
	scopeServices "sofimed-core/internal/modules/core-services/scope/services"
	"sofimed-core/internal/shared/utils"

	"github.com/gin-gonic/gin"
)

var negociationErrorStatus = map[string]int{
	"DEVIS_NOT_FOUND": http.StatusNotFound,
}

type NegociationController struct {
	service *services.NegotiationService
	guard   *scopeServices.ScopeGuard
}

func NewNegociationController(service *services.NegotiationService, guard *scopeServices.ScopeGuard) *NegociationController {
	return &NegociationController{service: service, guard: guard}
}

// Analysis - GET /api/negotiation/devis/:id/analysis
func (c *NegociationController) Analysis(ctx *gin.Context) {
	devisID, ok := utils.RequireUUIDParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.guard.EnsureResource(ctx.Request.Context(), scope.ActorFrom(ctx), scopeServices.KindDevis, devisID); err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors du contrôle d'accès", nil)
		return
	}

	result, err := c.service.AnalyzeDevis(ctx.Request.Context(), devisID)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de l'analyse de la négociation", negociationErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusOK, result)
}
