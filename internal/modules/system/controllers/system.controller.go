package controllers

import (
	"net/http"

	"sofimed-core/internal/modules/system/dto"
	"sofimed-core/internal/modules/system/services"
	"sofimed-core/internal/shared/utils"

	"github.com/gin-gonic/gin"
)

type SystemController struct {
	service *services.SystemService
}

func NewSystemController(service *services.SystemService) *SystemController {
	return &SystemController{
		service: service,
	}
}

// Health - GET /health (processus vivant, aucune dépendance sondée)
func (c *SystemController) Health(ctx *gin.Context) {
	utils.RespondSuccess(ctx, http.StatusOK, gin.H{"status": "healthy"})
}

// Ready - GET /ready
// 503 si PostgreSQL ou Redis est indisponible; MongoDB en panne donne seulement "degraded"
func (c *SystemController) Ready(ctx *gin.Context) {
	readiness := c.service.Readiness(ctx.Request.Context())

	status := http.StatusOK
	if readiness.Status == dto.StatusNotReady {
		status = http.StatusServiceUnavailable
	}
	ctx.JSON(status, gin.H{
		"success": status == http.StatusOK,
		"data":    readiness,
	})
}

// GetSystemInfo - GET /api/system/info
func (c *SystemController) GetSystemInfo(ctx *gin.Context) {
	info, err := c.service.Info(ctx.Request.Context())
	if err != nil {
		_ = ctx.Error(err)
		utils.RespondError(ctx, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Erreur récupération informations système", nil)
		return
	}

	ctx.JSON(http.StatusOK, dto.StandardAPIResponse{
		Success: true,
		Data:    info,
		Alertes: c.service.GenerateAlertes(info),
	})
}
