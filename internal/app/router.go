package app

import (
	"net/http"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/infrastructure/logger"
	"sofimed-core/internal/shared/middleware/core"
	"sofimed-core/internal/shared/middleware/security"
	"sofimed-core/internal/shared/utils"

	"github.com/gin-gonic/gin"
)

func NewRouter(
	cfg *config.Config,
	requestID core.RequestIDHandler,
	recovery core.RecoveryHandler,
	cors security.CORSHandler,
	logMiddleware *logger.LoggerMiddleware,
) *gin.Engine {
	configureGinMode(cfg.Environment)

	// Pas de middlewares par défaut: l'ordre est fixé ici
	r := gin.New()
	r.MaxMultipartMemory = cfg.GetStorage().MaxUploadBytes

	r.Use(gin.HandlerFunc(requestID))
	r.Use(gin.HandlerFunc(recovery))
	r.Use(logMiddleware.GinLogger())
	r.Use(gin.HandlerFunc(cors))

	r.NoRoute(func(c *gin.Context) {
		utils.RespondError(c, http.StatusNotFound, "ROUTE_NOT_FOUND", "Ressource introuvable", nil)
	})

	return r
}

// configureGinMode configure le mode Gin selon l'environnement
func configureGinMode(environment string) {
	switch environment {
	case "docker":
		gin.SetMode(gin.ReleaseMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}
