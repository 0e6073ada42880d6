package security

import (
	"regexp"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"sofimed-core/internal/app/config"
)

// CORSHandler type spécifique pour Fx
type CORSHandler gin.HandlerFunc

// Dashboard SofIMed et serveurs de développement locaux
var allowedOriginPattern = regexp.MustCompile(
	`^https?://([a-zA-Z0-9-]+\.)?(sofimed\.ma|localhost:(3000|5173|8080))$`,
)

// CORSMiddleware configure les règles CORS du dashboard
func CORSMiddleware(appConfig *config.Config) CORSHandler {
	corsConfig := appConfig.GetCORS()

	return CORSHandler(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return IsOriginAllowed(origin, corsConfig.AllowedOrigins)
		},

		AllowMethods: corsConfig.AllowedMethods,

		AllowHeaders: append(corsConfig.AllowedHeaders,
			"Authorization",
			"X-Request-Id"),

		ExposeHeaders: []string{
			"Content-Length",
			"Content-Disposition",
			"X-Request-Id",
			"Retry-After",
		},

		AllowCredentials: corsConfig.AllowCredentials,

		MaxAge: time.Duration(corsConfig.MaxAge) * time.Second,
	}))
}

// IsOriginAllowed accepte le domaine SofIMed, localhost et les origines configurées
func IsOriginAllowed(origin string, configured []string) bool {
	if allowedOriginPattern.MatchString(origin) {
		return true
	}
	for _, allowedOrigin := range configured {
		if origin == allowedOrigin || allowedOrigin == "*" {
			return true
		}
	}
	return false
}
