package auth

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"sofimed-core/internal/modules/auth/controllers"
	"sofimed-core/internal/modules/auth/queries"
	"sofimed-core/internal/modules/auth/services"
	authMiddleware "sofimed-core/internal/shared/middleware/auth"
)

// Module regroupe tous les providers du domaine Auth
var Module = fx.Options(
	// Stockage
	fx.Provide(
		fx.Annotate(
			queries.NewPostgresUserRepository,
			fx.As(new(services.UserRepository)),
			fx.As(new(services.PermissionRepository)),
		),
		fx.Annotate(queries.NewRedisSessionStore, fx.As(new(services.SessionStore))),
		fx.Annotate(queries.NewRedisLoginLimiter, fx.As(new(services.LoginLimiter))),
		fx.Annotate(queries.NewRedisPermissionCache, fx.As(new(services.PermissionCache))),
	),

	// Services, exposés aussi aux middlewares sous forme d'interfaces
	fx.Provide(
		fx.Annotate(
			services.NewPermissionService,
			fx.As(fx.Self()),
			fx.As(new(authMiddleware.PermissionChecker)),
		),
		fx.Annotate(
			services.NewSessionService,
			fx.As(fx.Self()),
			fx.As(new(authMiddleware.SessionValidator)),
		),
		services.NewAuthService,
	),

	// Controllers
	fx.Provide(controllers.NewAuthController),

	// Configuration des routes
	fx.Invoke(RegisterAuthRoutes),
)

// RegisterAuthRoutes configure les routes Gin pour l'authentification
func RegisterAuthRoutes(
	r *gin.Engine,
	authController *controllers.AuthController,
	authStack *authMiddleware.AuthMiddlewareStack,
) {
	authAPI := r.Group("/api/auth")
	{
		authAPI.POST("/login", authController.Login)
		authAPI.POST("/logout", authController.Logout)
	}

	protectedAuthAPI := r.Group("/api/auth")
	protectedAuthAPI.Use(authMiddleware.Protected(authStack)...)
	{
		protectedAuthAPI.GET("/me", authController.Me)
		protectedAuthAPI.PUT("/password", authController.ChangePassword)
	}
}
