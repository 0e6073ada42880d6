package users

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	authServices "sofimed-core/internal/modules/auth/services"
	controllers "sofimed-core/internal/modules/back-office/users/controllers/comptes"
	queries "sofimed-core/internal/modules/back-office/users/queries/comptes"
	services "sofimed-core/internal/modules/back-office/users/services/comptes"
	authMiddleware "sofimed-core/internal/shared/middleware/auth"
)

var Module = fx.Options(
	fx.Provide(
		fx.Annotate(queries.NewComptesPostgresRepository, fx.As(new(services.ComptesRepository))),
		func(s *authServices.SessionService) services.SessionRevoker { return s },
		func(p *authServices.PermissionService) services.PermissionInvalidator { return p },
	),
	fx.Provide(services.NewComptesService),
	fx.Provide(controllers.NewComptesController),
	fx.Invoke(RegisterUsersRoutes),
)

func RegisterUsersRoutes(
	r *gin.Engine,
	ctrl *controllers.ComptesController,
	authStack *authMiddleware.AuthMiddlewareStack,
) {
	api := r.Group("/api/users")
	api.Use(authMiddleware.RequireAdmin(authStack)...)
	{
		api.GET("", authStack.Permission("admin.users"), ctrl.ListUsers)
		api.GET("/admins", authStack.Permission("admin.users", "admin.permissions"), ctrl.ListAdmins)
		api.POST("/admins", authStack.Permission("admin.users"), ctrl.CreateAdmin)
		api.POST("/commercials", authStack.Permission("admin.users"), ctrl.CreateCommercial)
		api.PUT("/:id/permissions", authStack.Permission("admin.permissions"), ctrl.ModifyUserPermissions)
		api.PATCH("/:id/statut", authStack.Permission("admin.users"), ctrl.UpdateUserStatut)
	}

	adminAPI := r.Group("/api/admin/permissions")
	adminAPI.Use(authMiddleware.RequirePermission(authStack, "admin.permissions")...)
	{
		adminAPI.GET("/all", ctrl.GetPermissionsOverview)
	}
}
