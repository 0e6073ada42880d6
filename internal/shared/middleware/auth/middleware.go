package auth

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"sofimed-core/internal/modules/auth/dto"
)

// AuthMiddlewareStack représente la pile de middlewares d'authentification
type AuthMiddlewareStack struct {
	SessionMiddleware    *SessionMiddleware
	PermissionMiddleware *PermissionMiddleware
}

// NewAuthMiddlewareStack crée une nouvelle pile de middlewares
func NewAuthMiddlewareStack(sessions SessionValidator, checker PermissionChecker) *AuthMiddlewareStack {
	return &AuthMiddlewareStack{
		SessionMiddleware:    NewSessionMiddleware(sessions),
		PermissionMiddleware: NewPermissionMiddleware(checker),
	}
}

// ApplyBasicAuth session seule
func (stack *AuthMiddlewareStack) ApplyBasicAuth() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		stack.SessionMiddleware.Handler(),
	}
}

// ApplyPermissionAuth session + au moins une des permissions
func (stack *AuthMiddlewareStack) ApplyPermissionAuth(codes ...string) []gin.HandlerFunc {
	return append(stack.ApplyBasicAuth(), stack.PermissionMiddleware.RequirePermission(codes...))
}

// ApplyRoleAuth session + rôle
func (stack *AuthMiddlewareStack) ApplyRoleAuth(roles ...string) []gin.HandlerFunc {
	return append(stack.ApplyBasicAuth(), stack.PermissionMiddleware.RequireRole(roles...))
}

// Permission contrôle de permission seul, à placer derrière une session
func (stack *AuthMiddlewareStack) Permission(codes ...string) gin.HandlerFunc {
	return stack.PermissionMiddleware.RequirePermission(codes...)
}

// Module Fx pour l'injection de dépendances
var AuthMiddlewareModule = fx.Options(
	fx.Provide(NewAuthMiddlewareStack),
)

// Helpers pour les routes courantes

// Protected applique l'authentification de base
func Protected(stack *AuthMiddlewareStack) []gin.HandlerFunc {
	return stack.ApplyBasicAuth()
}

// RequirePermission session + permission
func RequirePermission(stack *AuthMiddlewareStack, codes ...string) []gin.HandlerFunc {
	return stack.ApplyPermissionAuth(codes...)
}

// RequireAdmin réservé au back-office (admin et super admin)
func RequireAdmin(stack *AuthMiddlewareStack) []gin.HandlerFunc {
	return stack.ApplyRoleAuth(dto.RoleSuperAdmin, dto.RoleAdmin)
}

// RequireSuperAdmin réservé au super admin
func RequireSuperAdmin(stack *AuthMiddlewareStack) []gin.HandlerFunc {
	return stack.ApplyRoleAuth(dto.RoleSuperAdmin)
}
