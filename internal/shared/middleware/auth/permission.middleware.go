package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"sofimed-core/internal/modules/auth/dto"
	"sofimed-core/internal/shared/utils"
)

// PermissionChecker vérifie un code de permission pour un utilisateur
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID, code string) (bool, error)
}

type PermissionMiddleware struct {
	checker PermissionChecker
}

// NewPermissionMiddleware crée une nouvelle instance du middleware de permissions
func NewPermissionMiddleware(checker PermissionChecker) *PermissionMiddleware {
	return &PermissionMiddleware{checker: checker}
}

// RequirePermission exige au moins un des codes; le super admin passe toujours
func (m *PermissionMiddleware) RequirePermission(codes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			m.respondPermissionError(c, "SESSION_REQUIRED",
				"Session requise pour vérifier les permissions", nil)
			return
		}

		if session.Role == dto.RoleSuperAdmin {
			c.Next()
			return
		}

		for _, code := range codes {
			hasAccess, err := m.checker.HasPermission(c.Request.Context(), session.UserID, code)
			if err != nil {
				_ = c.Error(err)
				utils.RespondError(c, http.StatusInternalServerError, "PERMISSION_CHECK_ERROR",
					"Erreur lors de la vérification des permissions", map[string]interface{}{
						"permission": code,
					})
				return
			}
			if hasAccess {
				c.Next()
				return
			}
		}

		m.respondPermissionError(c, "INSUFFICIENT_PERMISSIONS",
			"Permissions insuffisantes pour cette action", map[string]interface{}{
				"required_permission": codes,
			})
	}
}

// RequireRole restreint l'accès à certains rôles
func (m *PermissionMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			m.respondPermissionError(c, "SESSION_REQUIRED",
				"Session requise pour vérifier les permissions", nil)
			return
		}

		if !allowed[session.Role] {
			m.respondPermissionError(c, "INSUFFICIENT_PERMISSIONS",
				"Rôle non autorisé pour cette action", map[string]interface{}{
					"required_roles": roles,
					"role":           session.Role,
				})
			return
		}

		c.Next()
	}
}

func (m *PermissionMiddleware) respondPermissionError(c *gin.Context, code, message string, details map[string]interface{}) {
	utils.RespondError(c, http.StatusForbidden, code, message, details)
}
