package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"sofimed-core/internal/modules/auth/dto"
	"sofimed-core/internal/shared/utils"
)

// SessionValidator valide un token opaque
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*dto.SessionData, error)
}

// SessionContext contient les informations de session injectées dans le contexte Gin
type SessionContext struct {
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
	Token        string `json:"token"`
	IPAddress    string `json:"ip_address"`
	UserAgent    string `json:"user_agent"`
	CreatedAt    string `json:"created_at"`
	LastActivity string `json:"last_activity"`
	ExpiresAt    string `json:"expires_at"`
}

// ToSessionData reconstruit la session pour les services
func (s SessionContext) ToSessionData() *dto.SessionData {
	return &dto.SessionData{
		UserID:       s.UserID,
		Role:         s.Role,
		IPAddress:    s.IPAddress,
		UserAgent:    s.UserAgent,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
		ExpiresAt:    s.ExpiresAt,
	}
}

type SessionMiddleware struct {
	sessions SessionValidator
}

// NewSessionMiddleware crée une nouvelle instance du middleware de session
func NewSessionMiddleware(sessions SessionValidator) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions}
}

// Handler retourne le middleware Gin pour la validation de session
func (m *SessionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Extraire le token Bearer
		token := ExtractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			utils.RespondError(c, http.StatusUnauthorized, "TOKEN_REQUIRED",
				"Token d'authentification requis", map[string]interface{}{
					"header_format": "Authorization: Bearer {token}",
				})
			return
		}

		// 2. Valider la session
		session, err := m.sessions.ValidateSession(c.Request.Context(), token)
		if err != nil {
			var authErr *dto.AuthError
			if errors.As(err, &authErr) {
				utils.RespondError(c, http.StatusUnauthorized, authErr.Code, authErr.Message, authErr.Details)
				return
			}

			_ = c.Error(err)
			utils.RespondError(c, http.StatusUnauthorized, "SESSION_VALIDATION_ERROR",
				"Erreur lors de la validation de la session", nil)
			return
		}

		// 3. Enrichir le contexte Gin
		sessionContext := SessionContext{
			UserID:       session.UserID,
			Role:         session.Role,
			Token:        token,
			IPAddress:    session.IPAddress,
			UserAgent:    session.UserAgent,
			CreatedAt:    session.CreatedAt,
			LastActivity: session.LastActivity,
			ExpiresAt:    session.ExpiresAt,
		}

		c.Set("session", sessionContext)
		c.Set("user_id", session.UserID)
		c.Set("user_role", session.Role)

		c.Next()
	}
}

// GetSession récupère la session posée par SessionMiddleware
func GetSession(c *gin.Context) (SessionContext, bool) {
	value, exists := c.Get("session")
	if !exists {
		return SessionContext{}, false
	}
	session, ok := value.(SessionContext)
	return session, ok
}

// ExtractBearerToken extrait le token depuis le header Authorization
func ExtractBearerToken(authHeader string) string {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
