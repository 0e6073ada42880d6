package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequireUUIDParam lit un paramètre de route UUID; répond 400 INVALID_ID sinon
func RequireUUIDParam(c *gin.Context, name string) (string, bool) {
	raw := c.Param(name)
	parsed, err := uuid.Parse(raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "Identifiant invalide", map[string]interface{}{
			"param": name,
		})
		return "", false
	}
	return parsed.String(), true
}
