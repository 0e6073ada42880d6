package utils

import (
	"github.com/gin-gonic/gin"
)

// RespondError envoie l'enveloppe d'erreur standard et interrompt la chaîne
func RespondError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	payload := map[string]interface{}{
		"code": code,
	}
	for k, v := range details {
		payload[k] = v
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error":   message,
		"details": payload,
	})
}

// RespondValidation renvoie un 400 avec le détail des champs invalides
func RespondValidation(c *gin.Context, validationErr *ValidationError) {
	c.AbortWithStatusJSON(400, gin.H{
		"error":   "Données invalides",
		"details": validationErr,
	})
}

func RespondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}
