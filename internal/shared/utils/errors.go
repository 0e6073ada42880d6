package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ServiceError erreur métier portant un code stable exposé au client
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

func NewServiceError(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Codes communs à tous les modules; chaque contrôleur complète avec les siens
var defaultErrorStatus = map[string]int{
	"VALIDATION_ERROR":         http.StatusBadRequest,
	"INVALID_ID":               http.StatusBadRequest,
	"NOT_FOUND":                http.StatusNotFound,
	"FORBIDDEN":                http.StatusForbidden,
	"INSUFFICIENT_PERMISSIONS": http.StatusForbidden,
	"CONFLICT":                 http.StatusConflict,
	"INVALID_TRANSITION":       http.StatusConflict,
}

// RespondServiceError traduit une erreur de service en réponse HTTP.
// statuses surcharge la table par défaut; les erreurs non typées donnent 500.
func RespondServiceError(c *gin.Context, err error, fallbackMessage string, statuses map[string]int) {
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		_ = c.Error(err)
		RespondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallbackMessage, nil)
		return
	}

	status, ok := statuses[svcErr.Code]
	if !ok {
		status, ok = defaultErrorStatus[svcErr.Code]
	}
	if !ok {
		status = http.StatusBadRequest
	}

	RespondError(c, status, svcErr.Code, svcErr.Message, svcErr.Details)
}
