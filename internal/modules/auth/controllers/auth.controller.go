package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/modules/auth/dto"
	"sofimed-core/internal/modules/auth/services"
	authMiddleware "sofimed-core/internal/shared/middleware/auth"
	"sofimed-core/internal/shared/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var authErrorStatus = map[string]int{
	"INVALID_CREDENTIALS":      http.StatusUnauthorized,
	"ACCOUNT_SUSPENDED":        http.StatusForbidden,
	"RATE_LIMIT_EXCEEDED":      http.StatusTooManyRequests,
	"USER_NOT_FOUND":           http.StatusNotFound,
	"PASSWORD_MISMATCH":        http.StatusBadRequest,
	"PASSWORD_UNCHANGED":       http.StatusBadRequest,
	"INVALID_CURRENT_PASSWORD": http.StatusBadRequest,
}

type AuthController struct {
	authService *services.AuthService
	validator   *validator.Validate
}

// NewAuthController crée une nouvelle instance du contrôleur d'authentification
func NewAuthController(authService *services.AuthService, cfg *config.Config) *AuthController {
	return &AuthController{
		authService: authService,
		validator:   utils.NewValidator(cfg.Bootstrap.DefaultPhoneRegion),
	}
}

// Login - POST /api/auth/login
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "INVALID_REQUEST_FORMAT",
			"Données de connexion invalides", map[string]interface{}{
				"validation_errors": err.Error(),
			})
		return
	}

	if validationErr := utils.ValidateStruct(c.validator, req); validationErr != nil {
		utils.RespondValidation(ctx, validationErr)
		return
	}

	result, err := c.authService.Login(
		ctx.Request.Context(),
		req,
		ctx.ClientIP(),
		ctx.GetHeader("User-Agent"),
	)
	if err != nil {
		c.respondAuthError(ctx, err, "Erreur interne lors de l'authentification")
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// Logout - POST /api/auth/logout (idempotent, toujours 200)
func (c *AuthController) Logout(ctx *gin.Context) {
	token := authMiddleware.ExtractBearerToken(ctx.GetHeader("Authorization"))
	if token != "" {
		c.authService.LogoutByToken(ctx.Request.Context(), token)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Déconnexion réussie",
	})
}

// Me - GET /api/auth/me
func (c *AuthController) Me(ctx *gin.Context) {
	session, ok := authMiddleware.GetSession(ctx)
	if !ok {
		utils.RespondError(ctx, http.StatusInternalServerError, "SESSION_CONTEXT_MISSING",
			"Contexte de session manquant", nil)
		return
	}

	result, err := c.authService.GetCurrentUser(ctx.Request.Context(), session.ToSessionData())
	if err != nil {
		c.respondAuthError(ctx, err, "Erreur lors de la récupération des informations utilisateur")
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// ChangePassword - PUT /api/auth/password
func (c *AuthController) ChangePassword(ctx *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "INVALID_REQUEST_FORMAT",
			"Format de requête invalide", nil)
		return
	}

	if validationErr := utils.ValidateStruct(c.validator, req); validationErr != nil {
		utils.RespondValidation(ctx, validationErr)
		return
	}

	result, err := c.authService.ChangePassword(ctx.Request.Context(), ctx.GetString("user_id"), req)
	if err != nil {
		c.respondAuthError(ctx, err, "Erreur lors du changement de mot de passe")
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, result)
}

func (c *AuthController) respondAuthError(ctx *gin.Context, err error, fallback string) {
	var authErr *dto.AuthError
	if !errors.As(err, &authErr) {
		_ = ctx.Error(err)
		utils.RespondError(ctx, http.StatusInternalServerError, "INTERNAL_ERROR", fallback, nil)
		return
	}

	status, ok := authErrorStatus[authErr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	if authErr.Code == "RATE_LIMIT_EXCEEDED" {
		if retry, ok := authErr.Details["retry_after_seconds"].(int); ok {
			ctx.Header("Retry-After", strconv.Itoa(retry))
		}
	}

	utils.RespondError(ctx, status, authErr.Code, authErr.Message, authErr.Details)
}
