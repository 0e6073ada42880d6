package controllers

import (
	"errors"
	"net/http"
	"strings"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/modules/commercial/consultations/dto"
	"sofimed-core/internal/modules/commercial/consultations/services"
	clientServices "sofimed-core/internal/modules/core-services/client/services"
	"sofimed-core/internal/modules/core-services/scope"
	scopeServices "sofimed-core/internal/modules/core-services/scope/services"
	"sofimed-core/internal/shared/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var consultationErrorStatus = map[string]int{
	"CONSULTATION_NOT_FOUND": http.StatusNotFound,
	"CONSULTATION_CLOSED":    http.StatusConflict,
	"FILE_NOT_FOUND":         http.StatusNotFound,
	"INVALID_FILE_NAME":      http.StatusBadRequest,
	"FILE_TOO_LARGE":         http.StatusRequestEntityTooLarge,
	"CLIENT_NOT_FOUND":       http.StatusNotFound,
}

// marge multipart au-delà de la taille du fichier
const multipartOverhead = 1 << 20

type ConsultationController struct {
	service   *services.ConsultationService
	insights  *clientServices.ClientInsightService
	guard     *scopeServices.ScopeGuard
	validator *validator.Validate
}

func NewConsultationController(
	service *services.ConsultationService,
	insights *clientServices.ClientInsightService,
	guard *scopeServices.ScopeGuard,
	cfg *config.Config,
) *ConsultationController {
	return &ConsultationController{
		service:   service,
		insights:  insights,
		guard:     guard,
		validator: utils.NewValidator(cfg.Bootstrap.DefaultPhoneRegion),
	}
}

// ListThreads - GET /api/consultations/commercial/:commercialId
func (c *ConsultationController) ListThreads(ctx *gin.Context) {
	commercialID, ok := utils.RequireUUIDParam(ctx, "commercialId")
	if !ok {
		return
	}
	if err := c.guard.EnsureCommercial(ctx.Request.Context(), scope.ActorFrom(ctx), commercialID); err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors du contrôle d'accès", nil)
		return
	}

	var query dto.ThreadListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "INVALID_QUERY_PARAMS", "Paramètres invalides", nil)
		return
	}
	if validationErr := utils.ValidateStruct(c.validator, query); validationErr != nil {
		utils.RespondValidation(ctx, validationErr)
		return
	}

	result, err := c.service.ListThreads(ctx.Request.Context(), commercialID, query.Statut)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la récupération des consultations", consultationErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// GetThread - GET /api/consultations/:id
func (c *ConsultationController) GetThread(ctx *gin.Context) {
	id, ok := c.consultationParam(ctx)
	if !ok {
		return
	}

	result, err := c.service.GetThread(ctx.Request.Context(), id)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la récupération de la consultation", consultationErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// Reply - POST /api/consultations/:id/reply (JSON ou multipart avec fichier)
func (c *ConsultationController) Reply(ctx *gin.Context) {
	id, ok := c.consultationParam(ctx)
	if !ok {
		return
	}

	var (
		req    dto.ReplyRequest
		upload *services.Upload
	)
	if strings.HasPrefix(ctx.ContentType(), "multipart/form-data") {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.service.MaxUploadBytes()+multipartOverhead)
		req.Contenu = ctx.PostForm("contenu")

		header, err := ctx.FormFile("fichier")
		switch {
		case err == nil:
			file, openErr := header.Open()
			if openErr != nil {
				utils.RespondError(ctx, http.StatusBadRequest, "INVALID_FILE", "Fichier illisible", nil)
				return
			}
			defer file.Close()
			upload = &services.Upload{Name: header.Filename, Reader: file}
		case errors.Is(err, http.ErrMissingFile):
		default:
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				utils.RespondError(ctx, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
					"Le fichier dépasse la taille autorisée", map[string]interface{}{"max_bytes": c.service.MaxUploadBytes()})
				return
			}
			utils.RespondError(ctx, http.StatusBadRequest, "INVALID_REQUEST_FORMAT", "Formulaire multipart invalide", nil)
			return
		}
	} else if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "INVALID_REQUEST_FORMAT", "Format de requête invalide", nil)
		return
	}

	if validationErr := utils.ValidateStruct(c.validator, req); validationErr != nil {
		utils.RespondValidation(ctx, validationErr)
		return
	}

	result, err := c.service.Reply(ctx.Request.Context(), id, ctx.GetString("user_id"), req.Contenu, upload)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de l'envoi de la réponse", consultationErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusCreated, result)
}

// Download - GET /api/consultations/download/:file
func (c *ConsultationController) Download(ctx *gin.Context) {
	name := ctx.Param("file")

	consultationID, err := c.service.AttachmentConsultation(ctx.Request.Context(), name)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la récupération du fichier", consultationErrorStatus)
		return
	}
	if err := c.guard.EnsureResource(ctx.Request.Context(), scope.ActorFrom(ctx), scopeServices.KindConsultation, consultationID); err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors du contrôle d'accès", nil)
		return
	}

	path, err := c.service.AttachmentPath(name)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors de la récupération du fichier", consultationErrorStatus)
		return
	}
	ctx.FileAttachment(path, name)
}

// MeanClientResponseTime - GET /api/messages/temps-reponse-moyen-client/:devisId
func (c *ConsultationController) MeanClientResponseTime(ctx *gin.Context) {
	devisID, ok := c.scopedParam(ctx, "devisId", scopeServices.KindDevis)
	if !ok {
		return
	}

	result, err := c.insights.MeanClientResponseTime(ctx.Request.Context(), devisID)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors du calcul du temps de réponse", consultationErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusOK, result)
}

// TotalSessionDuration - GET /api/sessions/totalDuration/:clientId
func (c *ConsultationController) TotalSessionDuration(ctx *gin.Context) {
	clientID, ok := c.scopedParam(ctx, "clientId", scopeServices.KindClient)
	if !ok {
		return
	}

	result, err := c.insights.TotalSessionDuration(ctx.Request.Context(), clientID)
	if err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors du calcul de la durée des sessions", consultationErrorStatus)
		return
	}
	utils.RespondSuccess(ctx, http.StatusOK, result)
}

func (c *ConsultationController) consultationParam(ctx *gin.Context) (string, bool) {
	return c.scopedParam(ctx, "id", scopeServices.KindConsultation)
}

func (c *ConsultationController) scopedParam(ctx *gin.Context, param, kind string) (string, bool) {
	id, ok := utils.RequireUUIDParam(ctx, param)
	if !ok {
		return "", false
	}
	if err := c.guard.EnsureResource(ctx.Request.Context(), scope.ActorFrom(ctx), kind, id); err != nil {
		utils.RespondServiceError(ctx, err, "Erreur lors du contrôle d'accès", nil)
		return "", false
	}
	return id, true
}
