package services

import (
	"context"
	"errors"
	"time"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/infrastructure/logger"
	clientDto "sofimed-core/internal/modules/core-services/client/dto"
	negotiationDto "sofimed-core/internal/modules/core-services/negotiation/dto"
	"sofimed-core/internal/modules/predictions/dto"
	"sofimed-core/internal/shared/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type DevisRepository interface {
	DevisRef(ctx context.Context, devisID string) (*dto.DevisRef, error)
}

// ClientInsights indicateurs client, fournis par les core services
type ClientInsights interface {
	ClientStats(ctx context.Context, clientID string) (*clientDto.ClientStats, error)
	PortalUserID(ctx context.Context, clientID string) (*clientDto.ClientUserID, error)
	TotalSessionDuration(ctx context.Context, clientID string) (*clientDto.SessionDuration, error)
	MeanClientResponseTime(ctx context.Context, devisID string) (*clientDto.ResponseTime, error)
}

type NegotiationAnalyzer interface {
	AnalyzeDevis(ctx context.Context, devisID string) (*negotiationDto.Analysis, error)
}

type PredictionGateway interface {
	Predict(ctx context.Context, features dto.Features) (*dto.ServiceResponse, error)
}

type ReportStore interface {
	Insert(ctx context.Context, report dto.Report) error
	ListByDevis(ctx context.Context, devisID string, limit int64) ([]dto.Report, error)
	Get(ctx context.Context, id string) (*dto.Report, error)
}

type ReportLocker interface {
	Acquire(ctx context.Context, devisID string) (func(), error)
}

type PredictionService struct {
	devis       DevisRepository
	insights    ClientInsights
	negotiation NegotiationAnalyzer
	gateway     PredictionGateway
	reports     ReportStore
	locker      ReportLocker
	timeout     time.Duration
	logg        *logrus.Logger
	now         func() time.Time
}

func NewPredictionService(
	devis DevisRepository,
	insights ClientInsights,
	negotiation NegotiationAnalyzer,
	gateway PredictionGateway,
	reports ReportStore,
	locker ReportLocker,
	cfg *config.Config,
	logg *logrus.Logger,
) *PredictionService {
	return &PredictionService{
		devis:       devis,
		insights:    insights,
		negotiation: negotiation,
		gateway:     gateway,
		reports:     reports,
		locker:      locker,
		timeout:     cfg.GetPrediction().Timeout,
		logg:        logg,
		now:         time.Now,
	}
}

// Analyze assemble les indicateurs du devis et interroge le service de scoring
func (s *PredictionService) Analyze(ctx context.Context, devisID string) (*dto.Prediction, error) {
	prediction, _, err := s.analyze(ctx, devisID)
	return prediction, err
}

func (s *PredictionService) analyze(ctx context.Context, devisID string) (*dto.Prediction, *dto.DevisRef, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ref, err := s.devis.DevisRef(ctx, devisID)
	if err != nil {
		return nil, nil, s.mapError(err, devisID)
	}

	features, err := s.collectFeatures(ctx, *ref)
	if err != nil {
		return nil, nil, s.mapError(err, devisID)
	}

	resp, err := s.gateway.Predict(ctx, *features)
	if err != nil {
		return nil, nil, s.mapError(err, devisID)
	}

	return &dto.Prediction{
		DevisID:     devisID,
		Probabilite: resp.Probabilite,
		Niveau:      Level(resp.Probabilite),
		Facteurs:    RankFactors(resp.Facteurs),
		Modele:      resp.Modele,
		Features:    *features,
		GeneratedAt: s.now(),
	}, ref, nil
}

// collectFeatures étapes séquentielles sur le contexte de la requête
func (s *PredictionService) collectFeatures(ctx context.Context, ref dto.DevisRef) (*dto.Features, error) {
	stats, err := s.insights.ClientStats(ctx, ref.ClientID)
	if err != nil {
		return nil, err
	}

	var portalUserID *string
	account, err := s.insights.PortalUserID(ctx, ref.ClientID)
	switch {
	case err == nil:
		portalUserID = &account.UserID
	case isServiceCode(err, "PORTAL_ACCOUNT_NOT_FOUND"):
	default:
		return nil, err
	}

	sessions, err := s.insights.TotalSessionDuration(ctx, ref.ClientID)
	if err != nil {
		return nil, err
	}

	response, err := s.insights.MeanClientResponseTime(ctx, ref.ID)
	if err != nil {
		return nil, err
	}

	analysis, err := s.negotiation.AnalyzeDevis(ctx, ref.ID)
	if err != nil {
		return nil, err
	}

	return &dto.Features{
		DevisID:               ref.ID,
		ClientID:              ref.ClientID,
		Montant:               ref.Montant,
		Client:                *stats,
		PortalUserID:          portalUserID,
		DureeSessionsSecondes: sessions.TotalSeconds,
		Sessions:              sessions.Sessions,
		TempsReponseMinutes:   response.MoyenneMinutes,
		EchantillonsReponse:   response.Echantillons,
		Negociation:           *analysis,
	}, nil
}

// GenerateReport même chaîne sous verrou Redis, rendu HTML conservé dans MongoDB
func (s *PredictionService) GenerateReport(ctx context.Context, devisID, userID string) (*dto.Report, error) {
	release, err := s.locker.Acquire(ctx, devisID)
	if err != nil {
		return nil, s.mapError(err, devisID)
	}
	defer release()

	prediction, ref, err := s.analyze(ctx, devisID)
	if err != nil {
		return nil, err
	}

	report := dto.Report{
		ID:             uuid.NewString(),
		DevisID:        devisID,
		DevisReference: ref.Reference,
		ClientID:       ref.ClientID,
		ClientNom:      prediction.Features.Client.RaisonSociale,
		Montant:        utils.FormatMAD(ref.Montant),
		Probabilite:    prediction.Probabilite,
		Niveau:         prediction.Niveau,
		Facteurs:       prediction.Facteurs,
		Momentum:       prediction.Features.Negociation.Momentum,
		Tours:          prediction.Features.Negociation.Tours,
		GenerePar:      userID,
		CreatedAt:      s.now().UTC().Truncate(time.Millisecond),
	}
	if report.HTML, err = RenderHTML(report); err != nil {
		return nil, err
	}

	if err := s.reports.Insert(ctx, report); err != nil {
		logger.LogError(s.logg, "predictions", "GenerateReport", "enregistrement MongoDB", map[string]interface{}{
			"devis_id": devisID,
		}, err)
		return nil, err
	}

	s.logg.WithFields(logrus.Fields{
		"devis_id":    devisID,
		"report_id":   report.ID,
		"probabilite": report.Probabilite,
	}).Info("[PREDICTIONS] rapport généré")
	return &report, nil
}

func (s *PredictionService) History(ctx context.Context, devisID string) ([]dto.Report, error) {
	return s.reports.ListByDevis(ctx, devisID, dto.ReportHistoryLimit)
}

func (s *PredictionService) Report(ctx context.Context, reportID string) (*dto.Report, error) {
	report, err := s.reports.Get(ctx, reportID)
	if errors.Is(err, dto.ErrReportNotFound) {
		return nil, utils.NewServiceError("REPORT_NOT_FOUND", "Rapport introuvable", map[string]interface{}{"report_id": reportID})
	}
	return report, err
}

func (s *PredictionService) mapError(err error, devisID string) error {
	details := map[string]interface{}{"devis_id": devisID}
	var svcErr *utils.ServiceError
	switch {
	case errors.As(err, &svcErr):
		return err
	case errors.Is(err, dto.ErrDevisNotFound), errors.Is(err, negotiationDto.ErrDevisNotFound):
		return utils.NewServiceError("DEVIS_NOT_FOUND", "Devis introuvable", details)
	case errors.Is(err, dto.ErrReportInProgress):
		return utils.NewServiceError("REPORT_IN_PROGRESS", "Un rapport est déjà en cours de génération pour ce devis", details)
	case errors.Is(err, context.DeadlineExceeded):
		s.logg.WithError(err).WithField("devis_id", devisID).Warn("[PREDICTIONS] délai dépassé")
		return utils.NewServiceError("PREDICTION_TIMEOUT", "Le service de prédiction n'a pas répondu à temps", details)
	case errors.Is(err, dto.ErrServiceUnavailable), errors.Is(err, dto.ErrInvalidResponse):
		logger.LogError(s.logg, "predictions", "Analyze", "service externe", details, err)
		return utils.NewServiceError("PREDICTION_SERVICE_ERROR", "Le service de prédiction a renvoyé une erreur", details)
	default:
		return err
	}
}

func isServiceCode(err error, code string) bool {
	var svcErr *utils.ServiceError
	return errors.As(err, &svcErr) && svcErr.Code == code
}
