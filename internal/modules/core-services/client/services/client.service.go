package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sofimed-core/internal/modules/core-services/client/dto"
	"sofimed-core/internal/shared/utils"

	"github.com/sirupsen/logrus"
)

type ClientRepository interface {
	ClientTotals(ctx context.Context, clientID string) (*dto.ClientTotals, error)
	PortalUserID(ctx context.Context, clientID string) (*string, error)
	ClientSessions(ctx context.Context, clientID string) ([]dto.Session, error)
	DevisMessages(ctx context.Context, devisID string) ([]dto.ThreadMessage, error)
}

type InsightCache interface {
	Get(ctx context.Context, identifier string, dest interface{}) (bool, error)
	Set(ctx context.Context, identifier string, value interface{}) error
}

// ClientInsightService indicateurs client partagés par le portefeuille commercial,
// les consultations et l'analyse prédictive
type ClientInsightService struct {
	repo  ClientRepository
	cache InsightCache
	logg  *logrus.Logger
	now   func() time.Time
}

func NewClientInsightService(repo ClientRepository, cache InsightCache, logg *logrus.Logger) *ClientInsightService {
	return &ClientInsightService{repo: repo, cache: cache, logg: logg, now: time.Now}
}

// ClientStats cache-first; une erreur de cache retombe sur la base
func (s *ClientInsightService) ClientStats(ctx context.Context, clientID string) (*dto.ClientStats, error) {
	cacheKey := "client_" + clientID

	var cached dto.ClientStats
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	totals, err := s.repo.ClientTotals(ctx, clientID)
	if err != nil {
		return nil, mapClientError(err, clientID)
	}

	stats := BuildClientStats(*totals, s.now())
	if err := s.cache.Set(ctx, cacheKey, stats); err != nil {
		s.logg.WithError(err).Warn("[CLIENT] mise en cache des statistiques échouée")
	}
	return &stats, nil
}

func (s *ClientInsightService) PortalUserID(ctx context.Context, clientID string) (*dto.ClientUserID, error) {
	userID, err := s.repo.PortalUserID(ctx, clientID)
	if err != nil {
		return nil, mapClientError(err, clientID)
	}
	if userID == nil || *userID == "" {
		return nil, mapClientError(dto.ErrNoPortalAccount, clientID)
	}
	return &dto.ClientUserID{ClientID: clientID, UserID: *userID}, nil
}

func (s *ClientInsightService) TotalSessionDuration(ctx context.Context, clientID string) (*dto.SessionDuration, error) {
	sessions, err := s.repo.ClientSessions(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("sessions client: %w", err)
	}

	total, open := SumSessionSeconds(sessions, s.now())
	return &dto.SessionDuration{
		ClientID:         clientID,
		TotalSeconds:     total,
		Sessions:         len(sessions),
		SessionsOuvertes: open,
	}, nil
}

func (s *ClientInsightService) MeanClientResponseTime(ctx context.Context, devisID string) (*dto.ResponseTime, error) {
	messages, err := s.repo.DevisMessages(ctx, devisID)
	if err != nil {
		return nil, fmt.Errorf("messages du devis: %w", err)
	}

	mean, samples := MeanResponseDelay(messages)
	return &dto.ResponseTime{
		DevisID:        devisID,
		MoyenneMinutes: mean,
		Echantillons:   samples,
	}, nil
}

func mapClientError(err error, clientID string) error {
	switch {
	case errors.Is(err, dto.ErrClientNotFound):
		return utils.NewServiceError("CLIENT_NOT_FOUND", "Client introuvable", map[string]interface{}{"client_id": clientID})
	case errors.Is(err, dto.ErrNoPortalAccount):
		return utils.NewServiceError("PORTAL_ACCOUNT_NOT_FOUND", "Ce client n'a pas de compte portail", map[string]interface{}{"client_id": clientID})
	default:
		return err
	}
}
