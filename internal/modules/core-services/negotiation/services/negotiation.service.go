package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sofimed-core/internal/modules/core-services/negotiation/dto"
	"sofimed-core/internal/shared/utils"
)

type NegotiationRepository interface {
	DevisSnapshot(ctx context.Context, devisID string) (*dto.DevisSnapshot, error)
	Events(ctx context.Context, devisID string) ([]dto.Event, error)
}

type NegotiationService struct {
	repo NegotiationRepository
	now  func() time.Time
}

func NewNegotiationService(repo NegotiationRepository) *NegotiationService {
	return &NegotiationService{repo: repo, now: time.Now}
}

func (s *NegotiationService) AnalyzeDevis(ctx context.Context, devisID string) (*dto.Analysis, error) {
	devis, err := s.repo.DevisSnapshot(ctx, devisID)
	if err != nil {
		if errors.Is(err, dto.ErrDevisNotFound) {
			return nil, utils.NewServiceError("DEVIS_NOT_FOUND", "Devis introuvable", map[string]interface{}{"devis_id": devisID})
		}
		return nil, err
	}

	events, err := s.repo.Events(ctx, devisID)
	if err != nil {
		return nil, fmt.Errorf("événements de négociation: %w", err)
	}

	analysis := Analyze(*devis, events, s.now())
	return &analysis, nil
}
