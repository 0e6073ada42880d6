package services

import (
	"context"
	"errors"
	"fmt"

	"sofimed-core/internal/infrastructure/logger"
	"sofimed-core/internal/modules/back-office/devis/dto"
	"sofimed-core/internal/shared/export"
	"sofimed-core/internal/shared/utils"

	"github.com/sirupsen/logrus"
)

type DevisRepository interface {
	ListDevis(ctx context.Context, query dto.DevisListQuery, limit, offset int) ([]dto.Devis, dto.StatusCounts, error)
	ListExportDevis(ctx context.Context, query dto.DevisListQuery, max int) ([]dto.Devis, error)
	GetDevis(ctx context.Context, id string) (*dto.Devis, error)
	ListNegociation(ctx context.Context, devisID string) ([]dto.NegociationEvent, error)
	UpdateStatut(ctx context.Context, id, statut, commentaire, decidePar string, allowed func(current string) error) error
}

// AggregateInvalidator vide les caches de tableaux de bord après une décision
type AggregateInvalidator interface {
	InvalidateAggregates(ctx context.Context) error
}

type DevisService struct {
	repo        DevisRepository
	invalidator AggregateInvalidator
	logg        *logrus.Logger
	exportLimit int
}

func NewDevisService(repo DevisRepository, invalidator AggregateInvalidator, logg *logrus.Logger) *DevisService {
	return &DevisService{repo: repo, invalidator: invalidator, logg: logg, exportLimit: dto.ExportMaxRows}
}

func (s *DevisService) ListDevis(ctx context.Context, query dto.DevisListQuery) (*dto.DevisListResponse, error) {
	page, limit, offset := utils.NormalizePage(query.Page, query.Limit)

	items, counts, err := s.repo.ListDevis(ctx, query, limit, offset)
	if err != nil {
		logger.LogError(s.logg, "devis", "ListDevis", "lecture", map[string]interface{}{
			"statut": query.Statut,
		}, err)
		return nil, fmt.Errorf("liste des devis: %w", err)
	}

	total := counts.Total
	switch query.Statut {
	case dto.StatutEnAttente:
		total = counts.EnAttente
	case dto.StatutValide:
		total = counts.Valide
	case dto.StatutRefuse:
		total = counts.Refuse
	}

	return &dto.DevisListResponse{
		Items:      nonNilDevis(items),
		Pagination: utils.NewPagination(page, limit, total),
		Counts:     counts,
	}, nil
}

func (s *DevisService) GetDevis(ctx context.Context, id string) (*dto.DevisDetail, error) {
	devis, err := s.repo.GetDevis(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err, id)
	}

	events, err := s.repo.ListNegociation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("historique de négociation: %w", err)
	}
	if events == nil {
		events = []dto.NegociationEvent{}
	}

	return &dto.DevisDetail{
		Devis:       *devis,
		Negociation: events,
		Timeline:    BuildTimeline(*devis, events),
	}, nil
}

// UpdateStatut décision administrateur sur un devis en attente
func (s *DevisService) UpdateStatut(ctx context.Context, id, actorID string, req dto.UpdateStatutRequest) (*dto.Devis, error) {
	err := s.repo.UpdateStatut(ctx, id, req.Statut, req.Commentaire, actorID, func(current string) error {
		if !CanTransition(current, req.Statut) {
			return utils.NewServiceError("INVALID_TRANSITION",
				fmt.Sprintf("Transition %s vers %s non autorisée", current, req.Statut),
				map[string]interface{}{"statut_actuel": current, "statut_demande": req.Statut})
		}
		return nil
	})
	if err != nil {
		return nil, s.mapNotFound(err, id)
	}

	if s.invalidator != nil {
		if err := s.invalidator.InvalidateAggregates(ctx); err != nil {
			s.logg.WithError(err).Warn("[DEVIS] invalidation des caches agrégés échouée")
		}
	}

	s.logg.WithFields(logrus.Fields{
		"devis_id": id,
		"statut":   req.Statut,
		"par":      actorID,
	}).Info("[DEVIS] décision enregistrée")

	return s.repo.GetDevis(ctx, id)
}

// ExportDevis produit le classeur de la liste filtrée; filtre et tri sont appliqués avant le plafond
func (s *DevisService) ExportDevis(ctx context.Context, query dto.DevisListQuery) ([]byte, error) {
	items, err := s.repo.ListExportDevis(ctx, query, s.exportLimit)
	if err != nil {
		return nil, fmt.Errorf("lecture devis pour export: %w", err)
	}
	if len(items) >= s.exportLimit {
		s.logg.WithFields(logrus.Fields{
			"limite":    s.exportLimit,
			"client_id": query.ClientID,
			"statut":    query.Statut,
		}).Warn("[DEVIS] export tronqué au plafond de lignes")
	}
	return BuildDevisWorkbook(items)
}

func BuildDevisWorkbook(items []dto.Devis) ([]byte, error) {
	rows := make([][]interface{}, 0, len(items))
	for _, d := range items {
		commercial := ""
		if d.CommercialNom != nil {
			commercial = *d.CommercialNom
		}
		reponse := ""
		if d.DateReponse != nil {
			reponse = d.DateReponse.Format("02/01/2006")
		}
		montant, _ := d.Montant.Float64()
		rows = append(rows, []interface{}{
			d.Reference,
			d.ClientNom,
			commercial,
			montant,
			d.MontantFormate,
			statutLabel(d.Statut),
			d.DateCreation.Format("02/01/2006"),
			reponse,
		})
	}

	return export.BuildWorkbook([]export.Sheet{{
		Name:    "Devis",
		Headers: []string{"Référence", "Client", "Commercial", "Montant", "Montant (MAD)", "Statut", "Créé le", "Réponse le"},
		Rows:    rows,
		Widths:  map[string]float64{"A": 18, "B": 32, "C": 24, "E": 18, "F": 14},
	}})
}

func statutLabel(statut string) string {
	switch statut {
	case dto.StatutEnAttente:
		return "En attente"
	case dto.StatutValide:
		return "Validé"
	case dto.StatutRefuse:
		return "Refusé"
	default:
		return statut
	}
}

func (s *DevisService) mapNotFound(err error, id string) error {
	if errors.Is(err, dto.ErrDevisNotFound) {
		return utils.NewServiceError("DEVIS_NOT_FOUND", "Devis introuvable", map[string]interface{}{"devis_id": id})
	}
	return err
}

func nonNilDevis(items []dto.Devis) []dto.Devis {
	if items == nil {
		return []dto.Devis{}
	}
	return items
}
