package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sofimed-core/internal/infrastructure/logger"
	"sofimed-core/internal/modules/back-office/reclamations/dto"
	"sofimed-core/internal/shared/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ReclamationStore stockage documentaire; les écritures conditionnelles
// échouent avec ErrStatutChanged si le statut attendu ne correspond plus
type ReclamationStore interface {
	// List trie par priorité puis date avant d'appliquer limit
	List(ctx context.Context, filter dto.StoreFilter, limit int) ([]dto.Reclamation, error)
	CountByStatut(ctx context.Context, filter dto.StoreFilter) (map[string]int, error)
	Get(ctx context.Context, id string) (*dto.Reclamation, error)
	Insert(ctx context.Context, r *dto.Reclamation) error
	UpdateDetails(ctx context.Context, id string, req dto.UpdateReclamationRequest, now time.Time) error
	SetStatut(ctx context.Context, id string, change dto.StatutChange, now time.Time) error
	AppendReponse(ctx context.Context, id, expectedStatut string, reponse dto.Reponse, newStatut string, now time.Time) error
	Delete(ctx context.Context, id string) error
}

// ReferenceSequence compteur annuel des références.
// Resync remonte le compteur au plus grand numéro déjà stocké pour l'année.
type ReferenceSequence interface {
	Next(ctx context.Context, year int) (int64, error)
	Resync(ctx context.Context, year int) error
}

const maxReferenceAttempts = 3

type ReclamationService struct {
	store    ReclamationStore
	sequence ReferenceSequence
	logg     *logrus.Logger
	now      func() time.Time
}

func NewReclamationService(store ReclamationStore, sequence ReferenceSequence, logg *logrus.Logger) *ReclamationService {
	return &ReclamationService{
		store:    store,
		sequence: sequence,
		logg:     logg,
		now:      time.Now,
	}
}

func (s *ReclamationService) List(ctx context.Context, query dto.ReclamationQuery) (*dto.ReclamationListResponse, error) {
	filter := dto.StoreFilter{
		Statut:    query.Statut,
		Priorite:  query.Priorite,
		Categorie: query.Categorie,
		Search:    query.Search,
	}
	items, err := s.store.List(ctx, filter, dto.ListMaxItems)
	if err != nil {
		logger.LogError(s.logg, "reclamations", "List", "lecture", query, err)
		return nil, fmt.Errorf("liste des réclamations: %w", err)
	}
	byStatut, err := s.store.CountByStatut(ctx, filter)
	if err != nil {
		logger.LogError(s.logg, "reclamations", "List", "comptage", query, err)
		return nil, fmt.Errorf("comptage des réclamations: %w", err)
	}

	if items == nil {
		items = []dto.Reclamation{}
	}
	SortReclamations(items)
	for i := range items {
		normalize(&items[i])
	}

	return &dto.ReclamationListResponse{
		Items:  items,
		Counts: CountsFromStatut(byStatut),
	}, nil
}

func (s *ReclamationService) Get(ctx context.Context, id string) (*dto.Reclamation, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, id)
	}
	normalize(r)
	return r, nil
}

func (s *ReclamationService) Create(ctx context.Context, req dto.CreateReclamationRequest, actorID string) (*dto.Reclamation, error) {
	now := s.now()
	priorite := req.Priorite
	if priorite == "" {
		priorite = dto.PrioriteMoyenne
	}

	r := &dto.Reclamation{
		ID:          uuid.NewString(),
		ClientID:    req.ClientID,
		ClientNom:   req.ClientNom,
		Categorie:   req.Categorie,
		Priorite:    priorite,
		Statut:      dto.StatutNouveau,
		Sujet:       req.Sujet,
		Description: req.Description,
		Reponses:    []dto.Reponse{},
		CreatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.insertWithReference(ctx, r, now.Year()); err != nil {
		logger.LogError(s.logg, "reclamations", "Create", "insertion", map[string]interface{}{
			"reference": r.Reference,
		}, err)
		return nil, fmt.Errorf("création réclamation: %w", err)
	}

	s.logg.WithFields(logrus.Fields{"reference": r.Reference, "priorite": r.Priorite}).Info("[RECLAMATIONS] réclamation créée")
	return r, nil
}

// insertWithReference numérote puis insère; une référence déjà prise (compteur
// réinitialisé) resynchronise le compteur et retente
func (s *ReclamationService) insertWithReference(ctx context.Context, r *dto.Reclamation, year int) error {
	var err error
	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		seq, seqErr := s.sequence.Next(ctx, year)
		if seqErr != nil {
			return fmt.Errorf("numérotation réclamation: %w", seqErr)
		}
		r.Reference = FormatReference(year, seq)

		err = s.store.Insert(ctx, r)
		if !errors.Is(err, dto.ErrDuplicateReference) {
			return err
		}

		s.logg.WithFields(logrus.Fields{
			"reference": r.Reference,
			"tentative": attempt,
		}).Warn("[RECLAMATIONS] référence déjà attribuée, resynchronisation du compteur")
		if syncErr := s.sequence.Resync(ctx, year); syncErr != nil {
			return fmt.Errorf("resynchronisation compteur: %w", syncErr)
		}
	}
	return err
}

func (s *ReclamationService) Update(ctx context.Context, id string, req dto.UpdateReclamationRequest) (*dto.Reclamation, error) {
	if err := s.store.UpdateDetails(ctx, id, req, s.now()); err != nil {
		return nil, mapStoreError(err, id)
	}
	return s.Get(ctx, id)
}

func (s *ReclamationService) UpdateStatut(ctx context.Context, id string, req dto.UpdateStatutRequest) (*dto.Reclamation, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, id)
	}

	now := s.now()
	change, err := PlanTransition(current.Statut, req.Statut, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetStatut(ctx, id, change, now); err != nil {
		return nil, mapStoreError(err, id)
	}
	return s.Get(ctx, id)
}

// AddReponse ajoute un message au fil; une réclamation nouvelle passe en cours
func (s *ReclamationService) AddReponse(ctx context.Context, id, actorID, actorRole string, req dto.AddReponseRequest) (*dto.Reclamation, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, id)
	}

	next, err := StatutAfterReply(current.Statut)
	if err != nil {
		return nil, err
	}

	now := s.now()
	reponse := dto.Reponse{
		ID:         uuid.NewString(),
		Auteur:     actorID,
		AuteurRole: actorRole,
		Message:    req.Message,
		CreatedAt:  now,
	}
	if err := s.store.AppendReponse(ctx, id, current.Statut, reponse, next, now); err != nil {
		return nil, mapStoreError(err, id)
	}
	return s.Get(ctx, id)
}

func (s *ReclamationService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return mapStoreError(err, id)
	}
	s.logg.WithField("reclamation_id", id).Info("[RECLAMATIONS] réclamation supprimée")
	return nil
}

func mapStoreError(err error, id string) error {
	switch {
	case errors.Is(err, dto.ErrReclamationNotFound):
		return utils.NewServiceError("RECLAMATION_NOT_FOUND", "Réclamation introuvable", map[string]interface{}{"reclamation_id": id})
	case errors.Is(err, dto.ErrStatutChanged):
		return utils.NewServiceError("CONFLICT", "La réclamation a été modifiée entre-temps, veuillez recharger", nil)
	default:
		return err
	}
}

func normalize(r *dto.Reclamation) {
	if r.Reponses == nil {
		r.Reponses = []dto.Reponse{}
	}
}
