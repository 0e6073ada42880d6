package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sofimed-core/internal/infrastructure/logger"
	"sofimed-core/internal/modules/commercial/portefeuille/dto"
	clientServices "sofimed-core/internal/modules/core-services/client/services"
	"sofimed-core/internal/shared/utils"

	"github.com/sirupsen/logrus"
)

type PortefeuilleRepository interface {
	ProfileByUser(ctx context.Context, userID string) (*dto.CommercialProfile, error)
	ProfileByID(ctx context.Context, commercialID string) (*dto.CommercialProfile, error)
	CommercialTotals(ctx context.Context, commercialID string, monthStart time.Time) (*dto.CommercialTotals, error)
	ClientRows(ctx context.Context, commercialID string) ([]dto.ClientRow, error)
	MonthlyRevenue(ctx context.Context, commercialID string, since time.Time) ([]dto.MonthlyRevenue, error)
	PendingDevis(ctx context.Context, commercialID string, limit int) ([]dto.PendingDevis, error)
}

type PortefeuilleService struct {
	repo  PortefeuilleRepository
	cache clientServices.InsightCache
	logg  *logrus.Logger
	now   func() time.Time
}

func NewPortefeuilleService(repo PortefeuilleRepository, cache clientServices.InsightCache, logg *logrus.Logger) *PortefeuilleService {
	return &PortefeuilleService{repo: repo, cache: cache, logg: logg, now: time.Now}
}

// BuildOverview totaux, conversion et progression de l'objectif du mois
func BuildOverview(profile dto.CommercialProfile, totals dto.CommercialTotals) dto.CommercialOverview {
	return dto.CommercialOverview{
		Profil:                     profile,
		Commandes:                  totals.Commandes,
		NombreClients:              totals.Clients,
		ChiffreAffaires:            totals.ChiffreAffaires,
		ChiffreAffairesFormate:     utils.FormatMAD(totals.ChiffreAffaires),
		ChiffreAffairesMois:        totals.ChiffreAffairesMois,
		ChiffreAffairesMoisFormate: utils.FormatMAD(totals.ChiffreAffairesMois),
		Devis:                      totals.Devis,
		TauxConversion:             utils.ConversionRate(totals.Devis.Valide, totals.Devis.Refuse),
		ObjectifMensuel:            profile.ObjectifMensuel,
		ProgressionObjectif:        utils.Percent(totals.ChiffreAffairesMois, profile.ObjectifMensuel),
	}
}

func monthStart(now time.Time) time.Time {
	y, m, _ := now.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
}

func (s *PortefeuilleService) OverviewByUser(ctx context.Context, userID string) (*dto.CommercialOverview, error) {
	profile, err := s.repo.ProfileByUser(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, "user_id", userID)
	}
	return s.overview(ctx, *profile)
}

func (s *PortefeuilleService) overview(ctx context.Context, profile dto.CommercialProfile) (*dto.CommercialOverview, error) {
	totals, err := s.repo.CommercialTotals(ctx, profile.ID, monthStart(s.now()))
	if err != nil {
		logger.LogError(s.logg, "portefeuille", "overview", "agrégats", map[string]interface{}{
			"commercial_id": profile.ID,
		}, err)
		return nil, err
	}
	overview := BuildOverview(profile, *totals)
	return &overview, nil
}

func (s *PortefeuilleService) Clients(ctx context.Context, commercialID string, query dto.ClientListQuery) (*dto.ClientListResponse, error) {
	if _, err := s.repo.ProfileByID(ctx, commercialID); err != nil {
		return nil, mapNotFound(err, "commercial_id", commercialID)
	}

	all, err := s.repo.ClientRows(ctx, commercialID)
	if err != nil {
		return nil, fmt.Errorf("clients du commercial: %w", err)
	}
	Decorate(all, s.now())

	items := FilterClients(all, query.Behavior, query.Search)
	SortClients(items, query.SortBy, query.SortOrder)

	return &dto.ClientListResponse{
		Items:       items,
		Total:       len(items),
		Repartition: Repartition(all),
	}, nil
}

// Dashboard tableau de bord unifié, mis en cache par commercial
func (s *PortefeuilleService) Dashboard(ctx context.Context, commercialID string, refresh bool) (*dto.UnifiedDashboard, error) {
	cacheKey := "dashboard_" + commercialID
	if !refresh {
		var cached dto.UnifiedDashboard
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			cached.LoadedFrom = "cache"
			return &cached, nil
		}
	}

	profile, err := s.repo.ProfileByID(ctx, commercialID)
	if err != nil {
		return nil, mapNotFound(err, "commercial_id", commercialID)
	}
	overview, err := s.overview(ctx, *profile)
	if err != nil {
		return nil, err
	}

	now := s.now()
	clients, err := s.repo.ClientRows(ctx, commercialID)
	if err != nil {
		return nil, fmt.Errorf("clients du commercial: %w", err)
	}
	Decorate(clients, now)

	since := monthStart(now).AddDate(0, -(dto.MonthlySeriesMonths - 1), 0)
	mensuel, err := s.repo.MonthlyRevenue(ctx, commercialID, since)
	if err != nil {
		return nil, fmt.Errorf("série mensuelle: %w", err)
	}

	pending, err := s.repo.PendingDevis(ctx, commercialID, dto.PendingDevisLimit)
	if err != nil {
		return nil, fmt.Errorf("devis en attente: %w", err)
	}
	for i := range pending {
		pending[i].MontantFormate = utils.FormatMAD(pending[i].Montant)
		pending[i].JoursEnAttente = clientServices.DaysBetween(pending[i].DateCreation, now)
	}

	top := append([]dto.ClientRow(nil), clients...)
	SortClients(top, "chiffre_affaires", "desc")
	if len(top) > dto.TopClientsLimit {
		top = top[:dto.TopClientsLimit]
	}

	dashboard := &dto.UnifiedDashboard{
		Overview:       *overview,
		Repartition:    Repartition(clients),
		Mensuel:        FillMonths(mensuel, since, dto.MonthlySeriesMonths),
		TopClients:     nonNil(top),
		DevisEnAttente: nonNil(pending),
		LoadedFrom:     "database",
		GeneratedAt:    now,
	}

	if err := s.cache.Set(ctx, cacheKey, dashboard); err != nil {
		s.logg.WithError(err).Warn("[PORTEFEUILLE] mise en cache du tableau de bord échouée")
	}
	return dashboard, nil
}

// FillMonths complète la série avec des mois à zéro pour un axe continu
func FillMonths(series []dto.MonthlyRevenue, since time.Time, months int) []dto.MonthlyRevenue {
	byMonth := make(map[string]dto.MonthlyRevenue, len(series))
	for _, m := range series {
		byMonth[m.Mois] = m
	}

	result := make([]dto.MonthlyRevenue, 0, months)
	for i := 0; i < months; i++ {
		key := since.AddDate(0, i, 0).Format("2006-01")
		if m, ok := byMonth[key]; ok {
			result = append(result, m)
			continue
		}
		result = append(result, dto.MonthlyRevenue{Mois: key})
	}
	return result
}

func mapNotFound(err error, field, value string) error {
	if errors.Is(err, dto.ErrCommercialNotFound) {
		return utils.NewServiceError("COMMERCIAL_NOT_FOUND", "Commercial introuvable", map[string]interface{}{field: value})
	}
	return err
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
