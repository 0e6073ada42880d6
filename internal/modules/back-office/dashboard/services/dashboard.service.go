package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"
	"unicode"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/infrastructure/logger"
	"sofimed-core/internal/modules/back-office/dashboard/dto"
	"sofimed-core/internal/shared/export"
	"sofimed-core/internal/shared/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DashboardRepository agrégats de ventes et de devis
type DashboardRepository interface {
	SalesTotals(ctx context.Context, filter dto.DashboardFilter) (dto.SalesTotals, error)
	DevisCounts(ctx context.Context, filter dto.DashboardFilter) (dto.DevisCounts, error)
	RevenueByDepartement(ctx context.Context, filter dto.DashboardFilter) ([]dto.DepartementRevenue, error)
	MonthlyRevenue(ctx context.Context, filter dto.DashboardFilter) ([]dto.MonthlyRevenue, error)
	TopProduits(ctx context.Context, filter dto.DashboardFilter, limit int) ([]dto.TopProduit, error)
	CommercialRanking(ctx context.Context, filter dto.DashboardFilter) ([]dto.CommercialRanking, error)
	ListDepartements(ctx context.Context) ([]string, error)
}

// DashboardCache cache JSON du tableau de bord
type DashboardCache interface {
	GetDashboard(ctx context.Context, key string, dest *dto.DashboardResponse) (bool, error)
	SetDashboard(ctx context.Context, key string, value *dto.DashboardResponse, ttl time.Duration) error
	GetDepartements(ctx context.Context) ([]string, bool)
	SetDepartements(ctx context.Context, departements []string) error
}

type DashboardService struct {
	repo  DashboardRepository
	cache DashboardCache
	ttl   time.Duration
	logg  *logrus.Logger
	now   func() time.Time
}

func NewDashboardService(repo DashboardRepository, cache DashboardCache, cfg *config.Config, logg *logrus.Logger) *DashboardService {
	return &DashboardService{
		repo:  repo,
		cache: cache,
		ttl:   cfg.GetCache().DashboardTTL,
		logg:  logg,
		now:   time.Now,
	}
}

// ResolvePeriode bornes calendaires: semaine glissante de 7 jours, mois, trimestre
// et année en cours; "tout" sans borne basse. Période vide = mois.
func ResolvePeriode(periode string, now time.Time) (dto.PeriodRange, error) {
	if periode == "" {
		periode = dto.PeriodeMois
	}

	y, m, d := now.Date()
	loc := now.Location()
	var debut time.Time

	switch periode {
	case dto.PeriodeSemaine:
		debut = time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, -6)
	case dto.PeriodeMois:
		debut = time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case dto.PeriodeTrimestre:
		firstMonth := time.Month((int(m)-1)/3*3 + 1)
		debut = time.Date(y, firstMonth, 1, 0, 0, 0, 0, loc)
	case dto.PeriodeAnnee:
		debut = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	case dto.PeriodeTout:
		return dto.PeriodRange{Periode: periode, Fin: now}, nil
	default:
		return dto.PeriodRange{}, utils.NewServiceError("VALIDATION_ERROR", "Période invalide", map[string]interface{}{
			"champs": map[string]string{"periode": "Valeurs autorisées: semaine mois trimestre annee tout"},
		})
	}

	return dto.PeriodRange{Periode: periode, Debut: &debut, Fin: now}, nil
}

// GetDashboard lit le cache sauf si refresh est demandé
func (s *DashboardService) GetDashboard(ctx context.Context, query dto.DashboardQuery) (*dto.DashboardResponse, error) {
	startTime := s.now()

	periodRange, err := ResolvePeriode(query.Periode, startTime)
	if err != nil {
		return nil, err
	}
	filter := dto.DashboardFilter{
		Departement: strings.TrimSpace(query.Departement),
		Range:       periodRange,
	}
	key := CacheIdentifier(filter.Departement, periodRange.Periode)

	if !query.Refresh {
		var cached dto.DashboardResponse
		hit, err := s.cache.GetDashboard(ctx, key, &cached)
		if err != nil {
			s.logg.WithError(err).Warn("Lecture cache dashboard échouée, repli PostgreSQL")
		}
		if hit {
			cached.LoadedFrom = "cache"
			return &cached, nil
		}
	}

	result, err := s.build(ctx, filter)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetDashboard(ctx, key, result, s.ttl); err != nil {
		logger.LogError(s.logg, "dashboard", "GetDashboard", "écriture cache", map[string]interface{}{"key": key}, err)
	}

	s.logg.WithFields(logrus.Fields{
		"periode":     periodRange.Periode,
		"departement": filter.Departement,
		"duration_ms": s.now().Sub(startTime).Milliseconds(),
	}).Debug("Dashboard recalculé")

	return result, nil
}

func (s *DashboardService) build(ctx context.Context, filter dto.DashboardFilter) (*dto.DashboardResponse, error) {
	totals, err := s.repo.SalesTotals(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("totaux des ventes: %w", err)
	}
	devis, err := s.repo.DevisCounts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("compteurs devis: %w", err)
	}
	departements, err := s.repo.RevenueByDepartement(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("revenu par département: %w", err)
	}
	monthly, err := s.repo.MonthlyRevenue(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("revenu mensuel: %w", err)
	}
	produits, err := s.repo.TopProduits(ctx, filter, dto.TopProduitsLimit)
	if err != nil {
		return nil, fmt.Errorf("top produits: %w", err)
	}
	ranking, err := s.repo.CommercialRanking(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("classement commerciaux: %w", err)
	}

	return &dto.DashboardResponse{
		Periode:               filter.Range,
		Departement:           filter.Departement,
		KPIs:                  BuildKPIs(totals, devis),
		RevenueByDepartement:  ShareByDepartement(departements, totals.ChiffreAffaires),
		MonthlyRevenue:        nonNil(monthly),
		TopProduits:           formatTopProduits(produits),
		ClassementCommerciaux: RankCommercials(ranking),
		GeneratedAt:           s.now(),
		LoadedFrom:            "database",
	}, nil
}

// BuildKPIs cartes KPI; le taux de conversion ignore les devis en attente
func BuildKPIs(totals dto.SalesTotals, devis dto.DevisCounts) dto.KPICards {
	return dto.KPICards{
		ChiffreAffaires:        totals.ChiffreAffaires.Round(2),
		ChiffreAffairesFormate: utils.FormatMAD(totals.ChiffreAffaires),
		UnitesVendues:          totals.Unites,
		Commandes:              totals.Commandes,
		ClientsActifs:          totals.ClientsActifs,
		DevisEnAttente:         devis.EnAttente,
		TauxConversion:         utils.ConversionRate(devis.Valides, devis.Refuses),
	}
}

// ShareByDepartement calcule la part de chaque département dans le total
func ShareByDepartement(rows []dto.DepartementRevenue, total decimal.Decimal) []dto.DepartementRevenue {
	result := make([]dto.DepartementRevenue, len(rows))
	for i, row := range rows {
		row.ChiffreAffaires = row.ChiffreAffaires.Round(2)
		row.ChiffreAffairesFormate = utils.FormatMAD(row.ChiffreAffaires)
		row.Part = utils.Percent(row.ChiffreAffaires, total)
		result[i] = row
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ChiffreAffaires.GreaterThan(result[j].ChiffreAffaires)
	})
	return result
}

// RankCommercials trie par chiffre d'affaires puis taux de conversion
func RankCommercials(rows []dto.CommercialRanking) []dto.CommercialRanking {
	result := make([]dto.CommercialRanking, len(rows))
	for i, row := range rows {
		row.ChiffreAffaires = row.ChiffreAffaires.Round(2)
		row.ChiffreAffairesFormate = utils.FormatMAD(row.ChiffreAffaires)
		row.TauxConversion = utils.ConversionRate(row.DevisValides, row.DevisRefuses)
		result[i] = row
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].ChiffreAffaires.Equal(result[j].ChiffreAffaires) {
			return result[i].ChiffreAffaires.GreaterThan(result[j].ChiffreAffaires)
		}
		if !result[i].TauxConversion.Equal(result[j].TauxConversion) {
			return result[i].TauxConversion.GreaterThan(result[j].TauxConversion)
		}
		return result[i].Nom < result[j].Nom
	})
	for i := range result {
		result[i].Rang = i + 1
	}
	return result
}

func formatTopProduits(rows []dto.TopProduit) []dto.TopProduit {
	result := make([]dto.TopProduit, len(rows))
	for i, row := range rows {
		row.ChiffreAffaires = row.ChiffreAffaires.Round(2)
		row.ChiffreAffairesFormate = utils.FormatMAD(row.ChiffreAffaires)
		result[i] = row
	}
	return result
}

// ListDepartements valeurs du filtre département, mises en cache
func (s *DashboardService) ListDepartements(ctx context.Context) ([]string, error) {
	if cached, ok := s.cache.GetDepartements(ctx); ok {
		return cached, nil
	}

	departements, err := s.repo.ListDepartements(ctx)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la récupération des départements: %w", err)
	}
	departements = nonNil(departements)
	_ = s.cache.SetDepartements(ctx, departements)
	return departements, nil
}

// ExportDashboard classeur xlsx des mêmes données que le tableau de bord
func (s *DashboardService) ExportDashboard(ctx context.Context, query dto.DashboardQuery) ([]byte, error) {
	data, err := s.GetDashboard(ctx, query)
	if err != nil {
		return nil, err
	}
	return BuildDashboardWorkbook(data)
}

func BuildDashboardWorkbook(data *dto.DashboardResponse) ([]byte, error) {
	debut := "-"
	if data.Periode.Debut != nil {
		debut = data.Periode.Debut.Format("02/01/2006")
	}
	departement := data.Departement
	if departement == "" {
		departement = "Tous"
	}

	kpis := export.Sheet{
		Name:    "Indicateurs",
		Headers: []string{"Indicateur", "Valeur"},
		Rows: [][]interface{}{
			{"Période", data.Periode.Periode},
			{"Début", debut},
			{"Fin", data.Periode.Fin.Format("02/01/2006")},
			{"Département", departement},
			{"Chiffre d'affaires", data.KPIs.ChiffreAffairesFormate},
			{"Unités vendues", data.KPIs.UnitesVendues},
			{"Commandes", data.KPIs.Commandes},
			{"Clients actifs", data.KPIs.ClientsActifs},
			{"Devis en attente", data.KPIs.DevisEnAttente},
			{"Taux de conversion (%)", data.KPIs.TauxConversion.InexactFloat64()},
		},
		Widths: map[string]float64{"A": 26, "B": 22},
	}

	departements := export.Sheet{
		Name:    "Départements",
		Headers: []string{"Département", "Chiffre d'affaires (MAD)", "Unités", "Part (%)"},
		Widths:  map[string]float64{"A": 28, "B": 22},
	}
	for _, row := range data.RevenueByDepartement {
		departements.Rows = append(departements.Rows, []interface{}{
			row.Departement, row.ChiffreAffaires.InexactFloat64(), row.Unites, row.Part.InexactFloat64(),
		})
	}

	mensuel := export.Sheet{
		Name:    "Mensuel",
		Headers: []string{"Mois", "Chiffre d'affaires (MAD)", "Unités"},
	}
	for _, row := range data.MonthlyRevenue {
		mensuel.Rows = append(mensuel.Rows, []interface{}{
			row.Mois, row.ChiffreAffaires.InexactFloat64(), row.Unites,
		})
	}

	produits := export.Sheet{
		Name:    "Top produits",
		Headers: []string{"Référence", "Produit", "Département", "Unités", "Chiffre d'affaires (MAD)"},
		Widths:  map[string]float64{"B": 32},
	}
	for _, row := range data.TopProduits {
		produits.Rows = append(produits.Rows, []interface{}{
			row.Reference, row.Nom, row.Departement, row.Unites, row.ChiffreAffaires.InexactFloat64(),
		})
	}

	commerciaux := export.Sheet{
		Name:    "Commerciaux",
		Headers: []string{"Rang", "Commercial", "Région", "Commandes", "Chiffre d'affaires (MAD)", "Devis", "Validés", "Refusés", "Conversion (%)"},
		Widths:  map[string]float64{"B": 28},
	}
	for _, row := range data.ClassementCommerciaux {
		commerciaux.Rows = append(commerciaux.Rows, []interface{}{
			row.Rang, row.Nom, row.Region, row.Commandes, row.ChiffreAffaires.InexactFloat64(),
			row.Devis, row.DevisValides, row.DevisRefuses, row.TauxConversion.InexactFloat64(),
		})
	}

	return export.BuildWorkbook([]export.Sheet{kpis, departements, mensuel, produits, commerciaux})
}

// CacheIdentifier identifiant de clé Redis sûr pour (département, période)
func CacheIdentifier(departement, periode string) string {
	if departement == "" {
		return "tous_" + periode
	}

	var b strings.Builder
	for _, r := range strings.ToLower(departement) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return fmt.Sprintf("%s_%s_%x", b.String(), periode, fnv32(departement))
}

// fnv32 distingue deux départements dont la forme ASCII coïncide
func fnv32(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
