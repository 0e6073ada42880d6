package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/infrastructure/logger"
	"sofimed-core/internal/modules/back-office/dashboard/dto"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type fakeDashboardRepo struct {
	calls   int
	filters []dto.DashboardFilter
}

func (f *fakeDashboardRepo) SalesTotals(ctx context.Context, filter dto.DashboardFilter) (dto.SalesTotals, error) {
	f.calls++
	f.filters = append(f.filters, filter)
	return dto.SalesTotals{
		ChiffreAffaires: decimal.RequireFromString("10000"),
		Unites:          42,
		Commandes:       7,
		ClientsActifs:   3,
	}, nil
}

func (f *fakeDashboardRepo) DevisCounts(ctx context.Context, filter dto.DashboardFilter) (dto.DevisCounts, error) {
	return dto.DevisCounts{EnAttente: 4, Valides: 3, Refuses: 1}, nil
}

func (f *fakeDashboardRepo) RevenueByDepartement(ctx context.Context, filter dto.DashboardFilter) ([]dto.DepartementRevenue, error) {
	return []dto.DepartementRevenue{
		{Departement: "Laboratoire", ChiffreAffaires: decimal.RequireFromString("2500")},
		{Departement: "Imagerie", ChiffreAffaires: decimal.RequireFromString("7500")},
	}, nil
}

func (f *fakeDashboardRepo) MonthlyRevenue(ctx context.Context, filter dto.DashboardFilter) ([]dto.MonthlyRevenue, error) {
	return nil, nil
}

func (f *fakeDashboardRepo) TopProduits(ctx context.Context, filter dto.DashboardFilter, limit int) ([]dto.TopProduit, error) {
	return []dto.TopProduit{{Reference: "ECHO-1", Nom: "Échographe", ChiffreAffaires: decimal.RequireFromString("7500")}}, nil
}

func (f *fakeDashboardRepo) CommercialRanking(ctx context.Context, filter dto.DashboardFilter) ([]dto.CommercialRanking, error) {
	return []dto.CommercialRanking{
		{CommercialID: "c1", Nom: "Bennani", ChiffreAffaires: decimal.RequireFromString("3000"), DevisValides: 1, DevisRefuses: 1},
		{CommercialID: "c2", Nom: "Amrani", ChiffreAffaires: decimal.RequireFromString("7000"), DevisValides: 2},
	}, nil
}

func (f *fakeDashboardRepo) ListDepartements(ctx context.Context) ([]string, error) {
	f.calls++
	return []string{"Imagerie", "Laboratoire"}, nil
}

type memoryDashboardCache struct {
	entries      map[string]dto.DashboardResponse
	departements []string
}

func (m *memoryDashboardCache) GetDashboard(ctx context.Context, key string, dest *dto.DashboardResponse) (bool, error) {
	entry, ok := m.entries[key]
	if ok {
		*dest = entry
	}
	return ok, nil
}

func (m *memoryDashboardCache) SetDashboard(ctx context.Context, key string, value *dto.DashboardResponse, ttl time.Duration) error {
	m.entries[key] = *value
	return nil
}

func (m *memoryDashboardCache) GetDepartements(ctx context.Context) ([]string, bool) {
	return m.departements, m.departements != nil
}

func (m *memoryDashboardCache) SetDepartements(ctx context.Context, departements []string) error {
	m.departements = departements
	return nil
}

func newDashboardTestService() (*DashboardService, *fakeDashboardRepo) {
	repo := &fakeDashboardRepo{}
	cache := &memoryDashboardCache{entries: map[string]dto.DashboardResponse{}}
	service := NewDashboardService(repo, cache, &config.Config{Cache: config.CacheConfig{DashboardTTL: time.Minute}}, logger.NewDiscardLogger())
	service.now = func() time.Time { return time.Date(2024, time.May, 15, 10, 0, 0, 0, time.UTC) }
	return service, repo
}

func TestResolvePeriode(t *testing.T) {
	now := time.Date(2024, time.May, 15, 10, 30, 0, 0, time.UTC)
	cases := map[string]time.Time{
		"":          time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		"semaine":   time.Date(2024, time.May, 9, 0, 0, 0, 0, time.UTC),
		"mois":      time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		"trimestre": time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		"annee":     time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	for periode, expected := range cases {
		r, err := ResolvePeriode(periode, now)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", periode, err)
		}
		if r.Debut == nil || !r.Debut.Equal(expected) {
			t.Fatalf("%q: expected start %v, got %v", periode, expected, r.Debut)
		}
	}

	r, err := ResolvePeriode("tout", now)
	if err != nil || r.Debut != nil {
		t.Fatalf("tout must have no lower bound, got %v %v", r.Debut, err)
	}
	if _, err := ResolvePeriode("decennie", now); err == nil {
		t.Fatalf("unknown period must be rejected")
	}
}

func TestGetDashboardComputesAndCaches(t *testing.T) {
	service, repo := newDashboardTestService()
	ctx := context.Background()

	first, err := service.GetDashboard(ctx, dto.DashboardQuery{Periode: "annee"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.LoadedFrom != "database" {
		t.Fatalf("first call must hit the database")
	}
	if first.KPIs.TauxConversion.String() != "75" {
		t.Fatalf("conversion must ignore pending quotes, got %s", first.KPIs.TauxConversion)
	}
	if first.KPIs.ChiffreAffairesFormate != "10 000,00 MAD" {
		t.Fatalf("unexpected formatted revenue %q", first.KPIs.ChiffreAffairesFormate)
	}
	if first.RevenueByDepartement[0].Departement != "Imagerie" || first.RevenueByDepartement[0].Part.String() != "75" {
		t.Fatalf("departments must be sorted with their share, got %+v", first.RevenueByDepartement[0])
	}
	if first.ClassementCommerciaux[0].CommercialID != "c2" || first.ClassementCommerciaux[0].Rang != 1 {
		t.Fatalf("ranking must be by revenue, got %+v", first.ClassementCommerciaux[0])
	}
	if first.MonthlyRevenue == nil {
		t.Fatalf("empty series must serialize as []")
	}

	second, err := service.GetDashboard(ctx, dto.DashboardQuery{Periode: "annee"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.LoadedFrom != "cache" || repo.calls != 1 {
		t.Fatalf("second call must come from cache, repo calls=%d", repo.calls)
	}

	if _, err := service.GetDashboard(ctx, dto.DashboardQuery{Periode: "annee", Refresh: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.calls != 2 {
		t.Fatalf("refresh must bypass the cache")
	}
}

func TestDashboardDepartementFilterIsForwarded(t *testing.T) {
	service, repo := newDashboardTestService()

	if _, err := service.GetDashboard(context.Background(), dto.DashboardQuery{Departement: " Imagerie ", Periode: "tout"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.filters[0].Departement != "Imagerie" || repo.filters[0].Range.Debut != nil {
		t.Fatalf("unexpected filter: %+v", repo.filters[0])
	}
}

func TestCacheIdentifier(t *testing.T) {
	if got := CacheIdentifier("", "mois"); got != "tous_mois" {
		t.Fatalf("unexpected identifier %q", got)
	}
	a := CacheIdentifier("Imagerie médicale", "mois")
	b := CacheIdentifier("Imagerie medicale", "mois")
	if a == b {
		t.Fatalf("accented and plain names must not collide")
	}
	for _, r := range a {
		if r > 127 || r == ' ' {
			t.Fatalf("identifier must be ascii without spaces: %q", a)
		}
	}
}

func TestListDepartementsUsesCache(t *testing.T) {
	service, repo := newDashboardTestService()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		departements, err := service.ListDepartements(ctx)
		if err != nil || len(departements) != 2 {
			t.Fatalf("unexpected result %v %v", departements, err)
		}
	}
	if repo.calls != 1 {
		t.Fatalf("departments must be cached, repo calls=%d", repo.calls)
	}
}

func TestExportDashboard(t *testing.T) {
	service, _ := newDashboardTestService()

	content, err := service.ExportDashboard(context.Background(), dto.DashboardQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("export must be a valid workbook: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 5 || sheets[0] != "Indicateurs" {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	value, err := f.GetCellValue("Top produits", "A2")
	if err != nil || value != "ECHO-1" {
		t.Fatalf("expected top product row, got %q %v", value, err)
	}
}
