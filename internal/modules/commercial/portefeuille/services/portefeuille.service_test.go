package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"sofimed-core/internal/infrastructure/logger"
	"sofimed-core/internal/modules/commercial/portefeuille/dto"

	"github.com/shopspring/decimal"
)

var now = time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC)

func daysAgo(d int) *time.Time {
	t := now.AddDate(0, 0, -d)
	return &t
}

func strPtr(s string) *string { return &s }

func TestClassifyClient(t *testing.T) {
	old := now.AddDate(-1, 0, 0)
	cases := []struct {
		name string
		row  dto.ClientRow
		want string
	}{
		{"loyal recent", dto.ClientRow{ScoreFidelite: 85, DerniereCommande: daysAgo(10), CreatedAt: old}, dto.ComportementFidele},
		{"loyal boundary", dto.ClientRow{ScoreFidelite: 80, DerniereCommande: daysAgo(30), CreatedAt: old}, dto.ComportementFidele},
		{"high score but 31 days", dto.ClientRow{ScoreFidelite: 95, DerniereCommande: daysAgo(31), CreatedAt: old}, dto.ComportementRegulier},
		{"low score recent", dto.ClientRow{ScoreFidelite: 40, DerniereCommande: daysAgo(5), CreatedAt: old}, dto.ComportementRegulier},
		{"regular boundary", dto.ClientRow{DerniereCommande: daysAgo(90), CreatedAt: old}, dto.ComportementRegulier},
		{"to follow up", dto.ClientRow{DerniereCommande: daysAgo(91), CreatedAt: old}, dto.ComportementARelancer},
		{"follow up boundary", dto.ClientRow{DerniereCommande: daysAgo(180), CreatedAt: old}, dto.ComportementARelancer},
		{"inactive", dto.ClientRow{DerniereCommande: daysAgo(181), CreatedAt: old}, dto.ComportementInactif},
		{"never ordered old", dto.ClientRow{CreatedAt: old}, dto.ComportementInactif},
		{"never ordered new", dto.ClientRow{CreatedAt: now.AddDate(0, 0, -3)}, dto.ComportementNouveau},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyClient(tc.row, now); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func portfolio() []dto.ClientRow {
	old := now.AddDate(-1, 0, 0)
	clients := []dto.ClientRow{
		{ID: "1", RaisonSociale: "Clinique Atlas", Ville: strPtr("Rabat"), ScoreFidelite: 90, DerniereCommande: daysAgo(3), ChiffreAffaires: decimal.RequireFromString("50000"), CreatedAt: old},
		{ID: "2", RaisonSociale: "Hôpital Ibn Sina", Ville: strPtr("Rabat"), ScoreFidelite: 60, DerniereCommande: daysAgo(120), ChiffreAffaires: decimal.RequireFromString("120000"), CreatedAt: old},
		{ID: "3", RaisonSociale: "cabinet Dr Alami", ContactNom: strPtr("Youssef Alami"), ScoreFidelite: 30, ChiffreAffaires: decimal.Zero, CreatedAt: now.AddDate(0, 0, -2)},
		{ID: "4", RaisonSociale: "Laboratoire Zénith", ScoreFidelite: 70, DerniereCommande: daysAgo(400), ChiffreAffaires: decimal.RequireFromString("8000"), CreatedAt: old},
	}
	Decorate(clients, now)
	return clients
}

func ids(rows []dto.ClientRow) string {
	out := ""
	for _, r := range rows {
		out += r.ID
	}
	return out
}

func TestDecorateAndRepartition(t *testing.T) {
	clients := portfolio()
	if clients[0].ChiffreAffairesFormate != "50 000,00 MAD" || clients[0].JoursDepuisCommande == nil || *clients[0].JoursDepuisCommande != 3 {
		t.Fatalf("unexpected decoration %+v", clients[0])
	}

	rep := Repartition(clients)
	if len(rep) != 5 || rep[dto.ComportementFidele] != 1 || rep[dto.ComportementARelancer] != 1 ||
		rep[dto.ComportementNouveau] != 1 || rep[dto.ComportementInactif] != 1 || rep[dto.ComportementRegulier] != 0 {
		t.Fatalf("unexpected repartition %v", rep)
	}
}

func TestFilterAndSortClients(t *testing.T) {
	clients := portfolio()

	if got := ids(FilterClients(clients, "", "rabat")); got != "12" {
		t.Fatalf("search on city expected 12, got %s", got)
	}
	if got := ids(FilterClients(clients, "", "youssef")); got != "3" {
		t.Fatalf("search on contact expected 3, got %s", got)
	}
	if got := ids(FilterClients(clients, dto.ComportementARelancer, "")); got != "2" {
		t.Fatalf("behaviour filter expected 2, got %s", got)
	}

	sorted := append([]dto.ClientRow(nil), clients...)
	SortClients(sorted, "", "")
	if got := ids(sorted); got != "3124" {
		t.Fatalf("default sort by name expected 3124, got %s", got)
	}
	SortClients(sorted, "chiffre_affaires", "")
	if got := ids(sorted); got != "2143" {
		t.Fatalf("revenue sort expected 2143, got %s", got)
	}
	SortClients(sorted, "derniere_commande", "asc")
	if got := ids(sorted); got != "3421" {
		t.Fatalf("last order asc expected 3421, got %s", got)
	}
	SortClients(sorted, "score", "desc")
	if got := ids(sorted); got != "1423" {
		t.Fatalf("score desc expected 1423, got %s", got)
	}
}

func TestBuildOverview(t *testing.T) {
	overview := BuildOverview(
		dto.CommercialProfile{ID: "cm-1", ObjectifMensuel: decimal.RequireFromString("200000")},
		dto.CommercialTotals{
			Commandes:           12,
			ChiffreAffaires:     decimal.RequireFromString("450000"),
			ChiffreAffairesMois: decimal.RequireFromString("50000"),
			Devis:               dto.DevisParStatut{Total: 10, EnAttente: 2, Valide: 6, Refuse: 2},
		},
	)

	if !overview.TauxConversion.Equal(decimal.RequireFromString("75")) {
		t.Fatalf("unexpected conversion %s", overview.TauxConversion)
	}
	if !overview.ProgressionObjectif.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("unexpected objective progress %s", overview.ProgressionObjectif)
	}
	if overview.ChiffreAffairesFormate != "450 000,00 MAD" {
		t.Fatalf("unexpected formatted revenue %q", overview.ChiffreAffairesFormate)
	}

	noObjective := BuildOverview(dto.CommercialProfile{}, dto.CommercialTotals{ChiffreAffairesMois: decimal.RequireFromString("10")})
	if !noObjective.ProgressionObjectif.IsZero() {
		t.Fatalf("zero objective must give zero progress, got %s", noObjective.ProgressionObjectif)
	}
}

func TestFillMonths(t *testing.T) {
	since := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	series := FillMonths([]dto.MonthlyRevenue{
		{Mois: "2027-01", ChiffreAffaires: decimal.RequireFromString("10"), Commandes: 1},
	}, since, 4)

	want := []string{"2026-11", "2026-12", "2027-01", "2027-02"}
	for i, m := range want {
		if series[i].Mois != m {
			t.Fatalf("position %d: expected %s, got %s", i, m, series[i].Mois)
		}
	}
	if series[2].Commandes != 1 || series[0].Commandes != 0 {
		t.Fatalf("unexpected values %+v", series)
	}
}

type fakePortefeuilleRepo struct {
	clientReads int
}

func (f *fakePortefeuilleRepo) ProfileByUser(ctx context.Context, userID string) (*dto.CommercialProfile, error) {
	if userID != "u-1" {
		return nil, dto.ErrCommercialNotFound
	}
	return &dto.CommercialProfile{ID: "cm-1", UserID: "u-1"}, nil
}

func (f *fakePortefeuilleRepo) ProfileByID(ctx context.Context, commercialID string) (*dto.CommercialProfile, error) {
	if commercialID != "cm-1" {
		return nil, dto.ErrCommercialNotFound
	}
	return &dto.CommercialProfile{ID: "cm-1", UserID: "u-1", ObjectifMensuel: decimal.RequireFromString("1000")}, nil
}

func (f *fakePortefeuilleRepo) CommercialTotals(ctx context.Context, commercialID string, monthStart time.Time) (*dto.CommercialTotals, error) {
	return &dto.CommercialTotals{ChiffreAffairesMois: decimal.RequireFromString("500")}, nil
}

func (f *fakePortefeuilleRepo) ClientRows(ctx context.Context, commercialID string) ([]dto.ClientRow, error) {
	f.clientReads++
	rows := portfolio()
	for i := range rows {
		rows[i].Comportement = ""
	}
	return rows, nil
}

func (f *fakePortefeuilleRepo) MonthlyRevenue(ctx context.Context, commercialID string, since time.Time) ([]dto.MonthlyRevenue, error) {
	return nil, nil
}

func (f *fakePortefeuilleRepo) PendingDevis(ctx context.Context, commercialID string, limit int) ([]dto.PendingDevis, error) {
	return []dto.PendingDevis{{ID: "dv-1", Montant: decimal.RequireFromString("1500"), DateCreation: now.AddDate(0, 0, -4)}}, nil
}

type jsonCache struct{ entries map[string][]byte }

func (c *jsonCache) Get(ctx context.Context, identifier string, dest interface{}) (bool, error) {
	raw, ok := c.entries[identifier]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *jsonCache) Set(ctx context.Context, identifier string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[identifier] = raw
	return nil
}

func newTestService(repo *fakePortefeuilleRepo) *PortefeuilleService {
	svc := NewPortefeuilleService(repo, &jsonCache{entries: map[string][]byte{}}, logger.NewDiscardLogger())
	svc.now = func() time.Time { return now }
	return svc
}

func TestDashboardIsCachedPerCommercial(t *testing.T) {
	repo := &fakePortefeuilleRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	first, err := svc.Dashboard(ctx, "cm-1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.LoadedFrom != "database" || len(first.Mensuel) != dto.MonthlySeriesMonths || len(first.TopClients) != 4 {
		t.Fatalf("unexpected dashboard %+v", first)
	}
	if first.TopClients[0].ID != "2" || first.DevisEnAttente[0].JoursEnAttente != 4 || first.DevisEnAttente[0].MontantFormate != "1 500,00 MAD" {
		t.Fatalf("unexpected derived values %+v / %+v", first.TopClients[0], first.DevisEnAttente[0])
	}
	if !first.Overview.ProgressionObjectif.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("unexpected progress %s", first.Overview.ProgressionObjectif)
	}

	second, err := svc.Dashboard(ctx, "cm-1", false)
	if err != nil || second.LoadedFrom != "cache" || repo.clientReads != 1 {
		t.Fatalf("expected cache hit, got %s after %d reads (%v)", second.LoadedFrom, repo.clientReads, err)
	}

	if _, err := svc.Dashboard(ctx, "cm-1", true); err != nil || repo.clientReads != 2 {
		t.Fatalf("refresh must bypass cache, reads=%d err=%v", repo.clientReads, err)
	}
}

func TestClientsUnknownCommercial(t *testing.T) {
	svc := newTestService(&fakePortefeuilleRepo{})
	if _, err := svc.Clients(context.Background(), "cm-x", dto.ClientListQuery{}); err == nil {
		t.Fatal("expected COMMERCIAL_NOT_FOUND")
	}

	result, err := svc.Clients(context.Background(), "cm-1", dto.ClientListQuery{Behavior: dto.ComportementFidele})
	if err != nil || result.Total != 1 || result.Repartition[dto.ComportementInactif] != 1 {
		t.Fatalf("unexpected result %+v %v", result, err)
	}
}
