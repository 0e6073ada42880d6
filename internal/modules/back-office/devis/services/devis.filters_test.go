package services

import (
	"testing"
	"time"

	"sofimed-core/internal/modules/back-office/devis/dto"

	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }

func sampleDevis() []dto.Devis {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return []dto.Devis{
		{ID: "1", Reference: "DEV-2026-003", ClientID: "cl-1", ClientNom: "Clinique Atlas", CommercialID: strPtr("cm-1"), CommercialNom: strPtr("Karim Bennani"), Montant: decimal.RequireFromString("15000"), Statut: dto.StatutEnAttente, DateCreation: base},
		{ID: "2", Reference: "DEV-2026-001", ClientID: "cl-2", ClientNom: "Hôpital Ibn Sina", CommercialID: strPtr("cm-2"), CommercialNom: strPtr("Salma Amrani"), Montant: decimal.RequireFromString("82000.50"), Statut: dto.StatutValide, DateCreation: base.AddDate(0, 0, 2)},
		{ID: "3", Reference: "DEV-2026-002", ClientID: "cl-1", ClientNom: "Clinique Atlas", Montant: decimal.RequireFromString("15000"), Statut: dto.StatutRefuse, DateCreation: base.AddDate(0, 0, -3)},
		{ID: "4", Reference: "DEV-2026-004", ClientID: "cl-3", ClientNom: "Laboratoire 100%_Bio", CommercialID: strPtr("cm-1"), CommercialNom: strPtr("Karim Bennani"), Montant: decimal.RequireFromString("900"), Statut: dto.StatutEnAttente, DateCreation: base.AddDate(0, 0, 1)},
	}
}

func references(items []dto.Devis) []string {
	refs := make([]string, len(items))
	for i, d := range items {
		refs[i] = d.Reference
	}
	return refs
}

func equalRefs(t *testing.T, got []dto.Devis, want ...string) {
	t.Helper()
	refs := references(got)
	if len(refs) != len(want) {
		t.Fatalf("expected %v, got %v", want, refs)
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, refs)
		}
	}
}

func TestFilterDevis(t *testing.T) {
	items := sampleDevis()

	tests := []struct {
		name   string
		filter dto.DevisFilter
		want   []string
	}{
		{"no filter keeps everything", dto.DevisFilter{}, []string{"DEV-2026-003", "DEV-2026-001", "DEV-2026-002", "DEV-2026-004"}},
		{"by statut", dto.DevisFilter{Statut: dto.StatutEnAttente}, []string{"DEV-2026-003", "DEV-2026-004"}},
		{"by commercial skips unassigned", dto.DevisFilter{CommercialID: "cm-1"}, []string{"DEV-2026-003", "DEV-2026-004"}},
		{"by client", dto.DevisFilter{ClientID: "cl-1"}, []string{"DEV-2026-003", "DEV-2026-002"}},
		{"search reference", dto.DevisFilter{Search: "2026-001"}, []string{"DEV-2026-001"}},
		{"search client case insensitive", dto.DevisFilter{Search: "ibn SINA"}, []string{"DEV-2026-001"}},
		{"search commercial", dto.DevisFilter{Search: "bennani"}, []string{"DEV-2026-003", "DEV-2026-004"}},
		{"search wildcard characters literally", dto.DevisFilter{Search: "100%_"}, []string{"DEV-2026-004"}},
		{"combined", dto.DevisFilter{Statut: dto.StatutRefuse, Search: "atlas"}, []string{"DEV-2026-002"}},
		{"blank search ignored", dto.DevisFilter{Search: "   ", Statut: dto.StatutValide}, []string{"DEV-2026-001"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			equalRefs(t, FilterDevis(items, tt.filter), tt.want...)
		})
	}
}

func TestFilterDevisDoesNotMutateInput(t *testing.T) {
	items := sampleDevis()
	_ = FilterDevis(items, dto.DevisFilter{Statut: dto.StatutValide})
	if len(items) != 4 || items[0].Reference != "DEV-2026-003" {
		t.Fatalf("input slice modified: %v", references(items))
	}
}

func TestSortDevis(t *testing.T) {
	tests := []struct {
		sortBy, order string
		want          []string
	}{
		{"", "", []string{"DEV-2026-001", "DEV-2026-004", "DEV-2026-003", "DEV-2026-002"}},
		{"date", "asc", []string{"DEV-2026-002", "DEV-2026-003", "DEV-2026-004", "DEV-2026-001"}},
		{"montant", "desc", []string{"DEV-2026-001", "DEV-2026-002", "DEV-2026-003", "DEV-2026-004"}},
		{"montant", "asc", []string{"DEV-2026-004", "DEV-2026-002", "DEV-2026-003", "DEV-2026-001"}},
		{"client", "asc", []string{"DEV-2026-002", "DEV-2026-003", "DEV-2026-001", "DEV-2026-004"}},
		{"reference", "asc", []string{"DEV-2026-001", "DEV-2026-002", "DEV-2026-003", "DEV-2026-004"}},
	}

	for _, tt := range tests {
		t.Run(tt.sortBy+"_"+tt.order, func(t *testing.T) {
			items := sampleDevis()
			SortDevis(items, tt.sortBy, tt.order)
			equalRefs(t, items, tt.want...)
		})
	}
}

func TestCountByStatus(t *testing.T) {
	counts := CountByStatus(sampleDevis())
	if counts.Total != 4 || counts.EnAttente != 2 || counts.Valide != 1 || counts.Refuse != 1 {
		t.Fatalf("unexpected counts %+v", counts)
	}
}

func TestCanTransition(t *testing.T) {
	allowed := map[[2]string]bool{
		{dto.StatutEnAttente, dto.StatutValide}:    true,
		{dto.StatutEnAttente, dto.StatutRefuse}:    true,
		{dto.StatutEnAttente, dto.StatutEnAttente}: false,
		{dto.StatutValide, dto.StatutRefuse}:       false,
		{dto.StatutRefuse, dto.StatutValide}:       false,
		{dto.StatutValide, dto.StatutEnAttente}:    false,
	}
	for pair, expected := range allowed {
		if got := CanTransition(pair[0], pair[1]); got != expected {
			t.Fatalf("CanTransition(%s, %s) expected %v", pair[0], pair[1], expected)
		}
	}
}

func TestBuildTimeline(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	decided := created.AddDate(0, 0, 5)
	contre := decimal.RequireFromString("14000")

	d := dto.Devis{Reference: "DEV-1", Montant: decimal.RequireFromString("15000"), Statut: dto.StatutValide, DateCreation: created, DateReponse: &decided}
	events := []dto.NegociationEvent{
		{Auteur: "commercial", Type: "contre_proposition", Montant: &contre, CreatedAt: created.AddDate(0, 0, 2)},
		{Auteur: "client", Type: "proposition", CreatedAt: created.AddDate(0, 0, 1)},
	}

	timeline := BuildTimeline(d, events)
	if len(timeline) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(timeline))
	}
	wantTypes := []string{"creation", "negociation", "negociation", "decision"}
	for i, want := range wantTypes {
		if timeline[i].Type != want {
			t.Fatalf("entry %d: expected %s, got %s", i, want, timeline[i].Type)
		}
	}
	if timeline[1].Libelle != "Proposition" || timeline[2].Libelle != "Contre-proposition" {
		t.Fatalf("negotiation entries not in chronological order: %+v", timeline)
	}
	if timeline[3].Libelle != "Devis validé" {
		t.Fatalf("unexpected decision label %q", timeline[3].Libelle)
	}
}

func TestBuildTimelinePendingHasNoDecision(t *testing.T) {
	d := dto.Devis{Reference: "DEV-2", Statut: dto.StatutEnAttente, DateCreation: time.Now()}
	timeline := BuildTimeline(d, nil)
	if len(timeline) != 1 || timeline[0].Type != "creation" {
		t.Fatalf("expected only creation entry, got %+v", timeline)
	}
}
