package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"sofimed-core/internal/infrastructure/logger"
	"sofimed-core/internal/modules/back-office/devis/dto"
	"sofimed-core/internal/shared/utils"

	"github.com/xuri/excelize/v2"
)

type memoryDevis struct {
	items      []dto.Devis
	events     map[string][]dto.NegociationEvent
	lastLimit  int
	lastOffset int
}

func (m *memoryDevis) ListDevis(ctx context.Context, query dto.DevisListQuery, limit, offset int) ([]dto.Devis, dto.StatusCounts, error) {
	m.lastLimit, m.lastOffset = limit, offset
	withoutStatut := query.Filter()
	withoutStatut.Statut = ""
	counts := CountByStatus(FilterDevis(m.items, withoutStatut))

	filtered := FilterDevis(m.items, query.Filter())
	SortDevis(filtered, query.SortBy, query.SortOrder)
	page, _ := utils.Paginate(filtered, offset/limit+1, limit)
	return page, counts, nil
}

// ListExportDevis reproduit la requête SQL: filtre, tri puis LIMIT
func (m *memoryDevis) ListExportDevis(ctx context.Context, query dto.DevisListQuery, max int) ([]dto.Devis, error) {
	filtered := FilterDevis(m.items, query.Filter())
	SortDevis(filtered, query.SortBy, query.SortOrder)
	if len(filtered) > max {
		filtered = filtered[:max]
	}
	return filtered, nil
}

func (m *memoryDevis) GetDevis(ctx context.Context, id string) (*dto.Devis, error) {
	for _, d := range m.items {
		if d.ID == id {
			found := d
			return &found, nil
		}
	}
	return nil, dto.ErrDevisNotFound
}

func (m *memoryDevis) ListNegociation(ctx context.Context, devisID string) ([]dto.NegociationEvent, error) {
	return m.events[devisID], nil
}

func (m *memoryDevis) UpdateStatut(ctx context.Context, id, statut, commentaire, decidePar string, allowed func(current string) error) error {
	for i := range m.items {
		if m.items[i].ID != id {
			continue
		}
		if err := allowed(m.items[i].Statut); err != nil {
			return err
		}
		m.items[i].Statut = statut
		if commentaire != "" {
			m.items[i].CommentaireDecision = &commentaire
		}
		return nil
	}
	return dto.ErrDevisNotFound
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) InvalidateAggregates(ctx context.Context) error {
	c.calls++
	return nil
}

func newTestDevisService() (*DevisService, *memoryDevis, *countingInvalidator) {
	repo := &memoryDevis{items: sampleDevis(), events: map[string][]dto.NegociationEvent{}}
	invalidator := &countingInvalidator{}
	return NewDevisService(repo, invalidator, logger.NewDiscardLogger()), repo, invalidator
}

func TestListDevisCountsIgnoreStatutFilter(t *testing.T) {
	svc, _, _ := newTestDevisService()

	result, err := svc.ListDevis(context.Background(), dto.DevisListQuery{Statut: dto.StatutEnAttente, Search: "atlas"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].Reference != "DEV-2026-003" {
		t.Fatalf("unexpected items %v", references(result.Items))
	}
	if result.Counts.Total != 2 || result.Counts.EnAttente != 1 || result.Counts.Refuse != 1 {
		t.Fatalf("unexpected counts %+v", result.Counts)
	}
	if result.Pagination.Total != 1 {
		t.Fatalf("pagination total must follow the statut tab, got %d", result.Pagination.Total)
	}
}

func TestListDevisPagination(t *testing.T) {
	svc, repo, _ := newTestDevisService()

	result, err := svc.ListDevis(context.Background(), dto.DevisListQuery{Page: 2, Limit: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastLimit != 3 || repo.lastOffset != 3 {
		t.Fatalf("expected limit 3 offset 3, got %d %d", repo.lastLimit, repo.lastOffset)
	}
	if len(result.Items) != 1 || !result.Pagination.HasPrev || result.Pagination.HasNext {
		t.Fatalf("unexpected page %+v", result.Pagination)
	}
}

func TestGetDevisNotFound(t *testing.T) {
	svc, _, _ := newTestDevisService()

	_, err := svc.GetDevis(context.Background(), "missing")
	var svcErr *utils.ServiceError
	if !errors.As(err, &svcErr) || svcErr.Code != "DEVIS_NOT_FOUND" {
		t.Fatalf("expected DEVIS_NOT_FOUND, got %v", err)
	}
}

func TestGetDevisReturnsTimeline(t *testing.T) {
	svc, _, _ := newTestDevisService()

	detail, err := svc.GetDevis(context.Background(), "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Negociation == nil || len(detail.Timeline) != 1 {
		t.Fatalf("expected empty negotiation and creation entry, got %+v", detail)
	}
}

func TestUpdateStatut(t *testing.T) {
	svc, _, invalidator := newTestDevisService()

	updated, err := svc.UpdateStatut(context.Background(), "1", "admin-1", dto.UpdateStatutRequest{Statut: dto.StatutValide, Commentaire: "Remise acceptée"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Statut != dto.StatutValide {
		t.Fatalf("expected valide, got %s", updated.Statut)
	}
	if invalidator.calls != 1 {
		t.Fatalf("expected aggregate caches to be purged once, got %d", invalidator.calls)
	}

	_, err = svc.UpdateStatut(context.Background(), "1", "admin-1", dto.UpdateStatutRequest{Statut: dto.StatutRefuse})
	var svcErr *utils.ServiceError
	if !errors.As(err, &svcErr) || svcErr.Code != "INVALID_TRANSITION" {
		t.Fatalf("expected INVALID_TRANSITION on decided devis, got %v", err)
	}
	if invalidator.calls != 1 {
		t.Fatal("rejected transition must not purge caches")
	}
}

func TestExportDevisAppliesFiltersAndSort(t *testing.T) {
	svc, _, _ := newTestDevisService()

	content, err := svc.ExportDevis(context.Background(), dto.DevisListQuery{Search: "bennani", SortBy: "montant", SortOrder: "asc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("invalid workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Devis")
	if err != nil {
		t.Fatalf("missing sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "DEV-2026-004" || rows[2][0] != "DEV-2026-003" {
		t.Fatalf("unexpected order %v / %v", rows[1], rows[2])
	}
	if rows[1][5] != "En attente" {
		t.Fatalf("expected readable statut, got %q", rows[1][5])
	}
}

func TestExportDevisKeepsOlderMatchesBeyondLimit(t *testing.T) {
	svc, repo, _ := newTestDevisService()
	svc.exportLimit = 5

	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	repo.items = nil
	for i := 0; i < 8; i++ {
		repo.items = append(repo.items, dto.Devis{
			ID:           fmt.Sprintf("recent-%d", i),
			Reference:    fmt.Sprintf("DEV-2026-1%02d", i),
			ClientID:     "autre-client",
			ClientNom:    "Laboratoire Rif",
			Statut:       dto.StatutEnAttente,
			DateCreation: base.AddDate(0, 0, i),
		})
	}
	repo.items = append(repo.items, dto.Devis{
		ID:           "ancien",
		Reference:    "DEV-2025-001",
		ClientID:     "client-cible",
		ClientNom:    "Clinique Atlas",
		Statut:       dto.StatutValide,
		DateCreation: base.AddDate(-1, 0, 0),
	})

	content, err := svc.ExportDevis(context.Background(), dto.DevisListQuery{ClientID: "client-cible"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("invalid workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Devis")
	if err != nil {
		t.Fatalf("missing sheet: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "DEV-2025-001" {
		t.Fatalf("expected the older devis of the client, got %v", rows)
	}

	content, err = svc.ExportDevis(context.Background(), dto.DevisListQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f2, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("invalid workbook: %v", err)
	}
	defer f2.Close()
	if rows, _ := f2.GetRows("Devis"); len(rows) != 6 {
		t.Fatalf("expected header + 5 capped rows, got %d", len(rows))
	}
}
