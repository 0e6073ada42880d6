package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"sofimed-core/internal/infrastructure/logger"
	"sofimed-core/internal/modules/back-office/reclamations/dto"
	"sofimed-core/internal/shared/utils"
)

type memoryStore struct {
	docs map[string]*dto.Reclamation
}

func newMemoryStore() *memoryStore {
	return &memoryStore{docs: map[string]*dto.Reclamation{}}
}

func (m *memoryStore) matching(filter dto.StoreFilter) []dto.Reclamation {
	var items []dto.Reclamation
	for _, r := range m.docs {
		if filter.Statut != "" && r.Statut != filter.Statut {
			continue
		}
		if filter.Priorite != "" && r.Priorite != filter.Priorite {
			continue
		}
		if filter.Categorie != "" && r.Categorie != filter.Categorie {
			continue
		}
		if filter.Search != "" && !utils.ContainsFold(r.Sujet, filter.Search) && !utils.ContainsFold(r.ClientNom, filter.Search) && !utils.ContainsFold(r.Reference, filter.Search) {
			continue
		}
		items = append(items, *r)
	}
	return items
}

// List se comporte comme le pipeline Mongo: tri par priorité puis limite
func (m *memoryStore) List(ctx context.Context, filter dto.StoreFilter, limit int) ([]dto.Reclamation, error) {
	items := m.matching(filter)
	SortReclamations(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memoryStore) CountByStatut(ctx context.Context, filter dto.StoreFilter) (map[string]int, error) {
	filter.Statut = ""
	byStatut := map[string]int{}
	for _, r := range m.matching(filter) {
		byStatut[r.Statut]++
	}
	return byStatut, nil
}

func (m *memoryStore) maxSeq(year int) int64 {
	var max int64
	prefix := fmt.Sprintf("REC-%d-", year)
	for _, r := range m.docs {
		if !strings.HasPrefix(r.Reference, prefix) {
			continue
		}
		if n, err := strconv.ParseInt(strings.TrimPrefix(r.Reference, prefix), 10, 64); err == nil && n > max {
			max = n
		}
	}
	return max
}

func (m *memoryStore) Get(ctx context.Context, id string) (*dto.Reclamation, error) {
	r, ok := m.docs[id]
	if !ok {
		return nil, dto.ErrReclamationNotFound
	}
	found := *r
	found.Reponses = append([]dto.Reponse(nil), r.Reponses...)
	return &found, nil
}

func (m *memoryStore) Insert(ctx context.Context, r *dto.Reclamation) error {
	for _, existing := range m.docs {
		if existing.Reference == r.Reference {
			return fmt.Errorf("%w: %s", dto.ErrDuplicateReference, r.Reference)
		}
	}
	stored := *r
	m.docs[r.ID] = &stored
	return nil
}

func (m *memoryStore) UpdateDetails(ctx context.Context, id string, req dto.UpdateReclamationRequest, now time.Time) error {
	r, ok := m.docs[id]
	if !ok {
		return dto.ErrReclamationNotFound
	}
	r.Sujet, r.Description, r.Categorie, r.Priorite, r.UpdatedAt = req.Sujet, req.Description, req.Categorie, req.Priorite, now
	return nil
}

func (m *memoryStore) SetStatut(ctx context.Context, id string, change dto.StatutChange, now time.Time) error {
	r, ok := m.docs[id]
	if !ok {
		return dto.ErrReclamationNotFound
	}
	if r.Statut != change.From {
		return dto.ErrStatutChanged
	}
	r.Statut = change.To
	if change.ResolvedAt != nil {
		r.ResolvedAt = change.ResolvedAt
	}
	if change.ClearResolved {
		r.ResolvedAt = nil
	}
	return nil
}

func (m *memoryStore) AppendReponse(ctx context.Context, id, expectedStatut string, reponse dto.Reponse, newStatut string, now time.Time) error {
	r, ok := m.docs[id]
	if !ok {
		return dto.ErrReclamationNotFound
	}
	if r.Statut != expectedStatut {
		return dto.ErrStatutChanged
	}
	r.Reponses = append(r.Reponses, reponse)
	if newStatut != "" {
		r.Statut = newStatut
	}
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, id string) error {
	if _, ok := m.docs[id]; !ok {
		return dto.ErrReclamationNotFound
	}
	delete(m.docs, id)
	return nil
}

// memorySequence compteur volatil; floor nil simule une resynchronisation sans effet
type memorySequence struct {
	counters map[int]int64
	floor    *memoryStore
	resyncs  int
}

func (s *memorySequence) Next(ctx context.Context, year int) (int64, error) {
	s.counters[year]++
	return s.counters[year], nil
}

func (s *memorySequence) Resync(ctx context.Context, year int) error {
	s.resyncs++
	if s.floor != nil {
		if max := s.floor.maxSeq(year); max > s.counters[year] {
			s.counters[year] = max
		}
	}
	return nil
}

var fixedNow = time.Date(2026, 5, 12, 14, 0, 0, 0, time.UTC)

func newTestService() (*ReclamationService, *memoryStore) {
	store := newMemoryStore()
	svc := NewReclamationService(store, &memorySequence{counters: map[int]int64{}, floor: store}, logger.NewDiscardLogger())
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func createTicket(t *testing.T, svc *ReclamationService, sujet, priorite string) *dto.Reclamation {
	t.Helper()
	r, err := svc.Create(context.Background(), dto.CreateReclamationRequest{
		ClientID:    "5f0c3c1e-0a4e-4b8f-9e59-2f5c1c0d7a11",
		ClientNom:   "Clinique Atlas",
		Categorie:   "livraison",
		Priorite:    priorite,
		Sujet:       sujet,
		Description: "Colis incomplet",
	}, "admin-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return r
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	var svcErr *utils.ServiceError
	if !errors.As(err, &svcErr) || svcErr.Code != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestCreateAssignsSequentialReferences(t *testing.T) {
	svc, _ := newTestService()

	first := createTicket(t, svc, "Livraison en retard", "")
	second := createTicket(t, svc, "Carton abîmé", dto.PrioriteHaute)

	if first.Reference != "REC-2026-0001" || second.Reference != "REC-2026-0002" {
		t.Fatalf("unexpected references %s %s", first.Reference, second.Reference)
	}
	if first.Priorite != dto.PrioriteMoyenne || first.Statut != dto.StatutNouveau {
		t.Fatalf("unexpected defaults %+v", first)
	}
}

func TestFormatReference(t *testing.T) {
	if got := FormatReference(2026, 42); got != "REC-2026-0042" {
		t.Fatalf("unexpected %s", got)
	}
	if got := FormatReference(2026, 12345); got != "REC-2026-12345" {
		t.Fatalf("unexpected %s", got)
	}
}

func TestListSortsByPriorityThenNewest(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []dto.Reclamation{
		{Reference: "A", Priorite: dto.PrioriteBasse, CreatedAt: base.Add(5 * time.Hour)},
		{Reference: "B", Priorite: dto.PrioriteCritique, CreatedAt: base},
		{Reference: "C", Priorite: dto.PrioriteHaute, CreatedAt: base.Add(time.Hour)},
		{Reference: "D", Priorite: dto.PrioriteCritique, CreatedAt: base.Add(2 * time.Hour)},
	}
	SortReclamations(items)

	want := []string{"D", "B", "C", "A"}
	for i, ref := range want {
		if items[i].Reference != ref {
			t.Fatalf("position %d: expected %s, got %s", i, ref, items[i].Reference)
		}
	}
}

func TestListCountsCoverAllStatuses(t *testing.T) {
	svc, _ := newTestService()
	a := createTicket(t, svc, "Facture erronée", dto.PrioriteBasse)
	createTicket(t, svc, "Livraison partielle", dto.PrioriteCritique)
	if _, err := svc.UpdateStatut(context.Background(), a.ID, dto.UpdateStatutRequest{Statut: dto.StatutResolu}); err != nil {
		t.Fatalf("statut: %v", err)
	}

	result, err := svc.List(context.Background(), dto.ReclamationQuery{Statut: dto.StatutNouveau})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].Sujet != "Livraison partielle" {
		t.Fatalf("unexpected items %+v", result.Items)
	}
	if result.Counts.Total != 2 || result.Counts.Nouveau != 1 || result.Counts.Resolu != 1 {
		t.Fatalf("unexpected counts %+v", result.Counts)
	}
	if result.Items[0].Reponses == nil {
		t.Fatal("reponses must serialize as an empty list")
	}
}

func TestStatutTransitions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	r := createTicket(t, svc, "Sonde défectueuse", dto.PrioriteHaute)

	resolved, err := svc.UpdateStatut(ctx, r.ID, dto.UpdateStatutRequest{Statut: dto.StatutResolu})
	if err != nil || resolved.ResolvedAt == nil || !resolved.ResolvedAt.Equal(fixedNow) {
		t.Fatalf("resolu must set resolved_at: %+v %v", resolved, err)
	}

	reopened, err := svc.UpdateStatut(ctx, r.ID, dto.UpdateStatutRequest{Statut: dto.StatutEnCours})
	if err != nil || reopened.ResolvedAt != nil {
		t.Fatalf("reopening must clear resolved_at: %+v %v", reopened, err)
	}

	_, err = svc.UpdateStatut(ctx, r.ID, dto.UpdateStatutRequest{Statut: dto.StatutEnCours})
	expectCode(t, err, "INVALID_TRANSITION")

	if _, err := svc.UpdateStatut(ctx, r.ID, dto.UpdateStatutRequest{Statut: dto.StatutFerme}); err != nil {
		t.Fatalf("close: %v", err)
	}
	_, err = svc.UpdateStatut(ctx, r.ID, dto.UpdateStatutRequest{Statut: dto.StatutEnCours})
	expectCode(t, err, "INVALID_TRANSITION")
}

func TestCloseKeepsResolutionDate(t *testing.T) {
	change, err := PlanTransition(dto.StatutResolu, dto.StatutFerme, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change.ClearResolved || change.ResolvedAt != nil {
		t.Fatalf("closing a resolved ticket must keep resolved_at untouched: %+v", change)
	}
}

func TestAddReponse(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	r := createTicket(t, svc, "Retard SAV", dto.PrioriteMoyenne)

	updated, err := svc.AddReponse(ctx, r.ID, "admin-1", "admin", dto.AddReponseRequest{Message: "Technicien planifié"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if updated.Statut != dto.StatutEnCours || len(updated.Reponses) != 1 {
		t.Fatalf("first reply must move ticket to en_cours: %+v", updated)
	}

	updated, err = svc.AddReponse(ctx, r.ID, "admin-1", "admin", dto.AddReponseRequest{Message: "Intervention faite"})
	if err != nil || len(updated.Reponses) != 2 || updated.Reponses[1].Message != "Intervention faite" {
		t.Fatalf("thread must stay ordered: %+v %v", updated, err)
	}

	if _, err := svc.UpdateStatut(ctx, r.ID, dto.UpdateStatutRequest{Statut: dto.StatutFerme}); err != nil {
		t.Fatalf("close: %v", err)
	}
	_, err = svc.AddReponse(ctx, r.ID, "admin-1", "admin", dto.AddReponseRequest{Message: "Encore"})
	expectCode(t, err, "RECLAMATION_CLOSED")
}

func TestNotFoundAndDelete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Get(ctx, "absent")
	expectCode(t, err, "RECLAMATION_NOT_FOUND")

	r := createTicket(t, svc, "Doublon", dto.PrioriteBasse)
	if err := svc.Delete(ctx, r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	expectCode(t, svc.Delete(ctx, r.ID), "RECLAMATION_NOT_FOUND")
}

func TestConcurrentStatutChangeIsConflict(t *testing.T) {
	svc, store := newTestService()
	r := createTicket(t, svc, "Concurrence", dto.PrioriteBasse)

	err := store.SetStatut(context.Background(), r.ID, dto.StatutChange{From: dto.StatutEnCours, To: dto.StatutResolu}, fixedNow)
	expectCode(t, mapStoreError(err, r.ID), "CONFLICT")
}

func TestCreateRecoversFromSequenceReset(t *testing.T) {
	store := newMemoryStore()
	sequence := &memorySequence{counters: map[int]int64{}, floor: store}
	svc := NewReclamationService(store, sequence, logger.NewDiscardLogger())
	svc.now = func() time.Time { return fixedNow }

	createTicket(t, svc, "Livraison en retard", "")
	createTicket(t, svc, "Carton abîmé", "")
	createTicket(t, svc, "Facture erronée", "")

	// compteur perdu: le prochain numéro repartirait de 1
	sequence.counters = map[int]int64{}

	r := createTicket(t, svc, "Pièce manquante", dto.PrioriteHaute)
	if r.Reference != "REC-2026-0004" {
		t.Fatalf("expected REC-2026-0004 after resync, got %s", r.Reference)
	}
	if sequence.resyncs != 1 {
		t.Fatalf("expected one resync, got %d", sequence.resyncs)
	}
	if next := createTicket(t, svc, "Retour produit", ""); next.Reference != "REC-2026-0005" {
		t.Fatalf("expected REC-2026-0005, got %s", next.Reference)
	}
}

func TestCreateGivesUpWhenReferencesStayTaken(t *testing.T) {
	store := newMemoryStore()
	sequence := &memorySequence{counters: map[int]int64{}}
	svc := NewReclamationService(store, sequence, logger.NewDiscardLogger())
	svc.now = func() time.Time { return fixedNow }

	for i := 1; i <= maxReferenceAttempts; i++ {
		store.docs[fmt.Sprintf("doc-%d", i)] = &dto.Reclamation{ID: fmt.Sprintf("doc-%d", i), Reference: FormatReference(2026, int64(i))}
	}

	_, err := svc.Create(context.Background(), dto.CreateReclamationRequest{
		ClientID: "5f0c3c1e-0a4e-4b8f-9e59-2f5c1c0d7a11", ClientNom: "Clinique Atlas",
		Categorie: "livraison", Sujet: "Colis perdu", Description: "Aucun colis",
	}, "admin-1")
	if !errors.Is(err, dto.ErrDuplicateReference) {
		t.Fatalf("expected duplicate reference error, got %v", err)
	}
	if sequence.resyncs != maxReferenceAttempts {
		t.Fatalf("expected %d resyncs, got %d", maxReferenceAttempts, sequence.resyncs)
	}
}

func TestListKeepsOldCriticalTicketsAndCountsEverything(t *testing.T) {
	svc, store := newTestService()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	store.docs["ancienne"] = &dto.Reclamation{
		ID: "ancienne", Reference: "REC-2025-0001", Priorite: dto.PrioriteCritique,
		Statut: dto.StatutEnCours, CreatedAt: base.AddDate(-1, 0, 0),
	}
	for i := 0; i < dto.ListMaxItems; i++ {
		id := fmt.Sprintf("recente-%d", i)
		store.docs[id] = &dto.Reclamation{
			ID: id, Reference: FormatReference(2026, int64(i+1)), Priorite: dto.PrioriteBasse,
			Statut: dto.StatutNouveau, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}

	result, err := svc.List(context.Background(), dto.ReclamationQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Items) != dto.ListMaxItems || result.Items[0].ID != "ancienne" {
		t.Fatalf("critical ticket must lead the capped list, got %d items, first %s", len(result.Items), result.Items[0].ID)
	}
	if result.Counts.Total != dto.ListMaxItems+1 || result.Counts.Nouveau != dto.ListMaxItems || result.Counts.EnCours != 1 {
		t.Fatalf("counts must cover every ticket, got %+v", result.Counts)
	}

	filtered, err := svc.List(context.Background(), dto.ReclamationQuery{Statut: dto.StatutEnCours})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(filtered.Items) != 1 || filtered.Counts.Total != dto.ListMaxItems+1 {
		t.Fatalf("statut filter must not change counts, got %d items %+v", len(filtered.Items), filtered.Counts)
	}
}

func TestCountsFromStatut(t *testing.T) {
	got := CountsFromStatut(map[string]int{dto.StatutNouveau: 2, dto.StatutFerme: 3})
	if got.Total != 5 || got.Nouveau != 2 || got.Ferme != 3 || got.Resolu != 0 {
		t.Fatalf("unexpected counts %+v", got)
	}
}
