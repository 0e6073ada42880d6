package services

import (
	"sort"
	"strings"

	"sofimed-core/internal/modules/back-office/devis/dto"
	"sofimed-core/internal/shared/utils"
)

// MatchesDevis applique statut, commercial, client et recherche texte
// (référence, client, commercial), comme la clause WHERE SQL
func MatchesDevis(d dto.Devis, filter dto.DevisFilter) bool {
	if filter.Statut != "" && d.Statut != filter.Statut {
		return false
	}
	if filter.CommercialID != "" && (d.CommercialID == nil || *d.CommercialID != filter.CommercialID) {
		return false
	}
	if filter.ClientID != "" && d.ClientID != filter.ClientID {
		return false
	}

	search := strings.TrimSpace(filter.Search)
	if search == "" {
		return true
	}
	if utils.ContainsFold(d.Reference, search) || utils.ContainsFold(d.ClientNom, search) {
		return true
	}
	return d.CommercialNom != nil && utils.ContainsFold(*d.CommercialNom, search)
}

// FilterDevis retourne une nouvelle tranche des devis correspondant au filtre
func FilterDevis(items []dto.Devis, filter dto.DevisFilter) []dto.Devis {
	result := make([]dto.Devis, 0, len(items))
	for _, d := range items {
		if MatchesDevis(d, filter) {
			result = append(result, d)
		}
	}
	return result
}

// SortDevis tri stable; défaut date décroissante, égalités départagées par référence
func SortDevis(items []dto.Devis, sortBy, sortOrder string) {
	desc := sortOrder != "asc"

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		var cmp int
		switch sortBy {
		case dto.SortByMontant:
			cmp = a.Montant.Cmp(b.Montant)
		case dto.SortByClient:
			cmp = strings.Compare(strings.ToLower(a.ClientNom), strings.ToLower(b.ClientNom))
		case dto.SortByReference:
			cmp = strings.Compare(a.Reference, b.Reference)
		default:
			cmp = a.DateCreation.Compare(b.DateCreation)
		}
		if cmp == 0 {
			return a.Reference < b.Reference
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// CountByStatus compteurs des onglets de statut
func CountByStatus(items []dto.Devis) dto.StatusCounts {
	counts := dto.StatusCounts{Total: len(items)}
	for _, d := range items {
		switch d.Statut {
		case dto.StatutEnAttente:
			counts.EnAttente++
		case dto.StatutValide:
			counts.Valide++
		case dto.StatutRefuse:
			counts.Refuse++
		}
	}
	return counts
}

// CanTransition: seul un devis en attente peut être validé ou refusé
func CanTransition(from, to string) bool {
	return from == dto.StatutEnAttente && (to == dto.StatutValide || to == dto.StatutRefuse)
}

// BuildTimeline fusionne création, négociation et décision par ordre chronologique
func BuildTimeline(d dto.Devis, events []dto.NegociationEvent) []dto.TimelineEntry {
	montant := d.Montant
	timeline := []dto.TimelineEntry{{
		Type:    "creation",
		Auteur:  "client",
		Libelle: "Demande de devis " + d.Reference,
		Montant: &montant,
		Date:    d.DateCreation,
	}}

	for _, e := range events {
		timeline = append(timeline, dto.TimelineEntry{
			Type:    "negociation",
			Auteur:  e.Auteur,
			Libelle: negociationLabel(e.Type),
			Montant: e.Montant,
			Date:    e.CreatedAt,
		})
	}

	if d.DateReponse != nil && d.Statut != dto.StatutEnAttente {
		libelle := "Devis validé"
		if d.Statut == dto.StatutRefuse {
			libelle = "Devis refusé"
		}
		timeline = append(timeline, dto.TimelineEntry{
			Type:    "decision",
			Auteur:  "administration",
			Libelle: libelle,
			Date:    *d.DateReponse,
		})
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Date.Before(timeline[j].Date)
	})
	return timeline
}

func negociationLabel(eventType string) string {
	switch eventType {
	case "proposition":
		return "Proposition"
	case "contre_proposition":
		return "Contre-proposition"
	case "acceptation":
		return "Acceptation"
	case "refus":
		return "Refus"
	case "relance":
		return "Relance"
	default:
		return eventType
	}
}
