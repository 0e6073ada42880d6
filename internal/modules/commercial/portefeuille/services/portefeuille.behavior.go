package services

import (
	"sort"
	"strings"
	"time"

	"sofimed-core/internal/modules/commercial/portefeuille/dto"
	clientServices "sofimed-core/internal/modules/core-services/client/services"
	"sofimed-core/internal/shared/utils"
)

// ClassifyClient comportement d'achat:
//   - nouveau: créé depuis 30 jours au plus, sans commande
//   - fidele: score >= 80 et commande dans les 30 jours
//   - regulier: commande dans les 90 jours
//   - a_relancer: dernière commande entre 90 et 180 jours
//   - inactif: au-delà, ou jamais commandé
func ClassifyClient(c dto.ClientRow, now time.Time) string {
	if c.DerniereCommande == nil {
		if clientServices.DaysBetween(c.CreatedAt, now) <= 30 {
			return dto.ComportementNouveau
		}
		return dto.ComportementInactif
	}

	days := clientServices.DaysBetween(*c.DerniereCommande, now)
	switch {
	case c.ScoreFidelite >= 80 && days <= 30:
		return dto.ComportementFidele
	case days <= 90:
		return dto.ComportementRegulier
	case days <= 180:
		return dto.ComportementARelancer
	default:
		return dto.ComportementInactif
	}
}

// Decorate calcule comportement, ancienneté et montant formaté de chaque client
func Decorate(clients []dto.ClientRow, now time.Time) {
	for i := range clients {
		c := &clients[i]
		c.Comportement = ClassifyClient(*c, now)
		c.ChiffreAffairesFormate = utils.FormatMAD(c.ChiffreAffaires)
		if c.DerniereCommande != nil {
			days := clientServices.DaysBetween(*c.DerniereCommande, now)
			c.JoursDepuisCommande = &days
		}
	}
}

// FilterClients comportement exact et recherche sur raison sociale, contact et ville
func FilterClients(clients []dto.ClientRow, behavior, search string) []dto.ClientRow {
	search = strings.TrimSpace(search)
	result := make([]dto.ClientRow, 0, len(clients))
	for _, c := range clients {
		if behavior != "" && c.Comportement != behavior {
			continue
		}
		if search != "" && !matchesSearch(c, search) {
			continue
		}
		result = append(result, c)
	}
	return result
}

func matchesSearch(c dto.ClientRow, search string) bool {
	if utils.ContainsFold(c.RaisonSociale, search) {
		return true
	}
	for _, field := range []*string{c.ContactNom, c.Ville, c.Email} {
		if field != nil && utils.ContainsFold(*field, search) {
			return true
		}
	}
	return false
}

// SortClients nom croissant par défaut; les autres clés sont décroissantes par défaut
func SortClients(clients []dto.ClientRow, sortBy, sortOrder string) {
	if sortBy == "" {
		sortBy = "nom"
	}
	desc := sortBy != "nom"
	switch sortOrder {
	case "asc":
		desc = false
	case "desc":
		desc = true
	}

	sort.SliceStable(clients, func(i, j int) bool {
		a, b := clients[i], clients[j]
		var cmp int
		switch sortBy {
		case "chiffre_affaires":
			cmp = a.ChiffreAffaires.Cmp(b.ChiffreAffaires)
		case "score":
			cmp = compareInt(a.ScoreFidelite, b.ScoreFidelite)
		case "derniere_commande":
			cmp = compareTime(a.DerniereCommande, b.DerniereCommande)
		default:
			cmp = strings.Compare(strings.ToLower(a.RaisonSociale), strings.ToLower(b.RaisonSociale))
		}
		if cmp == 0 {
			return a.RaisonSociale < b.RaisonSociale
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// Repartition nombre de clients par comportement, toutes les clés présentes
func Repartition(clients []dto.ClientRow) map[string]int {
	counts := make(map[string]int, len(dto.Comportements))
	for _, b := range dto.Comportements {
		counts[b] = 0
	}
	for _, c := range clients {
		counts[c.Comportement]++
	}
	return counts
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareTime: jamais commandé passe avant toute date
func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}
