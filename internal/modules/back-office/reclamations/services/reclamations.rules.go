package services

import (
	"fmt"
	"sort"
	"time"

	"sofimed-core/internal/modules/back-office/reclamations/dto"
	"sofimed-core/internal/shared/utils"
)

// FormatReference REC-YYYY-NNNN, au moins quatre chiffres
func FormatReference(year int, seq int64) string {
	return fmt.Sprintf("REC-%d-%04d", year, seq)
}

// SortReclamations critique d'abord, puis la plus récente
func SortReclamations(items []dto.Reclamation) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if ra, rb := dto.PrioriteRank[a.Priorite], dto.PrioriteRank[b.Priorite]; ra != rb {
			return ra > rb
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.Reference < b.Reference
	})
}

// CountsFromStatut compteurs des onglets à partir du regroupement par statut
func CountsFromStatut(byStatut map[string]int) dto.StatusCounts {
	counts := dto.StatusCounts{
		Nouveau:         byStatut[dto.StatutNouveau],
		EnCours:         byStatut[dto.StatutEnCours],
		EnAttenteClient: byStatut[dto.StatutEnAttenteClient],
		Resolu:          byStatut[dto.StatutResolu],
		Ferme:           byStatut[dto.StatutFerme],
	}
	for _, n := range byStatut {
		counts.Total += n
	}
	return counts
}

// PlanTransition: ferme est terminal, resolu date la résolution,
// quitter resolu (hors fermeture) efface cette date
func PlanTransition(current, to string, now time.Time) (dto.StatutChange, error) {
	if current == dto.StatutFerme {
		return dto.StatutChange{}, utils.NewServiceError("INVALID_TRANSITION",
			"Une réclamation fermée ne peut plus changer de statut",
			map[string]interface{}{"statut_actuel": current, "statut_demande": to})
	}
	if current == to {
		return dto.StatutChange{}, utils.NewServiceError("INVALID_TRANSITION",
			"La réclamation a déjà ce statut",
			map[string]interface{}{"statut_actuel": current})
	}

	change := dto.StatutChange{From: current, To: to}
	if to == dto.StatutResolu {
		resolved := now
		change.ResolvedAt = &resolved
	}
	if current == dto.StatutResolu && to != dto.StatutFerme {
		change.ClearResolved = true
	}
	return change, nil
}

// StatutAfterReply statut à appliquer après une réponse; "" = inchangé
func StatutAfterReply(current string) (string, error) {
	switch current {
	case dto.StatutFerme:
		return "", utils.NewServiceError("RECLAMATION_CLOSED",
			"Impossible de répondre à une réclamation fermée", nil)
	case dto.StatutNouveau:
		return dto.StatutEnCours, nil
	default:
		return "", nil
	}
}
