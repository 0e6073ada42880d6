package services

import (
	"math"
	"time"

	"sofimed-core/internal/modules/core-services/client/dto"
	"sofimed-core/internal/shared/utils"

	"github.com/shopspring/decimal"
)

// BuildClientStats dérive panier moyen, conversion et ancienneté de la dernière commande
func BuildClientStats(t dto.ClientTotals, now time.Time) dto.ClientStats {
	panier := decimal.Zero
	if t.Commandes > 0 {
		panier = t.ChiffreAffaires.Div(decimal.NewFromInt(t.Commandes)).Round(2)
	}

	stats := dto.ClientStats{
		ClientID:               t.ClientID,
		RaisonSociale:          t.RaisonSociale,
		CommercialID:           t.CommercialID,
		Commandes:              t.Commandes,
		ChiffreAffaires:        t.ChiffreAffaires,
		ChiffreAffairesFormate: utils.FormatMAD(t.ChiffreAffaires),
		PanierMoyen:            panier,
		PanierMoyenFormate:     utils.FormatMAD(panier),
		Devis:                  t.Devis,
		TauxConversion:         utils.ConversionRate(t.Devis.Valide, t.Devis.Refuse),
		DerniereCommande:       t.DerniereCommande,
		ScoreFidelite:          t.ScoreFidelite,
	}
	if t.DerniereCommande != nil {
		days := DaysBetween(*t.DerniereCommande, now)
		stats.JoursDepuisCommande = &days
	}
	return stats
}

// DaysBetween nombre de jours entiers écoulés, jamais négatif
func DaysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}

// SumSessionSeconds durée cumulée; une session ouverte compte jusqu'à now
func SumSessionSeconds(sessions []dto.Session, now time.Time) (total int64, open int) {
	for _, s := range sessions {
		end := now
		if s.Fin != nil {
			end = *s.Fin
		} else {
			open++
		}
		if d := end.Sub(s.Debut); d > 0 {
			total += int64(d / time.Second)
		}
	}
	return total, open
}

// MeanResponseDelay délai moyen, en minutes, entre un message commercial resté sans
// réponse et le message client suivant du même fil. Le premier message commercial
// non répondu ouvre l'attente; nil s'il n'existe aucune paire.
func MeanResponseDelay(messages []dto.ThreadMessage) (*float64, int) {
	var (
		total   time.Duration
		samples int
		pending = map[string]time.Time{}
	)

	for _, m := range messages {
		switch m.AuteurRole {
		case "commercial":
			if _, waiting := pending[m.ConsultationID]; !waiting {
				pending[m.ConsultationID] = m.CreatedAt
			}
		case "client":
			start, waiting := pending[m.ConsultationID]
			if !waiting {
				continue
			}
			if d := m.CreatedAt.Sub(start); d >= 0 {
				total += d
				samples++
			}
			delete(pending, m.ConsultationID)
		}
	}

	if samples == 0 {
		return nil, 0
	}
	mean := math.Round(total.Minutes()/float64(samples)*100) / 100
	return &mean, samples
}
