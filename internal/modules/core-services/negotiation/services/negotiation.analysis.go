package services

import (
	"time"

	"sofimed-core/internal/modules/core-services/negotiation/dto"
	"sofimed-core/internal/shared/utils"

	"github.com/shopspring/decimal"
)

func isRound(eventType string) bool {
	return eventType == "proposition" || eventType == "contre_proposition"
}

// Analyze résume une négociation. La position commerciale part du montant du devis;
// chaque tour chiffré déplace la position de son auteur et l'écart entre les deux
// positions est relevé à chaque tour une fois le client positionné.
func Analyze(devis dto.DevisSnapshot, events []dto.Event, now time.Time) dto.Analysis {
	analysis := dto.Analysis{
		DevisID:        devis.ID,
		ClientID:       devis.ClientID,
		Statut:         devis.Statut,
		Evenements:     len(events),
		MontantInitial: devis.Montant,
		DernierMontant: devis.Montant,
		Ecarts:         []string{},
	}

	commercial := devis.Montant
	var client *decimal.Decimal
	var gaps []decimal.Decimal

	for _, e := range events {
		actor := e.Auteur
		analysis.DernierActeur = &actor

		if !isRound(e.Type) {
			continue
		}
		analysis.Tours++

		if e.Montant != nil {
			amount := *e.Montant
			analysis.DernierMontant = amount
			if e.Auteur == "client" {
				client = &amount
			} else {
				commercial = amount
			}
		}
		if client != nil {
			gaps = append(gaps, commercial.Sub(*client).Abs())
		}
	}

	for _, g := range gaps {
		analysis.Ecarts = append(analysis.Ecarts, g.StringFixed(2))
	}

	analysis.Concession = analysis.MontantInitial.Sub(analysis.DernierMontant)
	analysis.ConcessionPourcent = utils.Percent(analysis.Concession, analysis.MontantInitial)
	analysis.ConcessionFormatee = utils.FormatMAD(analysis.Concession)

	end := now
	if devis.DateReponse != nil {
		end = *devis.DateReponse
	}
	if end.After(devis.DateCreation) {
		analysis.JoursOuverts = int(end.Sub(devis.DateCreation).Hours() / 24)
	}

	analysis.Momentum = Momentum(gaps)
	return analysis
}

// Momentum bloquee si les derniers tours n'ont pas bougé l'écart, convergente si
// l'écart diminue à chaque tour, stable sinon
func Momentum(gaps []decimal.Decimal) string {
	stalled := 0
	for i := len(gaps) - 1; i > 0; i-- {
		if !gaps[i].Equal(gaps[i-1]) {
			break
		}
		stalled++
	}
	if stalled >= dto.StalledRounds {
		return dto.MomentumBloquee
	}

	if len(gaps) < 2 {
		return dto.MomentumStable
	}
	for i := 1; i < len(gaps); i++ {
		if !gaps[i].LessThan(gaps[i-1]) {
			return dto.MomentumStable
		}
	}
	return dto.MomentumConvergente
}
