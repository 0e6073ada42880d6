package dto

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MomentumConvergente = "convergente"
	MomentumBloquee     = "bloquee"
	MomentumStable      = "stable"

	// Tours consécutifs sans mouvement avant de considérer la négociation bloquée
	StalledRounds = 3
)

var ErrDevisNotFound = errors.New("devis introuvable")

type DevisSnapshot struct {
	ID           string
	ClientID     string
	Montant      decimal.Decimal
	Statut       string
	DateCreation time.Time
	DateReponse  *time.Time
}

type Event struct {
	Auteur    string
	Type      string
	Montant   *decimal.Decimal
	CreatedAt time.Time
}

type Analysis struct {
	DevisID            string          `json:"devis_id"`
	ClientID           string          `json:"client_id"`
	Statut             string          `json:"statut"`
	Tours              int             `json:"tours"`
	Evenements         int             `json:"evenements"`
	MontantInitial     decimal.Decimal `json:"montant_initial"`
	DernierMontant     decimal.Decimal `json:"dernier_montant"`
	Concession         decimal.Decimal `json:"concession"`
	ConcessionPourcent decimal.Decimal `json:"concession_pourcent"`
	ConcessionFormatee string          `json:"concession_formatee"`
	DernierActeur      *string         `json:"dernier_acteur"`
	JoursOuverts       int             `json:"jours_ouverts"`
	Ecarts             []string        `json:"ecarts"`
	Momentum           string          `json:"momentum"`
}
