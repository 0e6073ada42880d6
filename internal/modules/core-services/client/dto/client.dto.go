package dto

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrClientNotFound  = errors.New("client introuvable")
	ErrNoPortalAccount = errors.New("client sans compte portail")
)

type DevisParStatut struct {
	Total     int64 `json:"total"`
	EnAttente int64 `json:"en_attente"`
	Valide    int64 `json:"valide"`
	Refuse    int64 `json:"refuse"`
}

// ClientTotals agrégats bruts lus en base
type ClientTotals struct {
	ClientID         string
	RaisonSociale    string
	CommercialID     *string
	ScoreFidelite    int
	Commandes        int64
	ChiffreAffaires  decimal.Decimal
	DerniereCommande *time.Time
	Devis            DevisParStatut
	CreatedAt        time.Time
}

type ClientStats struct {
	ClientID               string          `json:"client_id"`
	RaisonSociale          string          `json:"raison_sociale"`
	CommercialID           *string         `json:"commercial_id"`
	Commandes              int64           `json:"commandes"`
	ChiffreAffaires        decimal.Decimal `json:"chiffre_affaires"`
	ChiffreAffairesFormate string          `json:"chiffre_affaires_formate"`
	PanierMoyen            decimal.Decimal `json:"panier_moyen"`
	PanierMoyenFormate     string          `json:"panier_moyen_formate"`
	Devis                  DevisParStatut  `json:"devis"`
	TauxConversion         decimal.Decimal `json:"taux_conversion"`
	DerniereCommande       *time.Time      `json:"derniere_commande"`
	JoursDepuisCommande    *int            `json:"jours_depuis_commande"`
	ScoreFidelite          int             `json:"score_fidelite"`
}

type ClientUserID struct {
	ClientID string `json:"client_id"`
	UserID   string `json:"user_id"`
}

type Session struct {
	Debut time.Time
	Fin   *time.Time
}

type SessionDuration struct {
	ClientID         string `json:"client_id"`
	TotalSeconds     int64  `json:"total_seconds"`
	Sessions         int    `json:"sessions"`
	SessionsOuvertes int    `json:"sessions_ouvertes"`
}

// ThreadMessage message d'une consultation liée au devis
type ThreadMessage struct {
	ConsultationID string
	AuteurRole     string
	CreatedAt      time.Time
}

type ResponseTime struct {
	DevisID        string   `json:"devis_id"`
	MoyenneMinutes *float64 `json:"moyenne_minutes"`
	Echantillons   int      `json:"echantillons"`
}
