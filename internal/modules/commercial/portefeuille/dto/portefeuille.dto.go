package dto

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ComportementFidele    = "fidele"
	ComportementRegulier  = "regulier"
	ComportementARelancer = "a_relancer"
	ComportementInactif   = "inactif"
	ComportementNouveau   = "nouveau"

	TopClientsLimit     = 5
	PendingDevisLimit   = 10
	MonthlySeriesMonths = 12
)

// Comportements dans l'ordre d'affichage de la répartition
var Comportements = []string{
	ComportementFidele,
	ComportementRegulier,
	ComportementARelancer,
	ComportementInactif,
	ComportementNouveau,
}

var ErrCommercialNotFound = errors.New("commercial introuvable")

type CommercialProfile struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Nom             string          `json:"nom"`
	Prenoms         string          `json:"prenoms"`
	Email           *string         `json:"email"`
	Telephone       *string         `json:"telephone"`
	Region          string          `json:"region"`
	ObjectifMensuel decimal.Decimal `json:"objectif_mensuel"`
	Statut          string          `json:"statut"`
}

type DevisParStatut struct {
	Total     int64 `json:"total"`
	EnAttente int64 `json:"en_attente"`
	Valide    int64 `json:"valide"`
	Refuse    int64 `json:"refuse"`
}

// CommercialTotals agrégats bruts; ChiffreAffairesMois = depuis le 1er du mois
type CommercialTotals struct {
	Commandes           int64
	ChiffreAffaires     decimal.Decimal
	ChiffreAffairesMois decimal.Decimal
	Clients             int64
	Devis               DevisParStatut
}

type CommercialOverview struct {
	Profil                     CommercialProfile `json:"profil"`
	Commandes                  int64             `json:"commandes"`
	NombreClients              int64             `json:"nombre_clients"`
	ChiffreAffaires            decimal.Decimal   `json:"chiffre_affaires"`
	ChiffreAffairesFormate     string            `json:"chiffre_affaires_formate"`
	ChiffreAffairesMois        decimal.Decimal   `json:"chiffre_affaires_mois"`
	ChiffreAffairesMoisFormate string            `json:"chiffre_affaires_mois_formate"`
	Devis                      DevisParStatut    `json:"devis"`
	TauxConversion             decimal.Decimal   `json:"taux_conversion"`
	ObjectifMensuel            decimal.Decimal   `json:"objectif_mensuel"`
	ProgressionObjectif        decimal.Decimal   `json:"progression_objectif"`
}

type ClientRow struct {
	ID                     string          `json:"id"`
	RaisonSociale          string          `json:"raison_sociale"`
	ContactNom             *string         `json:"contact_nom"`
	Email                  *string         `json:"email"`
	Telephone              *string         `json:"telephone"`
	Ville                  *string         `json:"ville"`
	Territoire             *string         `json:"territoire"`
	Secteur                string          `json:"secteur"`
	ScoreFidelite          int             `json:"score_fidelite"`
	CreatedAt              time.Time       `json:"created_at"`
	Commandes              int64           `json:"commandes"`
	ChiffreAffaires        decimal.Decimal `json:"chiffre_affaires"`
	ChiffreAffairesFormate string          `json:"chiffre_affaires_formate"`
	DerniereCommande       *time.Time      `json:"derniere_commande"`
	JoursDepuisCommande    *int            `json:"jours_depuis_commande"`
	Comportement           string          `json:"comportement"`
}

type ClientListQuery struct {
	Behavior  string `form:"behavior" validate:"omitempty,oneof=fidele regulier a_relancer inactif nouveau"`
	Search    string `form:"search" validate:"max=100"`
	SortBy    string `form:"sort_by" validate:"omitempty,oneof=nom chiffre_affaires derniere_commande score"`
	SortOrder string `form:"sort_order" validate:"omitempty,oneof=asc desc"`
}

type ClientListResponse struct {
	Items       []ClientRow    `json:"items"`
	Total       int            `json:"total"`
	Repartition map[string]int `json:"repartition"`
}

type MonthlyRevenue struct {
	Mois            string          `json:"mois"`
	ChiffreAffaires decimal.Decimal `json:"chiffre_affaires"`
	Commandes       int64           `json:"commandes"`
}

type PendingDevis struct {
	ID             string          `json:"id"`
	Reference      string          `json:"reference"`
	ClientID       string          `json:"client_id"`
	ClientNom      string          `json:"client_nom"`
	Montant        decimal.Decimal `json:"montant"`
	MontantFormate string          `json:"montant_formate"`
	DateCreation   time.Time       `json:"date_creation"`
	JoursEnAttente int             `json:"jours_en_attente"`
}

type UnifiedDashboard struct {
	Overview       CommercialOverview `json:"overview"`
	Repartition    map[string]int     `json:"repartition"`
	Mensuel        []MonthlyRevenue   `json:"mensuel"`
	TopClients     []ClientRow        `json:"top_clients"`
	DevisEnAttente []PendingDevis     `json:"devis_en_attente"`
	LoadedFrom     string             `json:"loaded_from"`
	GeneratedAt    time.Time          `json:"generated_at"`
}
