package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PeriodeSemaine   = "semaine"
	PeriodeMois      = "mois"
	PeriodeTrimestre = "trimestre"
	PeriodeAnnee     = "annee"
	PeriodeTout      = "tout"

	TopProduitsLimit = 5
)

// DashboardQuery paramètres de GET /api/admin/dashboard
type DashboardQuery struct {
	Departement string `form:"departement" validate:"max=100"`
	Periode     string `form:"periode" validate:"omitempty,oneof=semaine mois trimestre annee tout"`
	Refresh     bool   `form:"refresh"`
}

// PeriodRange bornes d'une période; Debut nil pour "tout"
type PeriodRange struct {
	Periode string     `json:"periode"`
	Debut   *time.Time `json:"debut"`
	Fin     time.Time  `json:"fin"`
}

// DashboardFilter filtre appliqué aux agrégats SQL
type DashboardFilter struct {
	Departement string
	Range       PeriodRange
}

// SalesTotals agrégats bruts des lignes de vente
type SalesTotals struct {
	ChiffreAffaires decimal.Decimal
	Unites          int64
	Commandes       int64
	ClientsActifs   int64
}

// DevisCounts nombre de devis par statut
type DevisCounts struct {
	EnAttente int64 `json:"en_attente"`
	Valides   int64 `json:"valides"`
	Refuses   int64 `json:"refuses"`
}

type KPICards struct {
	ChiffreAffaires        decimal.Decimal `json:"chiffre_affaires"`
	ChiffreAffairesFormate string          `json:"chiffre_affaires_formate"`
	UnitesVendues          int64           `json:"unites_vendues"`
	Commandes              int64           `json:"commandes"`
	ClientsActifs          int64           `json:"clients_actifs"`
	DevisEnAttente         int64           `json:"devis_en_attente"`
	TauxConversion         decimal.Decimal `json:"taux_conversion"`
}

type DepartementRevenue struct {
	Departement            string          `json:"departement"`
	ChiffreAffaires        decimal.Decimal `json:"chiffre_affaires"`
	ChiffreAffairesFormate string          `json:"chiffre_affaires_formate"`
	Unites                 int64           `json:"unites"`
	Part                   decimal.Decimal `json:"part"`
}

type MonthlyRevenue struct {
	Mois            string          `json:"mois"` // AAAA-MM
	ChiffreAffaires decimal.Decimal `json:"chiffre_affaires"`
	Unites          int64           `json:"unites"`
}

type TopProduit struct {
	ProduitID              string          `json:"produit_id"`
	Reference              string          `json:"reference"`
	Nom                    string          `json:"nom"`
	Departement            string          `json:"departement"`
	Unites                 int64           `json:"unites"`
	ChiffreAffaires        decimal.Decimal `json:"chiffre_affaires"`
	ChiffreAffairesFormate string          `json:"chiffre_affaires_formate"`
}

type CommercialRanking struct {
	CommercialID           string          `json:"commercial_id"`
	Nom                    string          `json:"nom"`
	Region                 string          `json:"region"`
	Commandes              int64           `json:"commandes"`
	ChiffreAffaires        decimal.Decimal `json:"chiffre_affaires"`
	ChiffreAffairesFormate string          `json:"chiffre_affaires_formate"`
	Devis                  int64           `json:"devis"`
	DevisValides           int64           `json:"devis_valides"`
	DevisRefuses           int64           `json:"devis_refuses"`
	TauxConversion         decimal.Decimal `json:"taux_conversion"`
	Rang                   int             `json:"rang"`
}

type DashboardResponse struct {
	Periode               PeriodRange          `json:"periode"`
	Departement           string               `json:"departement,omitempty"`
	KPIs                  KPICards             `json:"kpis"`
	RevenueByDepartement  []DepartementRevenue `json:"revenue_par_departement"`
	MonthlyRevenue        []MonthlyRevenue     `json:"revenue_mensuel"`
	TopProduits           []TopProduit         `json:"top_produits"`
	ClassementCommerciaux []CommercialRanking  `json:"classement_commerciaux"`
	GeneratedAt           time.Time            `json:"generated_at"`
	LoadedFrom            string               `json:"loaded_from"` // cache | database
}
