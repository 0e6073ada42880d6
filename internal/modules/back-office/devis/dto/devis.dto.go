package dto

import (
	"errors"
	"time"

	"sofimed-core/internal/shared/utils"

	"github.com/shopspring/decimal"
)

const (
	StatutEnAttente = "en_attente"
	StatutValide    = "valide"
	StatutRefuse    = "refuse"

	SortByDate      = "date"
	SortByMontant   = "montant"
	SortByClient    = "client"
	SortByReference = "reference"

	// Plafond de lignes d'un export
	ExportMaxRows = 10000
)

var ErrDevisNotFound = errors.New("devis introuvable")

// DevisListQuery paramètres de GET /api/admin/devis
type DevisListQuery struct {
	Statut       string `form:"statut" validate:"omitempty,oneof=en_attente valide refuse"`
	Search       string `form:"search" validate:"max=100"`
	CommercialID string `form:"commercial_id" validate:"omitempty,uuid"`
	ClientID     string `form:"client_id" validate:"omitempty,uuid"`
	SortBy       string `form:"sort_by" validate:"omitempty,oneof=date montant client reference"`
	SortOrder    string `form:"sort_order" validate:"omitempty,oneof=asc desc"`
	Page         int    `form:"page"`
	Limit        int    `form:"limit"`
}

// DevisFilter critères partagés par la requête SQL et le filtrage mémoire
type DevisFilter struct {
	Statut       string
	Search       string
	CommercialID string
	ClientID     string
}

func (q DevisListQuery) Filter() DevisFilter {
	return DevisFilter{
		Statut:       q.Statut,
		Search:       q.Search,
		CommercialID: q.CommercialID,
		ClientID:     q.ClientID,
	}
}

type Devis struct {
	ID                  string          `json:"id"`
	Reference           string          `json:"reference"`
	ClientID            string          `json:"client_id"`
	ClientNom           string          `json:"client_nom"`
	CommercialID        *string         `json:"commercial_id"`
	CommercialNom       *string         `json:"commercial_nom"`
	Montant             decimal.Decimal `json:"montant"`
	MontantFormate      string          `json:"montant_formate"`
	RemiseDemandee      decimal.Decimal `json:"remise_demandee"`
	Statut              string          `json:"statut"`
	DateCreation        time.Time       `json:"date_creation"`
	DateReponse         *time.Time      `json:"date_reponse"`
	CommentaireDecision *string         `json:"commentaire_decision,omitempty"`
}

// StatusCounts compteurs par statut, calculés sans le filtre de statut
type StatusCounts struct {
	Total     int `json:"total"`
	EnAttente int `json:"en_attente"`
	Valide    int `json:"valide"`
	Refuse    int `json:"refuse"`
}

type DevisListResponse struct {
	Items      []Devis              `json:"items"`
	Pagination utils.PaginationInfo `json:"pagination"`
	Counts     StatusCounts         `json:"counts"`
}

type NegociationEvent struct {
	ID             string           `json:"id"`
	Auteur         string           `json:"auteur"`
	Type           string           `json:"type"`
	Montant        *decimal.Decimal `json:"montant"`
	MontantFormate *string          `json:"montant_formate"`
	Note           *string          `json:"note,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// TimelineEntry étape de la vie du devis: creation, negociation ou decision
type TimelineEntry struct {
	Type    string           `json:"type"`
	Auteur  string           `json:"auteur"`
	Libelle string           `json:"libelle"`
	Montant *decimal.Decimal `json:"montant,omitempty"`
	Date    time.Time        `json:"date"`
}

type DevisDetail struct {
	Devis
	Negociation []NegociationEvent `json:"negociation"`
	Timeline    []TimelineEntry    `json:"timeline"`
}

type UpdateStatutRequest struct {
	Statut      string `json:"statut" validate:"required,oneof=en_attente valide refuse"`
	Commentaire string `json:"commentaire" validate:"max=1000"`
}
