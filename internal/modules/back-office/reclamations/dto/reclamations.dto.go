package dto

import (
	"errors"
	"time"
)

const (
	StatutNouveau         = "nouveau"
	StatutEnCours         = "en_cours"
	StatutEnAttenteClient = "en_attente_client"
	StatutResolu          = "resolu"
	StatutFerme           = "ferme"

	PrioriteBasse    = "basse"
	PrioriteMoyenne  = "moyenne"
	PrioriteHaute    = "haute"
	PrioriteCritique = "critique"

	// ListMaxItems plafond de la liste, appliqué après le tri par priorité
	ListMaxItems = 2000
)

// PrioriteRank ordre d'affichage, critique en tête
var PrioriteRank = map[string]int{
	PrioriteCritique: 4,
	PrioriteHaute:    3,
	PrioriteMoyenne:  2,
	PrioriteBasse:    1,
}

var (
	ErrReclamationNotFound = errors.New("réclamation introuvable")
	// ErrStatutChanged le statut a été modifié entre la lecture et l'écriture
	ErrStatutChanged = errors.New("statut de la réclamation modifié entre-temps")
	// ErrDuplicateReference la référence existe déjà (compteur en retard sur la base)
	ErrDuplicateReference = errors.New("référence de réclamation déjà attribuée")
)

type Reponse struct {
	ID         string    `bson:"id" json:"id"`
	Auteur     string    `bson:"auteur" json:"auteur"`
	AuteurRole string    `bson:"auteur_role" json:"auteur_role"`
	Message    string    `bson:"message" json:"message"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

type Reclamation struct {
	ID          string     `bson:"_id" json:"id"`
	Reference   string     `bson:"reference" json:"reference"`
	ClientID    string     `bson:"client_id" json:"client_id"`
	ClientNom   string     `bson:"client_nom" json:"client_nom"`
	Categorie   string     `bson:"categorie" json:"categorie"`
	Priorite    string     `bson:"priorite" json:"priorite"`
	Statut      string     `bson:"statut" json:"statut"`
	Sujet       string     `bson:"sujet" json:"sujet"`
	Description string     `bson:"description" json:"description"`
	Reponses    []Reponse  `bson:"reponses" json:"reponses"`
	CreatedBy   string     `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
	ResolvedAt  *time.Time `bson:"resolved_at,omitempty" json:"resolved_at"`
}

// ReclamationQuery paramètres de GET /api/admin/reclamations
type ReclamationQuery struct {
	Statut    string `form:"statut" validate:"omitempty,oneof=nouveau en_cours en_attente_client resolu ferme"`
	Priorite  string `form:"priorite" validate:"omitempty,oneof=basse moyenne haute critique"`
	Categorie string `form:"categorie" validate:"omitempty,oneof=livraison produit_defectueux facturation service_apres_vente autre"`
	Search    string `form:"search" validate:"max=100"`
}

// StoreFilter critères appliqués par le stockage; les compteurs ignorent Statut
type StoreFilter struct {
	Statut    string
	Priorite  string
	Categorie string
	Search    string
}

// StatutChange écriture à effectuer pour un changement de statut
type StatutChange struct {
	From          string
	To            string
	ResolvedAt    *time.Time
	ClearResolved bool
}

type StatusCounts struct {
	Total           int `json:"total"`
	Nouveau         int `json:"nouveau"`
	EnCours         int `json:"en_cours"`
	EnAttenteClient int `json:"en_attente_client"`
	Resolu          int `json:"resolu"`
	Ferme           int `json:"ferme"`
}

type ReclamationListResponse struct {
	Items  []Reclamation `json:"items"`
	Counts StatusCounts  `json:"counts"`
}

type CreateReclamationRequest struct {
	ClientID    string `json:"client_id" validate:"required,uuid"`
	ClientNom   string `json:"client_nom" validate:"required,min=2,max=200"`
	Categorie   string `json:"categorie" validate:"required,oneof=livraison produit_defectueux facturation service_apres_vente autre"`
	Priorite    string `json:"priorite" validate:"omitempty,oneof=basse moyenne haute critique"`
	Sujet       string `json:"sujet" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
}

type UpdateReclamationRequest struct {
	Sujet       string `json:"sujet" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
	Categorie   string `json:"categorie" validate:"required,oneof=livraison produit_defectueux facturation service_apres_vente autre"`
	Priorite    string `json:"priorite" validate:"required,oneof=basse moyenne haute critique"`
}

type UpdateStatutRequest struct {
	Statut string `json:"statut" validate:"required,oneof=nouveau en_cours en_attente_client resolu ferme"`
}

type AddReponseRequest struct {
	Message string `json:"message" validate:"required,min=1,max=5000"`
}
