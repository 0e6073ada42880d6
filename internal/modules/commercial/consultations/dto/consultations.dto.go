package dto

import (
	"errors"
	"time"
)

const (
	StatutOuverte  = "ouverte"
	StatutRepondue = "repondue"
	StatutFermee   = "fermee"

	AuteurClient     = "client"
	AuteurCommercial = "commercial"

	ContenuMaxLength = 5000
)

var (
	ErrConsultationNotFound = errors.New("consultation introuvable")
	ErrConsultationClosed   = errors.New("consultation fermée")
	ErrAttachmentNotFound   = errors.New("pièce jointe non référencée")
)

type Consultation struct {
	ID               string     `json:"id"`
	ClientID         string     `json:"client_id"`
	ClientNom        string     `json:"client_nom"`
	CommercialID     string     `json:"commercial_id"`
	DevisID          *string    `json:"devis_id"`
	DevisReference   *string    `json:"devis_reference"`
	Sujet            string     `json:"sujet"`
	Statut           string     `json:"statut"`
	LuParCommercialA *time.Time `json:"lu_par_commercial_a"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// LastMessage aperçu du dernier message d'un fil
type LastMessage struct {
	Contenu     string    `json:"contenu"`
	AuteurRole  string    `json:"auteur_role"`
	PieceJointe bool      `json:"piece_jointe"`
	CreatedAt   time.Time `json:"created_at"`
}

type ThreadSummary struct {
	Consultation
	DernierMessage *LastMessage `json:"dernier_message"`
	Messages       int64        `json:"messages"`
	NonLu          bool         `json:"non_lu"`
}

type Message struct {
	ID             string    `json:"id"`
	ConsultationID string    `json:"consultation_id"`
	AuteurID       string    `json:"auteur_id"`
	AuteurRole     string    `json:"auteur_role"`
	Contenu        string    `json:"contenu"`
	PieceJointe    *string   `json:"piece_jointe"`
	Miniature      *string   `json:"miniature"`
	CreatedAt      time.Time `json:"created_at"`
}

type Thread struct {
	Consultation Consultation `json:"consultation"`
	Messages     []Message    `json:"messages"`
}

type ThreadListQuery struct {
	Statut string `form:"statut" validate:"omitempty,oneof=ouverte repondue fermee"`
}

type ThreadListResponse struct {
	Items  []ThreadSummary `json:"items"`
	Total  int             `json:"total"`
	NonLus int             `json:"non_lus"`
}

type ReplyRequest struct {
	Contenu string `json:"contenu" form:"contenu" validate:"max=5000"`
}

// NewMessage message commercial prêt à insérer
type NewMessage struct {
	ConsultationID string
	AuteurID       string
	Contenu        string
	PieceJointe    *string
	Miniature      *string
}
