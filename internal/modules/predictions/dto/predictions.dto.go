package dto

import (
	"errors"
	"time"

	clientDto "sofimed-core/internal/modules/core-services/client/dto"
	negotiationDto "sofimed-core/internal/modules/core-services/negotiation/dto"

	"github.com/shopspring/decimal"
)

const (
	NiveauElevee  = "elevee"
	NiveauMoyenne = "moyenne"
	NiveauFaible  = "faible"

	SeuilElevee  = 0.7
	SeuilMoyenne = 0.4

	ReportHistoryLimit = 50
)

var (
	ErrServiceUnavailable = errors.New("service de prédiction indisponible")
	ErrInvalidResponse    = errors.New("réponse du service de prédiction invalide")
	ErrReportInProgress   = errors.New("rapport déjà en cours de génération")
	ErrReportNotFound     = errors.New("rapport introuvable")
	ErrDevisNotFound      = errors.New("devis introuvable")
)

type AnalyzeRequest struct {
	DevisID string `json:"devis_id" validate:"required,uuid"`
}

// DevisRef identité du devis reprise dans les rapports
type DevisRef struct {
	ID        string
	Reference string
	ClientID  string
	Montant   decimal.Decimal
	Statut    string
}

// Features charge utile envoyée au service externe
type Features struct {
	DevisID               string                  `json:"devis_id"`
	ClientID              string                  `json:"client_id"`
	Montant               decimal.Decimal         `json:"montant"`
	Client                clientDto.ClientStats   `json:"client"`
	PortalUserID          *string                 `json:"portal_user_id"`
	DureeSessionsSecondes int64                   `json:"duree_sessions_secondes"`
	Sessions              int                     `json:"sessions"`
	TempsReponseMinutes   *float64                `json:"temps_reponse_minutes"`
	EchantillonsReponse   int                     `json:"echantillons_reponse"`
	Negociation           negotiationDto.Analysis `json:"negociation"`
}

type Facteur struct {
	Nom         string  `json:"nom" bson:"nom"`
	Impact      float64 `json:"impact" bson:"impact"`
	Description string  `json:"description,omitempty" bson:"description,omitempty"`
}

// ServiceResponse réponse brute de POST {base}/predict
type ServiceResponse struct {
	Probabilite float64   `json:"probabilite"`
	Facteurs    []Facteur `json:"facteurs"`
	Modele      string    `json:"modele,omitempty"`
}

type Prediction struct {
	DevisID     string    `json:"devis_id"`
	Probabilite float64   `json:"probabilite"`
	Niveau      string    `json:"niveau"`
	Facteurs    []Facteur `json:"facteurs"`
	Modele      string    `json:"modele,omitempty"`
	Features    Features  `json:"features"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Report document de la collection prediction_reports
type Report struct {
	ID             string    `json:"id" bson:"_id"`
	DevisID        string    `json:"devis_id" bson:"devis_id"`
	DevisReference string    `json:"devis_reference" bson:"devis_reference"`
	ClientID       string    `json:"client_id" bson:"client_id"`
	ClientNom      string    `json:"client_nom" bson:"client_nom"`
	Montant        string    `json:"montant" bson:"montant"`
	Probabilite    float64   `json:"probabilite" bson:"probabilite"`
	Niveau         string    `json:"niveau" bson:"niveau"`
	Facteurs       []Facteur `json:"facteurs" bson:"facteurs"`
	Momentum       string    `json:"momentum" bson:"momentum"`
	Tours          int       `json:"tours" bson:"tours"`
	HTML           string    `json:"html,omitempty" bson:"html,omitempty"`
	GenerePar      string    `json:"genere_par" bson:"genere_par"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}
