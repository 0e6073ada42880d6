package dto

import (
	"time"
)

const (
	CheckUp   = "up"
	CheckDown = "down"

	StatusReady    = "ready"
	StatusDegraded = "degraded"
	StatusNotReady = "not_ready"
)

// Version injectée au build (-ldflags "-X ...dto.Version=...")
var Version = "dev"

// CheckResult état d'une dépendance
type CheckResult struct {
	Status    string `json:"status"`
	Critique  bool   `json:"critique"`
	LatenceMs int64  `json:"latence_ms"`
	Erreur    string `json:"erreur,omitempty"`
}

type ReadinessResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Counts volumétrie fonctionnelle
type Counts struct {
	Utilisateurs          int64 `json:"utilisateurs"`
	Clients               int64 `json:"clients"`
	Commerciaux           int64 `json:"commerciaux"`
	DevisEnAttente        int64 `json:"devis_en_attente"`
	ConsultationsOuvertes int64 `json:"consultations_ouvertes"`
}

type ApplicationInfo struct {
	Nom         string    `json:"nom"`
	Version     string    `json:"version"`
	Environment string    `json:"environment"`
	GoVersion   string    `json:"go_version"`
	DemarreA    time.Time `json:"demarre_a"`
	UptimeSec   int64     `json:"uptime_secondes"`
}

// SystemInfoResponse réponse de /api/system/info
type SystemInfoResponse struct {
	Application       ApplicationInfo        `json:"application"`
	DerniereMigration *string                `json:"derniere_migration"`
	Volumetrie        Counts                 `json:"volumetrie"`
	Dependances       map[string]CheckResult `json:"dependances"`
}

// StandardAPIResponse représente la structure standard des réponses API
type StandardAPIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Alertes []AlerteDTO `json:"alertes,omitempty"`
}

// AlerteDTO représente une alerte système
type AlerteDTO struct {
	Type    string                 `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
