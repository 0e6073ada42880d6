package comptes

import (
	"errors"
	"time"

	"sofimed-core/internal/shared/utils"

	"github.com/shopspring/decimal"
)

const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleCommercial = "commercial"

	StatutActif    = "actif"
	StatutSuspendu = "suspendu"

	// Préfixe des permissions réservées aux administrateurs
	AdminPermissionPrefix = "admin."
)

var (
	ErrUserNotFound        = errors.New("utilisateur introuvable")
	ErrDuplicateIdentifier = errors.New("identifiant déjà utilisé")
)

// UserListFilters filtres de GET /api/users
type UserListFilters struct {
	Role      string `form:"role" validate:"omitempty,oneof=super_admin admin commercial"`
	Statut    string `form:"statut" validate:"omitempty,oneof=actif suspendu"`
	Search    string `form:"search" validate:"max=100"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	SortBy    string `form:"sort_by" validate:"omitempty,oneof=nom identifiant created_at last_login_at role"`
	SortOrder string `form:"sort_order" validate:"omitempty,oneof=asc desc"`
}

type UserSummary struct {
	ID                 string     `json:"id"`
	Identifiant        string     `json:"identifiant"`
	Email              *string    `json:"email"`
	Nom                string     `json:"nom"`
	Prenoms            string     `json:"prenoms"`
	Telephone          *string    `json:"telephone"`
	Role               string     `json:"role"`
	Departement        *string    `json:"departement"`
	Statut             string     `json:"statut"`
	MustChangePassword bool       `json:"must_change_password"`
	LastLoginAt        *time.Time `json:"last_login_at"`
	CreatedAt          time.Time  `json:"created_at"`
	NombrePermissions  int        `json:"nombre_permissions"`
	CommercialID       *string    `json:"commercial_id,omitempty"`
}

type UserListResponse struct {
	Users      []UserSummary        `json:"users"`
	Pagination utils.PaginationInfo `json:"pagination"`
}

// AdminSummary administrateur avec ses codes de permission
type AdminSummary struct {
	UserSummary
	Permissions []string `json:"permissions"`
}

type PermissionCatalogEntry struct {
	Code           string `json:"code"`
	Libelle        string `json:"libelle"`
	Description    string `json:"description"`
	Module         string `json:"module"`
	OrdreAffichage int    `json:"ordre_affichage"`
}

type PermissionModuleGroup struct {
	Module      string                   `json:"module"`
	Permissions []PermissionCatalogEntry `json:"permissions"`
}

// PermissionsOverview réponse de GET /api/admin/permissions/all
type PermissionsOverview struct {
	Modules []PermissionModuleGroup `json:"modules"`
	Admins  []AdminSummary          `json:"admins"`
}

type CreateAdminRequest struct {
	Identifiant string   `json:"identifiant" validate:"required,min=3,max=50"`
	Email       string   `json:"email" validate:"omitempty,email,max=150"`
	Nom         string   `json:"nom" validate:"required,min=2,max=100"`
	Prenoms     string   `json:"prenoms" validate:"required,min=2,max=150"`
	Telephone   string   `json:"telephone" validate:"omitempty,telephone"`
	Departement string   `json:"departement" validate:"max=100"`
	Password    *string  `json:"password" validate:"omitempty,min=8,max=128"`
	Permissions []string `json:"permissions" validate:"dive,required"`
}

type CreateCommercialRequest struct {
	Identifiant     string          `json:"identifiant" validate:"required,min=3,max=50"`
	Email           string          `json:"email" validate:"omitempty,email,max=150"`
	Nom             string          `json:"nom" validate:"required,min=2,max=100"`
	Prenoms         string          `json:"prenoms" validate:"required,min=2,max=150"`
	Telephone       string          `json:"telephone" validate:"omitempty,telephone"`
	Departement     string          `json:"departement" validate:"max=100"`
	Password        *string         `json:"password" validate:"omitempty,min=8,max=128"`
	Region          string          `json:"region" validate:"required,max=100"`
	ObjectifMensuel decimal.Decimal `json:"objectif_mensuel"`
	Permissions     []string        `json:"permissions" validate:"dive,required"`
}

// NewUserRecord ligne à insérer dans user_utilisateur
type NewUserRecord struct {
	Identifiant  string
	Email        *string
	Nom          string
	Prenoms      string
	Telephone    *string
	PasswordHash string
	Role         string
	Departement  *string
	CreatedBy    string
}

// NewCommercialProfile profil commercial créé avec le compte
type NewCommercialProfile struct {
	Region          string
	ObjectifMensuel decimal.Decimal
}

type CreateUserResponse struct {
	ID                 string   `json:"id"`
	Identifiant        string   `json:"identifiant"`
	Role               string   `json:"role"`
	CommercialID       *string  `json:"commercial_id,omitempty"`
	Permissions        []string `json:"permissions"`
	MustChangePassword bool     `json:"must_change_password"`
	PasswordTemporaire *string  `json:"password_temporaire,omitempty"`
	Message            string   `json:"message"`
}

// TargetUser état minimal d'un compte ciblé par une modification
type TargetUser struct {
	ID     string
	Role   string
	Statut string
}

type ModifyPermissionsRequest struct {
	Ajouter []string `json:"ajouter" validate:"dive,required"`
	Retirer []string `json:"retirer" validate:"dive,required"`
}

type ModifyPermissionsResponse struct {
	UserID      string   `json:"user_id"`
	Ajoutees    []string `json:"ajoutees"`
	Retirees    []string `json:"retirees"`
	Permissions []string `json:"permissions"`
}

type UpdateStatutRequest struct {
	Statut string `json:"statut" validate:"required,oneof=actif suspendu"`
	Motif  string `json:"motif" validate:"max=500"`
}

type UpdateStatutResponse struct {
	UserID            string `json:"user_id"`
	Statut            string `json:"statut"`
	SessionsRevoquees int    `json:"sessions_revoquees"`
}
