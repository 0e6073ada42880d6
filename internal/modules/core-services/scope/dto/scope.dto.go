package dto

import "errors"

const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleCommercial = "commercial"
)

var ErrNoCommercialProfile = errors.New("aucun profil commercial pour cet utilisateur")

// Actor utilisateur authentifié à l'origine de la requête
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsBackOffice() bool {
	return a.Role == RoleSuperAdmin || a.Role == RoleAdmin
}
