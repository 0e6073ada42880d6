package dto

import "errors"

// Rôles et statuts des comptes
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleCommercial = "commercial"

	StatutActif    = "actif"
	StatutSuspendu = "suspendu"
)

var (
	ErrUserNotFound    = errors.New("utilisateur non trouvé")
	ErrSessionNotFound = errors.New("session non trouvée")
)

// LoginRequest représente la requête de connexion
type LoginRequest struct {
	Identifiant string `json:"identifiant" validate:"required,min=3,max=50"`
	Password    string `json:"password" validate:"required,min=6"`
}

// LoginResponse représente la réponse de connexion réussie
type LoginResponse struct {
	Token       string   `json:"token"`
	ExpiresAt   string   `json:"expires_at"`
	User        UserData `json:"user"`
	Permissions []string `json:"permissions"`
}

// UserData représente les informations utilisateur exposées au dashboard
type UserData struct {
	ID                 string  `json:"id"`
	Identifiant        string  `json:"identifiant"`
	Email              string  `json:"email"`
	Nom                string  `json:"nom"`
	Prenoms            string  `json:"prenoms"`
	Telephone          string  `json:"telephone"`
	Role               string  `json:"role"`
	Departement        *string `json:"departement"`
	CommercialID       *string `json:"commercial_id"`
	MustChangePassword bool    `json:"must_change_password"`
}

// UserRecord ligne user_utilisateur avec le profil commercial éventuel
type UserRecord struct {
	ID                 string
	Identifiant        string
	Email              string
	Nom                string
	Prenoms            string
	Telephone          string
	PasswordHash       string
	Role               string
	Departement        *string
	Statut             string
	MustChangePassword bool
	CommercialID       *string
}

// ToUserData retire les champs sensibles
func (u *UserRecord) ToUserData() UserData {
	return UserData{
		ID:                 u.ID,
		Identifiant:        u.Identifiant,
		Email:              u.Email,
		Nom:                u.Nom,
		Prenoms:            u.Prenoms,
		Telephone:          u.Telephone,
		Role:               u.Role,
		Departement:        u.Departement,
		CommercialID:       u.CommercialID,
		MustChangePassword: u.MustChangePassword,
	}
}

// MeResponse représente la réponse du endpoint /me
type MeResponse struct {
	User        UserData    `json:"user"`
	Permissions []string    `json:"permissions"`
	Session     SessionInfo `json:"session"`
}

// SessionInfo représente les informations de session
type SessionInfo struct {
	ExpiresAt    string `json:"expires_at"`
	CreatedAt    string `json:"created_at"`
	LastActivity string `json:"last_activity"`
}

// SessionData représente les données de session Redis
type SessionData struct {
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
	IPAddress    string `json:"ip_address"`
	UserAgent    string `json:"user_agent"`
	CreatedAt    string `json:"created_at"`
	LastActivity string `json:"last_activity"`
	ExpiresAt    string `json:"expires_at"`
}

// ToMap convertit SessionData en map pour Redis HSET
func (s *SessionData) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"user_id":       s.UserID,
		"role":          s.Role,
		"ip_address":    s.IPAddress,
		"user_agent":    s.UserAgent,
		"created_at":    s.CreatedAt,
		"last_activity": s.LastActivity,
		"expires_at":    s.ExpiresAt,
	}
}

// SessionFromMap crée SessionData depuis une map Redis
func SessionFromMap(data map[string]string) *SessionData {
	return &SessionData{
		UserID:       data["user_id"],
		Role:         data["role"],
		IPAddress:    data["ip_address"],
		UserAgent:    data["user_agent"],
		CreatedAt:    data["created_at"],
		LastActivity: data["last_activity"],
		ExpiresAt:    data["expires_at"],
	}
}

// AuthError représente les erreurs d'authentification
type AuthError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *AuthError) Error() string {
	return e.Message
}

// NewAuthError crée une nouvelle erreur d'authentification
func NewAuthError(code, message string, details map[string]interface{}) *AuthError {
	return &AuthError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// ChangePasswordRequest représente la demande de changement de mot de passe
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,min=6"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=100"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// ChangePasswordResponse représente la réponse après changement de mot de passe
type ChangePasswordResponse struct {
	Success            bool   `json:"success"`
	Message            string `json:"message"`
	MustChangePassword bool   `json:"must_change_password"`
}
