package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/infrastructure/logger"
	"sofimed-core/internal/modules/auth/dto"
	"sofimed-core/internal/shared/utils"

	"github.com/sirupsen/logrus"
)

// UserRepository accès aux comptes pour l'authentification
type UserRepository interface {
	GetByIdentifiant(ctx context.Context, identifiant string) (*dto.UserRecord, error)
	GetByID(ctx context.Context, userID string) (*dto.UserRecord, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	TouchLastLogin(ctx context.Context, userID string) error
}

// LoginLimiter compteur d'échecs de connexion par identifiant
type LoginLimiter interface {
	Attempts(ctx context.Context, identifiant string) (int, time.Duration, error)
	RegisterFailure(ctx context.Context, identifiant string, window time.Duration) error
	Reset(ctx context.Context, identifiant string) error
}

type AuthService struct {
	users          UserRepository
	limiter        LoginLimiter
	sessionService *SessionService
	permService    *PermissionService
	authConfig     config.AuthConfig
	logg           *logrus.Logger
}

// NewAuthService crée une nouvelle instance du service d'authentification
func NewAuthService(
	users UserRepository,
	limiter LoginLimiter,
	sessionService *SessionService,
	permService *PermissionService,
	cfg *config.Config,
	logg *logrus.Logger,
) *AuthService {
	return &AuthService{
		users:          users,
		limiter:        limiter,
		sessionService: sessionService,
		permService:    permService,
		authConfig:     cfg.GetAuth(),
		logg:           logg,
	}
}

// Login authentifie un utilisateur et crée une session
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest, ipAddress, userAgent string) (*dto.LoginResponse, error) {
	// 1. Rate limiting
	if err := s.checkRateLimit(ctx, req.Identifiant); err != nil {
		return nil, err
	}

	// 2. Récupérer l'utilisateur
	user, err := s.users.GetByIdentifiant(ctx, req.Identifiant)
	if err != nil {
		if errors.Is(err, dto.ErrUserNotFound) {
			s.registerFailure(ctx, req.Identifiant)
			return nil, dto.NewAuthError("INVALID_CREDENTIALS", "Identifiant ou mot de passe incorrect", nil)
		}
		// Erreur technique : pas une tentative malveillante, on ne compte pas
		logger.LogError(s.logg, "auth", "Login", "récupération utilisateur", req.Identifiant, err)
		return nil, fmt.Errorf("erreur technique lors de la récupération de l'utilisateur: %w", err)
	}

	// 3. Vérifier le mot de passe
	if !utils.VerifyPassword(req.Password, user.PasswordHash) {
		s.registerFailure(ctx, req.Identifiant)
		return nil, dto.NewAuthError("INVALID_CREDENTIALS", "Identifiant ou mot de passe incorrect", nil)
	}

	// 4. Compte suspendu : mot de passe correct mais accès refusé
	if user.Statut != dto.StatutActif {
		return nil, dto.NewAuthError("ACCOUNT_SUSPENDED", "Compte suspendu, contactez un administrateur", nil)
	}

	// 5. Session
	token, session, err := s.sessionService.CreateSession(ctx, user.ID, user.Role, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}

	// 6. Permissions (cache alimenté pour les middlewares)
	permissions, err := s.permService.GetUserPermissions(ctx, user.ID, user.Role)
	if err != nil {
		s.sessionService.DeleteSessionIdempotent(ctx, token, user.ID)
		return nil, err
	}

	_ = s.limiter.Reset(ctx, req.Identifiant)
	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		logger.LogError(s.logg, "auth", "Login", "mise à jour last_login_at", user.ID, err)
	}

	s.logg.WithFields(logrus.Fields{
		"event":   "auth.login",
		"user_id": user.ID,
		"role":    user.Role,
		"ip":      ipAddress,
	}).Info("connexion réussie")

	return &dto.LoginResponse{
		Token:       token,
		ExpiresAt:   session.ExpiresAt,
		User:        user.ToUserData(),
		Permissions: permissions,
	}, nil
}

// LogoutByToken révoque une session par token (idempotent)
func (s *AuthService) LogoutByToken(ctx context.Context, token string) {
	fields := logrus.Fields{"event": "auth.logout"}

	userID := ""
	if session, err := s.sessionService.ValidateSession(ctx, token); err == nil {
		userID = session.UserID
		fields["user_id"] = userID
		fields["session_duration"] = sessionDuration(session.CreatedAt)
	} else {
		fields["session_status"] = "already_invalid"
	}

	s.sessionService.DeleteSessionIdempotent(ctx, token, userID)
	s.logg.WithFields(fields).Info("déconnexion")
}

// GetCurrentUser construit la réponse /me à partir de la session validée
func (s *AuthService) GetCurrentUser(ctx context.Context, session *dto.SessionData) (*dto.MeResponse, error) {
	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, dto.ErrUserNotFound) {
			return nil, dto.NewAuthError("USER_NOT_FOUND", "Utilisateur non trouvé", nil)
		}
		return nil, fmt.Errorf("erreur lors de la récupération des données utilisateur: %w", err)
	}

	permissions, err := s.permService.GetUserPermissions(ctx, user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	return &dto.MeResponse{
		User:        user.ToUserData(),
		Permissions: permissions,
		Session: dto.SessionInfo{
			ExpiresAt:    session.ExpiresAt,
			CreatedAt:    session.CreatedAt,
			LastActivity: session.LastActivity,
		},
	}, nil
}

// ChangePassword change le mot de passe de l'utilisateur courant
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req dto.ChangePasswordRequest) (*dto.ChangePasswordResponse, error) {
	if req.NewPassword != req.ConfirmPassword {
		return nil, dto.NewAuthError("PASSWORD_MISMATCH", "Les mots de passe ne correspondent pas", nil)
	}
	if req.NewPassword == req.CurrentPassword {
		return nil, dto.NewAuthError("PASSWORD_UNCHANGED", "Le nouveau mot de passe doit être différent de l'actuel", nil)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, dto.ErrUserNotFound) {
			return nil, dto.NewAuthError("USER_NOT_FOUND", "Utilisateur non trouvé", nil)
		}
		return nil, fmt.Errorf("erreur lors de la récupération de l'utilisateur: %w", err)
	}

	if !utils.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		return nil, dto.NewAuthError("INVALID_CURRENT_PASSWORD", "Mot de passe actuel incorrect", nil)
	}

	hash, err := utils.HashPassword(req.NewPassword, s.authConfig.BcryptCost)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, dto.ErrUserNotFound) {
			return nil, dto.NewAuthError("USER_NOT_FOUND", "Utilisateur non trouvé ou inactif", nil)
		}
		return nil, fmt.Errorf("erreur lors du changement de mot de passe: %w", err)
	}

	return &dto.ChangePasswordResponse{
		Success:            true,
		Message:            "Mot de passe changé avec succès",
		MustChangePassword: false,
	}, nil
}

// checkRateLimit vérifie les tentatives de connexion
func (s *AuthService) checkRateLimit(ctx context.Context, identifiant string) error {
	attempts, ttl, err := s.limiter.Attempts(ctx, identifiant)
	if err != nil {
		// Redis indisponible : on continue sans rate limiting
		return nil
	}

	if attempts >= s.authConfig.MaxAttempts {
		retryAfter := int(ttl.Seconds())
		if retryAfter <= 0 {
			retryAfter = int(s.authConfig.RateWindow.Seconds())
		}
		return dto.NewAuthError("RATE_LIMIT_EXCEEDED", "Trop de tentatives de connexion", map[string]interface{}{
			"retry_after_seconds": retryAfter,
		})
	}
	return nil
}

func (s *AuthService) registerFailure(ctx context.Context, identifiant string) {
	if err := s.limiter.RegisterFailure(ctx, identifiant, s.authConfig.RateWindow); err != nil {
		logger.LogError(s.logg, "auth", "registerFailure", "rate limit", identifiant, err)
	}
}

func sessionDuration(createdAt string) string {
	created, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return "unknown"
	}
	return fmt.Sprintf("%.0fs", time.Since(created).Seconds())
}
