package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/modules/auth/dto"

	"github.com/google/uuid"
)

// SessionStore persistance des sessions (Redis en production)
type SessionStore interface {
	Save(ctx context.Context, token string, session *dto.SessionData, ttl time.Duration) error
	Load(ctx context.Context, token string) (*dto.SessionData, error)
	Touch(ctx context.Context, token string, at time.Time) error
	Delete(ctx context.Context, token, userID string) error
	Blacklist(ctx context.Context, token string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	UserTokens(ctx context.Context, userID string) ([]string, error)
}

type SessionService struct {
	store SessionStore
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionService crée une nouvelle instance du service de session
func NewSessionService(store SessionStore, cfg *config.Config) *SessionService {
	ttl := cfg.GetAuth().SessionTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &SessionService{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// CreateSession génère un token opaque et enregistre la session
func (s *SessionService) CreateSession(ctx context.Context, userID, role, ipAddress, userAgent string) (string, *dto.SessionData, error) {
	now := s.now()
	token := uuid.NewString()

	session := &dto.SessionData{
		UserID:       userID,
		Role:         role,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
		CreatedAt:    now.Format(time.RFC3339),
		LastActivity: now.Format(time.RFC3339),
		ExpiresAt:    now.Add(s.ttl).Format(time.RFC3339),
	}

	if err := s.store.Save(ctx, token, session, s.ttl); err != nil {
		return "", nil, fmt.Errorf("erreur lors de la création de la session: %w", err)
	}

	return token, session, nil
}

// ValidateSession valide un token et retourne la session
func (s *SessionService) ValidateSession(ctx context.Context, token string) (*dto.SessionData, error) {
	revoked, err := s.store.IsBlacklisted(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("vérification blacklist: %w", err)
	}
	if revoked {
		return nil, dto.NewAuthError("TOKEN_REVOKED", "Token révoqué", nil)
	}

	session, err := s.store.Load(ctx, token)
	if err != nil {
		if errors.Is(err, dto.ErrSessionNotFound) {
			return nil, dto.NewAuthError("INVALID_TOKEN", "Session invalide ou expirée", nil)
		}
		return nil, fmt.Errorf("lecture session: %w", err)
	}

	if expiresAt, err := time.Parse(time.RFC3339, session.ExpiresAt); err == nil && s.now().After(expiresAt) {
		return nil, dto.NewAuthError("INVALID_TOKEN", "Session invalide ou expirée", nil)
	}

	// Non bloquant : une activité non tracée n'invalide pas la session
	now := s.now()
	if err := s.store.Touch(ctx, token, now); err == nil {
		session.LastActivity = now.Format(time.RFC3339)
	}

	return session, nil
}

// DeleteSessionIdempotent révoque une session; toujours succès côté appelant
func (s *SessionService) DeleteSessionIdempotent(ctx context.Context, token, userID string) {
	_ = s.store.Blacklist(ctx, token, s.ttl)
	_ = s.store.Delete(ctx, token, userID)
}

// RevokeUserSessions révoque toutes les sessions d'un utilisateur (suspension)
func (s *SessionService) RevokeUserSessions(ctx context.Context, userID string) (int, error) {
	tokens, err := s.store.UserTokens(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("sessions de l'utilisateur %s: %w", userID, err)
	}

	for _, token := range tokens {
		s.DeleteSessionIdempotent(ctx, token, userID)
	}
	return len(tokens), nil
}
