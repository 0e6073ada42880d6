package services

import (
	"context"
	"fmt"
	"time"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/modules/auth/dto"
)

// PermissionRepository source de vérité des permissions (PostgreSQL)
type PermissionRepository interface {
	GetUserPermissionCodes(ctx context.Context, userID string) ([]string, error)
	GetAllPermissionCodes(ctx context.Context) ([]string, error)
}

// PermissionCache cache des codes de permission par utilisateur
type PermissionCache interface {
	Get(ctx context.Context, userID string) ([]string, bool)
	Set(ctx context.Context, userID string, codes []string, ttl time.Duration) error
	Invalidate(ctx context.Context, userID string) error
}

type PermissionService struct {
	repo  PermissionRepository
	cache PermissionCache
	ttl   time.Duration
}

// NewPermissionService crée une nouvelle instance du service de permissions
func NewPermissionService(repo PermissionRepository, cache PermissionCache, cfg *config.Config) *PermissionService {
	return &PermissionService{
		repo:  repo,
		cache: cache,
		ttl:   cfg.GetCache().PermissionsTTL,
	}
}

// GetUserPermissions récupère les permissions TOUJOURS depuis la DB.
// Le cache ne sert qu'aux vérifications des middlewares.
func (s *PermissionService) GetUserPermissions(ctx context.Context, userID, role string) ([]string, error) {
	var (
		codes []string
		err   error
	)
	if role == dto.RoleSuperAdmin {
		codes, err = s.repo.GetAllPermissionCodes(ctx)
	} else {
		codes, err = s.repo.GetUserPermissionCodes(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la récupération des permissions: %w", err)
	}
	if codes == nil {
		codes = []string{}
	}

	_ = s.cache.Set(ctx, userID, codes, s.ttl)
	return codes, nil
}

// HasPermission : cache Redis d'abord, PostgreSQL en fallback
func (s *PermissionService) HasPermission(ctx context.Context, userID, code string) (bool, error) {
	codes, hit := s.cache.Get(ctx, userID)
	if !hit {
		var err error
		codes, err = s.repo.GetUserPermissionCodes(ctx, userID)
		if err != nil {
			return false, fmt.Errorf("erreur lors de la vérification des permissions: %w", err)
		}
		_ = s.cache.Set(ctx, userID, codes, s.ttl)
	}

	for _, c := range codes {
		if c == code {
			return true, nil
		}
	}
	return false, nil
}

// InvalidateUserPermissions invalide le cache des permissions d'un utilisateur
func (s *PermissionService) InvalidateUserPermissions(ctx context.Context, userID string) error {
	return s.cache.Invalidate(ctx, userID)
}
