package services

import (
	"context"
	"errors"
	"fmt"

	"sofimed-core/internal/modules/core-services/scope/dto"
	"sofimed-core/internal/shared/utils"
)

const (
	KindClient       = "client"
	KindDevis        = "devis"
	KindConsultation = "consultation"
)

type ScopeRepository interface {
	CommercialOfUser(ctx context.Context, userID string) (string, error)
	OwnerOf(ctx context.Context, kind, id string) (*string, bool, error)
}

// ScopeGuard restreint un commercial à son portefeuille; le back-office voit tout
type ScopeGuard struct {
	repo ScopeRepository
}

func NewScopeGuard(repo ScopeRepository) *ScopeGuard {
	return &ScopeGuard{repo: repo}
}

// CommercialID profil commercial de l'acteur
func (g *ScopeGuard) CommercialID(ctx context.Context, actor dto.Actor) (string, error) {
	id, err := g.repo.CommercialOfUser(ctx, actor.UserID)
	if errors.Is(err, dto.ErrNoCommercialProfile) {
		return "", utils.NewServiceError("FORBIDDEN", "Aucun profil commercial associé à ce compte", nil)
	}
	if err != nil {
		return "", fmt.Errorf("profil commercial: %w", err)
	}
	return id, nil
}

func (g *ScopeGuard) EnsureCommercial(ctx context.Context, actor dto.Actor, commercialID string) error {
	if actor.IsBackOffice() {
		return nil
	}
	own, err := g.CommercialID(ctx, actor)
	if err != nil {
		return err
	}
	if own != commercialID {
		return forbidden()
	}
	return nil
}

// EnsureResource 404 si la ressource n'existe pas, 403 si elle appartient à un autre commercial
func (g *ScopeGuard) EnsureResource(ctx context.Context, actor dto.Actor, kind, id string) error {
	owner, found, err := g.repo.OwnerOf(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("rattachement %s: %w", kind, err)
	}
	if !found {
		return utils.NewServiceError("NOT_FOUND", "Ressource introuvable", map[string]interface{}{
			"type": kind,
			"id":   id,
		})
	}
	if actor.IsBackOffice() {
		return nil
	}

	own, err := g.CommercialID(ctx, actor)
	if err != nil {
		return err
	}
	if owner == nil || *owner != own {
		return forbidden()
	}
	return nil
}

func forbidden() error {
	return utils.NewServiceError("FORBIDDEN", "Cette ressource n'appartient pas à votre portefeuille", nil)
}
