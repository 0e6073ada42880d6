package queries

import (
	"context"
	"errors"

	"sofimed-core/internal/infrastructure/database/postgres"
	"sofimed-core/internal/modules/core-services/scope/dto"

	"github.com/jackc/pgx/v5"
)

var ScopeQueries = struct {
	CommercialOfUser    string
	CommercialOfClient  string
	CommercialOfDevis   string
	CommercialOfConsult string
}{
	/**
	 * Paramètres: $1 = user_id
	 */
	CommercialOfUser: `
		SELECT id::text FROM commercial WHERE user_id::text = $1
	`,

	/**
	 * Paramètres: $1 = client_id
	 */
	CommercialOfClient: `
		SELECT commercial_id::text FROM client WHERE id::text = $1
	`,

	/**
	 * Paramètres: $1 = devis_id
	 */
	CommercialOfDevis: `
		SELECT commercial_id::text FROM devis WHERE id::text = $1
	`,

	/**
	 * Paramètres: $1 = consultation_id
	 */
	CommercialOfConsult: `
		SELECT commercial_id::text FROM consultation WHERE id::text = $1
	`,
}

// ScopePostgresRepository rattachement des ressources à un commercial
type ScopePostgresRepository struct {
	db *postgres.Client
}

func NewScopePostgresRepository(db *postgres.Client) *ScopePostgresRepository {
	return &ScopePostgresRepository{db: db}
}

func (r *ScopePostgresRepository) CommercialOfUser(ctx context.Context, userID string) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, ScopeQueries.CommercialOfUser, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", dto.ErrNoCommercialProfile
	}
	return id, err
}

// OwnerOf retourne le commercial rattaché; found = false si la ressource n'existe pas
func (r *ScopePostgresRepository) OwnerOf(ctx context.Context, kind, id string) (*string, bool, error) {
	var query string
	switch kind {
	case "client":
		query = ScopeQueries.CommercialOfClient
	case "devis":
		query = ScopeQueries.CommercialOfDevis
	case "consultation":
		query = ScopeQueries.CommercialOfConsult
	default:
		return nil, false, errors.New("type de ressource inconnu: " + kind)
	}

	var owner *string
	err := r.db.QueryRow(ctx, query, id).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return owner, true, nil
}
