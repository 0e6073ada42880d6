package queries

import (
	"context"
	"errors"
	"fmt"

	"sofimed-core/internal/infrastructure/database/postgres"
	"sofimed-core/internal/modules/system/dto"

	"github.com/jackc/pgx/v5"
)

var SystemQueries = struct {
	LatestMigration string
	Counts          string
}{
	LatestMigration: `
		SELECT version || '_' || name
		FROM schema_migrations
		ORDER BY version DESC
		LIMIT 1
	`,

	Counts: `
		SELECT
			(SELECT COUNT(*) FROM user_utilisateur)::bigint,
			(SELECT COUNT(*) FROM client)::bigint,
			(SELECT COUNT(*) FROM commercial)::bigint,
			(SELECT COUNT(*) FROM devis WHERE statut = 'en_attente')::bigint,
			(SELECT COUNT(*) FROM consultation WHERE statut <> 'fermee')::bigint
	`,
}

type SystemPostgresRepository struct {
	db *postgres.Client
}

func NewSystemPostgresRepository(db *postgres.Client) *SystemPostgresRepository {
	return &SystemPostgresRepository{db: db}
}

func (r *SystemPostgresRepository) LatestMigration(ctx context.Context) (*string, error) {
	var version string
	err := r.db.QueryRow(ctx, SystemQueries.LatestMigration).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dernière migration: %w", err)
	}
	return &version, nil
}

func (r *SystemPostgresRepository) Counts(ctx context.Context) (*dto.Counts, error) {
	var c dto.Counts
	err := r.db.QueryRow(ctx, SystemQueries.Counts).Scan(
		&c.Utilisateurs, &c.Clients, &c.Commerciaux, &c.DevisEnAttente, &c.ConsultationsOuvertes,
	)
	if err != nil {
		return nil, fmt.Errorf("volumétrie: %w", err)
	}
	return &c, nil
}
