package queries

import (
	"context"
	"errors"
	"fmt"

	"sofimed-core/internal/infrastructure/database/postgres"
	"sofimed-core/internal/modules/predictions/dto"
	"sofimed-core/internal/shared/utils"

	"github.com/jackc/pgx/v5"
)

var PredictionQueries = struct {
	DevisRef string
}{
	/**
	 * Paramètres: $1 = devis_id
	 */
	DevisRef: `
		SELECT id::text, reference, client_id::text, montant::text, statut
		FROM devis
		WHERE id::text = $1
	`,
}

type PredictionPostgresRepository struct {
	db *postgres.Client
}

func NewPredictionPostgresRepository(db *postgres.Client) *PredictionPostgresRepository {
	return &PredictionPostgresRepository{db: db}
}

func (r *PredictionPostgresRepository) DevisRef(ctx context.Context, devisID string) (*dto.DevisRef, error) {
	var (
		ref     dto.DevisRef
		montant string
	)
	err := r.db.QueryRow(ctx, PredictionQueries.DevisRef, devisID).Scan(
		&ref.ID, &ref.Reference, &ref.ClientID, &montant, &ref.Statut,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, dto.ErrDevisNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture du devis: %w", err)
	}

	if ref.Montant, err = utils.ParseDecimal(montant); err != nil {
		return nil, err
	}
	return &ref, nil
}
