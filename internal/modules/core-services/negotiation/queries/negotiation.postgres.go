package queries

import (
	"context"
	"errors"
	"fmt"

	"sofimed-core/internal/infrastructure/database/postgres"
	"sofimed-core/internal/modules/core-services/negotiation/dto"
	"sofimed-core/internal/shared/utils"

	"github.com/jackc/pgx/v5"
)

var NegotiationQueries = struct {
	DevisSnapshot string
	Events        string
}{
	/**
	 * Paramètres: $1 = devis_id
	 */
	DevisSnapshot: `
		SELECT id::text, client_id::text, montant::text, statut, date_creation, date_reponse
		FROM devis
		WHERE id::text = $1
	`,

	/**
	 * Paramètres: $1 = devis_id
	 */
	Events: `
		SELECT auteur, type, montant::text, created_at
		FROM negociation_evenement
		WHERE devis_id::text = $1
		ORDER BY created_at ASC, id ASC
	`,
}

type NegotiationPostgresRepository struct {
	db *postgres.Client
}

func NewNegotiationPostgresRepository(db *postgres.Client) *NegotiationPostgresRepository {
	return &NegotiationPostgresRepository{db: db}
}

func (r *NegotiationPostgresRepository) DevisSnapshot(ctx context.Context, devisID string) (*dto.DevisSnapshot, error) {
	var (
		d       dto.DevisSnapshot
		montant string
	)
	err := r.db.QueryRow(ctx, NegotiationQueries.DevisSnapshot, devisID).
		Scan(&d.ID, &d.ClientID, &montant, &d.Statut, &d.DateCreation, &d.DateReponse)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dto.ErrDevisNotFound
		}
		return nil, fmt.Errorf("lecture devis: %w", err)
	}
	if d.Montant, err = utils.ParseDecimal(montant); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *NegotiationPostgresRepository) Events(ctx context.Context, devisID string) ([]dto.Event, error) {
	rows, err := r.db.Query(ctx, NegotiationQueries.Events, devisID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dto.Event, error) {
		var (
			e       dto.Event
			montant *string
		)
		if err := row.Scan(&e.Auteur, &e.Type, &montant, &e.CreatedAt); err != nil {
			return e, err
		}
		if montant != nil {
			amount, err := utils.ParseDecimal(*montant)
			if err != nil {
				return e, err
			}
			e.Montant = &amount
		}
		return e, nil
	})
}
