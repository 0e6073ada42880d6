package queries

import (
	"context"
	"errors"
	"fmt"

	"sofimed-core/internal/infrastructure/database/postgres"
	"sofimed-core/internal/modules/core-services/client/dto"
	"sofimed-core/internal/shared/utils"

	"github.com/jackc/pgx/v5"
)

var ClientQueries = struct {
	ClientTotals   string
	PortalUserID   string
	ClientSessions string
	DevisMessages  string
}{
	/**
	 * Ventes et devis agrégés du client
	 * Paramètres: $1 = client_id
	 */
	ClientTotals: `
		SELECT
			c.id::text,
			c.raison_sociale,
			c.commercial_id::text,
			c.score_fidelite,
			c.created_at,
			COALESCE(v.commandes, 0)::bigint,
			COALESCE(v.chiffre_affaires, 0)::text,
			v.derniere_commande,
			COALESCE(d.total, 0)::bigint,
			COALESCE(d.en_attente, 0)::bigint,
			COALESCE(d.valide, 0)::bigint,
			COALESCE(d.refuse, 0)::bigint
		FROM client c
		LEFT JOIN LATERAL (
			SELECT
				COUNT(*) AS commandes,
				SUM(prix_unitaire * quantite) AS chiffre_affaires,
				MAX(date_vente) AS derniere_commande
			FROM vente
			WHERE client_id = c.id
		) v ON TRUE
		LEFT JOIN LATERAL (
			SELECT
				COUNT(*) AS total,
				COUNT(*) FILTER (WHERE statut = 'en_attente') AS en_attente,
				COUNT(*) FILTER (WHERE statut = 'valide') AS valide,
				COUNT(*) FILTER (WHERE statut = 'refuse') AS refuse
			FROM devis
			WHERE client_id = c.id
		) d ON TRUE
		WHERE c.id::text = $1
	`,

	/**
	 * Paramètres: $1 = client_id
	 */
	PortalUserID: `
		SELECT user_id::text FROM client WHERE id::text = $1
	`,

	/**
	 * Paramètres: $1 = client_id
	 */
	ClientSessions: `
		SELECT debut, fin
		FROM client_session
		WHERE client_id::text = $1
		ORDER BY debut
	`,

	/**
	 * Messages des consultations rattachées au devis, par fil puis chronologiquement
	 * Paramètres: $1 = devis_id
	 */
	DevisMessages: `
		SELECT m.consultation_id::text, m.auteur_role, m.created_at
		FROM consultation_message m
		JOIN consultation c ON c.id = m.consultation_id
		WHERE c.devis_id::text = $1
		ORDER BY m.consultation_id, m.created_at, m.id
	`,
}

type ClientPostgresRepository struct {
	db *postgres.Client
}

func NewClientPostgresRepository(db *postgres.Client) *ClientPostgresRepository {
	return &ClientPostgresRepository{db: db}
}

func (r *ClientPostgresRepository) ClientTotals(ctx context.Context, clientID string) (*dto.ClientTotals, error) {
	var (
		t       dto.ClientTotals
		revenue string
	)
	err := r.db.QueryRow(ctx, ClientQueries.ClientTotals, clientID).Scan(
		&t.ClientID, &t.RaisonSociale, &t.CommercialID, &t.ScoreFidelite, &t.CreatedAt,
		&t.Commandes, &revenue, &t.DerniereCommande,
		&t.Devis.Total, &t.Devis.EnAttente, &t.Devis.Valide, &t.Devis.Refuse,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dto.ErrClientNotFound
		}
		return nil, fmt.Errorf("agrégats client: %w", err)
	}

	if t.ChiffreAffaires, err = utils.ParseDecimal(revenue); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ClientPostgresRepository) PortalUserID(ctx context.Context, clientID string) (*string, error) {
	var userID *string
	err := r.db.QueryRow(ctx, ClientQueries.PortalUserID, clientID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, dto.ErrClientNotFound
	}
	return userID, err
}

func (r *ClientPostgresRepository) ClientSessions(ctx context.Context, clientID string) ([]dto.Session, error) {
	rows, err := r.db.Query(ctx, ClientQueries.ClientSessions, clientID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dto.Session, error) {
		var s dto.Session
		err := row.Scan(&s.Debut, &s.Fin)
		return s, err
	})
}

func (r *ClientPostgresRepository) DevisMessages(ctx context.Context, devisID string) ([]dto.ThreadMessage, error) {
	rows, err := r.db.Query(ctx, ClientQueries.DevisMessages, devisID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dto.ThreadMessage, error) {
		var m dto.ThreadMessage
		err := row.Scan(&m.ConsultationID, &m.AuteurRole, &m.CreatedAt)
		return m, err
	})
}
