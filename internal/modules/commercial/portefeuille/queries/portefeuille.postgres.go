package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sofimed-core/internal/infrastructure/database/postgres"
	"sofimed-core/internal/modules/commercial/portefeuille/dto"
	"sofimed-core/internal/shared/utils"

	"github.com/jackc/pgx/v5"
)

const profileColumns = `
	cm.id::text, cm.user_id::text, u.nom, u.prenoms, u.email, u.telephone,
	cm.region, cm.objectif_mensuel::text, u.statut
`

var PortefeuilleQueries = struct {
	ProfileByUser    string
	ProfileByID      string
	CommercialTotals string
	ClientRows       string
	MonthlyRevenue   string
	PendingDevis     string
}{
	/**
	 * Paramètres: $1 = user_id
	 */
	ProfileByUser: `
		SELECT ` + profileColumns + `
		FROM commercial cm
		JOIN user_utilisateur u ON u.id = cm.user_id
		WHERE cm.user_id::text = $1
	`,

	/**
	 * Paramètres: $1 = commercial_id
	 */
	ProfileByID: `
		SELECT ` + profileColumns + `
		FROM commercial cm
		JOIN user_utilisateur u ON u.id = cm.user_id
		WHERE cm.id::text = $1
	`,

	/**
	 * Paramètres: $1 = commercial_id, $2 = début du mois courant
	 */
	CommercialTotals: `
		SELECT
			(SELECT COUNT(*) FROM vente WHERE commercial_id::text = $1)::bigint,
			(SELECT COALESCE(SUM(prix_unitaire * quantite), 0) FROM vente WHERE commercial_id::text = $1)::text,
			(SELECT COALESCE(SUM(prix_unitaire * quantite), 0) FROM vente
				WHERE commercial_id::text = $1 AND date_vente >= $2)::text,
			(SELECT COUNT(*) FROM client WHERE commercial_id::text = $1)::bigint,
			COUNT(d.id)::bigint,
			COUNT(d.id) FILTER (WHERE d.statut = 'en_attente')::bigint,
			COUNT(d.id) FILTER (WHERE d.statut = 'valide')::bigint,
			COUNT(d.id) FILTER (WHERE d.statut = 'refuse')::bigint
		FROM devis d
		WHERE d.commercial_id::text = $1
	`,

	/**
	 * Clients du portefeuille avec leurs agrégats de commande
	 * Paramètres: $1 = commercial_id
	 */
	ClientRows: `
		SELECT
			c.id::text, c.raison_sociale, c.contact_nom, c.email, c.telephone,
			c.ville, c.territoire, c.secteur, c.score_fidelite, c.created_at,
			COUNT(v.id)::bigint,
			COALESCE(SUM(v.prix_unitaire * v.quantite), 0)::text,
			MAX(v.date_vente)
		FROM client c
		LEFT JOIN vente v ON v.client_id = c.id
		WHERE c.commercial_id::text = $1
		GROUP BY c.id
		ORDER BY c.raison_sociale
	`,

	/**
	 * Paramètres: $1 = commercial_id, $2 = borne basse
	 */
	MonthlyRevenue: `
		SELECT
			to_char(date_trunc('month', v.date_vente), 'YYYY-MM'),
			SUM(v.prix_unitaire * v.quantite)::text,
			COUNT(*)::bigint
		FROM vente v
		WHERE v.commercial_id::text = $1 AND v.date_vente >= $2
		GROUP BY 1
		ORDER BY 1
	`,

	/**
	 * Devis en attente les plus anciens d'abord
	 * Paramètres: $1 = commercial_id, $2 = limit
	 */
	PendingDevis: `
		SELECT d.id::text, d.reference, d.client_id::text, c.raison_sociale, d.montant::text, d.date_creation
		FROM devis d
		JOIN client c ON c.id = d.client_id
		WHERE d.commercial_id::text = $1 AND d.statut = 'en_attente'
		ORDER BY d.date_creation ASC
		LIMIT $2
	`,
}

type PortefeuillePostgresRepository struct {
	db *postgres.Client
}

func NewPortefeuillePostgresRepository(db *postgres.Client) *PortefeuillePostgresRepository {
	return &PortefeuillePostgresRepository{db: db}
}

func (r *PortefeuillePostgresRepository) ProfileByUser(ctx context.Context, userID string) (*dto.CommercialProfile, error) {
	return r.profile(ctx, PortefeuilleQueries.ProfileByUser, userID)
}

func (r *PortefeuillePostgresRepository) ProfileByID(ctx context.Context, commercialID string) (*dto.CommercialProfile, error) {
	return r.profile(ctx, PortefeuilleQueries.ProfileByID, commercialID)
}

func (r *PortefeuillePostgresRepository) profile(ctx context.Context, query, param string) (*dto.CommercialProfile, error) {
	var (
		p        dto.CommercialProfile
		objectif string
	)
	err := r.db.QueryRow(ctx, query, param).Scan(
		&p.ID, &p.UserID, &p.Nom, &p.Prenoms, &p.Email, &p.Telephone,
		&p.Region, &objectif, &p.Statut,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dto.ErrCommercialNotFound
		}
		return nil, fmt.Errorf("profil commercial: %w", err)
	}
	if p.ObjectifMensuel, err = utils.ParseDecimal(objectif); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PortefeuillePostgresRepository) CommercialTotals(ctx context.Context, commercialID string, monthStart time.Time) (*dto.CommercialTotals, error) {
	var (
		t            dto.CommercialTotals
		total, month string
	)
	err := r.db.QueryRow(ctx, PortefeuilleQueries.CommercialTotals, commercialID, monthStart).Scan(
		&t.Commandes, &total, &month, &t.Clients,
		&t.Devis.Total, &t.Devis.EnAttente, &t.Devis.Valide, &t.Devis.Refuse,
	)
	if err != nil {
		return nil, fmt.Errorf("agrégats commercial: %w", err)
	}
	if t.ChiffreAffaires, err = utils.ParseDecimal(total); err != nil {
		return nil, err
	}
	if t.ChiffreAffairesMois, err = utils.ParseDecimal(month); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PortefeuillePostgresRepository) ClientRows(ctx context.Context, commercialID string) ([]dto.ClientRow, error) {
	rows, err := r.db.Query(ctx, PortefeuilleQueries.ClientRows, commercialID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dto.ClientRow, error) {
		var (
			c       dto.ClientRow
			revenue string
		)
		if err := row.Scan(
			&c.ID, &c.RaisonSociale, &c.ContactNom, &c.Email, &c.Telephone,
			&c.Ville, &c.Territoire, &c.Secteur, &c.ScoreFidelite, &c.CreatedAt,
			&c.Commandes, &revenue, &c.DerniereCommande,
		); err != nil {
			return c, err
		}
		amount, err := utils.ParseDecimal(revenue)
		if err != nil {
			return c, err
		}
		c.ChiffreAffaires = amount
		return c, nil
	})
}

func (r *PortefeuillePostgresRepository) MonthlyRevenue(ctx context.Context, commercialID string, since time.Time) ([]dto.MonthlyRevenue, error) {
	rows, err := r.db.Query(ctx, PortefeuilleQueries.MonthlyRevenue, commercialID, since)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dto.MonthlyRevenue, error) {
		var (
			m       dto.MonthlyRevenue
			revenue string
		)
		if err := row.Scan(&m.Mois, &revenue, &m.Commandes); err != nil {
			return m, err
		}
		amount, err := utils.ParseDecimal(revenue)
		if err != nil {
			return m, err
		}
		m.ChiffreAffaires = amount
		return m, nil
	})
}

func (r *PortefeuillePostgresRepository) PendingDevis(ctx context.Context, commercialID string, limit int) ([]dto.PendingDevis, error) {
	rows, err := r.db.Query(ctx, PortefeuilleQueries.PendingDevis, commercialID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dto.PendingDevis, error) {
		var (
			d       dto.PendingDevis
			montant string
		)
		if err := row.Scan(&d.ID, &d.Reference, &d.ClientID, &d.ClientNom, &montant, &d.DateCreation); err != nil {
			return d, err
		}
		amount, err := utils.ParseDecimal(montant)
		if err != nil {
			return d, err
		}
		d.Montant = amount
		return d, nil
	})
}
