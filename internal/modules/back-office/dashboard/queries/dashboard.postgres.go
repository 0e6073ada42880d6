package queries

import (
	"context"
	"fmt"

	"sofimed-core/internal/infrastructure/database/postgres"
	"sofimed-core/internal/modules/back-office/dashboard/dto"
	"sofimed-core/internal/shared/utils"

	"github.com/jackc/pgx/v5"
)

// Filtre commun aux lignes de vente: v = vente, p = produit
// $1 = departement ('' = tous), $2 = debut (NULL = sans borne), $3 = fin
const venteFilter = `
	($1::text = '' OR p.departement = $1)
	AND ($2::timestamptz IS NULL OR v.date_vente >= $2)
	AND v.date_vente <= $3
`

var DashboardQueries = struct {
	SalesTotals          string
	DevisCounts          string
	RevenueByDepartement string
	MonthlyRevenue       string
	TopProduits          string
	CommercialRanking    string
	ListDepartements     string
}{
	/**
	 * Chiffre d'affaires = prix_unitaire × quantite sur chaque ligne
	 * Paramètres: $1 = departement, $2 = debut, $3 = fin
	 */
	SalesTotals: `
		SELECT
			COALESCE(SUM(v.prix_unitaire * v.quantite), 0)::text,
			COALESCE(SUM(v.quantite), 0)::bigint,
			COUNT(*)::bigint,
			COUNT(DISTINCT v.client_id)::bigint
		FROM vente v
		JOIN produit p ON p.id = v.produit_id
		WHERE ` + venteFilter,

	/**
	 * Les devis ne sont pas rattachés à un département: seule la période s'applique
	 * Paramètres: $1 = debut, $2 = fin
	 */
	DevisCounts: `
		SELECT
			COUNT(*) FILTER (WHERE d.statut = 'en_attente')::bigint,
			COUNT(*) FILTER (WHERE d.statut = 'valide')::bigint,
			COUNT(*) FILTER (WHERE d.statut = 'refuse')::bigint
		FROM devis d
		WHERE ($1::timestamptz IS NULL OR d.date_creation >= $1)
			AND d.date_creation <= $2
	`,

	/**
	 * Paramètres: $1 = departement, $2 = debut, $3 = fin
	 */
	RevenueByDepartement: `
		SELECT
			p.departement,
			SUM(v.prix_unitaire * v.quantite)::text,
			SUM(v.quantite)::bigint
		FROM vente v
		JOIN produit p ON p.id = v.produit_id
		WHERE ` + venteFilter + `
		GROUP BY p.departement
		ORDER BY SUM(v.prix_unitaire * v.quantite) DESC
	`,

	/**
	 * Paramètres: $1 = departement, $2 = debut, $3 = fin
	 */
	MonthlyRevenue: `
		SELECT
			to_char(date_trunc('month', v.date_vente), 'YYYY-MM') AS mois,
			SUM(v.prix_unitaire * v.quantite)::text,
			SUM(v.quantite)::bigint
		FROM vente v
		JOIN produit p ON p.id = v.produit_id
		WHERE ` + venteFilter + `
		GROUP BY mois
		ORDER BY mois
	`,

	/**
	 * Paramètres: $1 = departement, $2 = debut, $3 = fin, $4 = limit
	 */
	TopProduits: `
		SELECT
			p.id::text,
			p.reference,
			p.nom,
			p.departement,
			SUM(v.quantite)::bigint,
			SUM(v.prix_unitaire * v.quantite)::text
		FROM vente v
		JOIN produit p ON p.id = v.produit_id
		WHERE ` + venteFilter + `
		GROUP BY p.id
		ORDER BY SUM(v.prix_unitaire * v.quantite) DESC, p.reference
		LIMIT $4
	`,

	/**
	 * Commandes et CA filtrés par département et période, devis par période
	 * Paramètres: $1 = departement, $2 = debut, $3 = fin
	 */
	CommercialRanking: `
		WITH ventes AS (
			SELECT v.commercial_id, COUNT(*) AS commandes, SUM(v.prix_unitaire * v.quantite) AS ca
			FROM vente v
			JOIN produit p ON p.id = v.produit_id
			WHERE ` + venteFilter + `
			GROUP BY v.commercial_id
		),
		devis_stats AS (
			SELECT
				d.commercial_id,
				COUNT(*) AS total,
				COUNT(*) FILTER (WHERE d.statut = 'valide') AS valides,
				COUNT(*) FILTER (WHERE d.statut = 'refuse') AS refuses
			FROM devis d
			WHERE ($2::timestamptz IS NULL OR d.date_creation >= $2)
				AND d.date_creation <= $3
			GROUP BY d.commercial_id
		)
		SELECT
			c.id::text,
			u.nom || ' ' || u.prenoms,
			c.region,
			COALESCE(ve.commandes, 0)::bigint,
			COALESCE(ve.ca, 0)::text,
			COALESCE(ds.total, 0)::bigint,
			COALESCE(ds.valides, 0)::bigint,
			COALESCE(ds.refuses, 0)::bigint
		FROM commercial c
		JOIN user_utilisateur u ON u.id = c.user_id
		LEFT JOIN ventes ve ON ve.commercial_id = c.id
		LEFT JOIN devis_stats ds ON ds.commercial_id = c.id
		WHERE u.statut = 'actif'
	`,

	ListDepartements: `
		SELECT DISTINCT departement FROM produit ORDER BY departement
	`,
}

type DashboardPostgresRepository struct {
	db *postgres.Client
}

func NewDashboardPostgresRepository(db *postgres.Client) *DashboardPostgresRepository {
	return &DashboardPostgresRepository{db: db}
}

func venteArgs(filter dto.DashboardFilter) []interface{} {
	return []interface{}{filter.Departement, filter.Range.Debut, filter.Range.Fin}
}

func (r *DashboardPostgresRepository) SalesTotals(ctx context.Context, filter dto.DashboardFilter) (dto.SalesTotals, error) {
	var (
		totals  dto.SalesTotals
		revenue string
	)
	err := r.db.QueryRow(ctx, DashboardQueries.SalesTotals, venteArgs(filter)...).Scan(
		&revenue, &totals.Unites, &totals.Commandes, &totals.ClientsActifs,
	)
	if err != nil {
		return totals, err
	}
	totals.ChiffreAffaires, err = utils.ParseDecimal(revenue)
	return totals, err
}

func (r *DashboardPostgresRepository) DevisCounts(ctx context.Context, filter dto.DashboardFilter) (dto.DevisCounts, error) {
	var counts dto.DevisCounts
	err := r.db.QueryRow(ctx, DashboardQueries.DevisCounts, filter.Range.Debut, filter.Range.Fin).Scan(
		&counts.EnAttente, &counts.Valides, &counts.Refuses,
	)
	return counts, err
}

func (r *DashboardPostgresRepository) RevenueByDepartement(ctx context.Context, filter dto.DashboardFilter) ([]dto.DepartementRevenue, error) {
	rows, err := r.db.Query(ctx, DashboardQueries.RevenueByDepartement, venteArgs(filter)...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dto.DepartementRevenue, error) {
		var (
			item    dto.DepartementRevenue
			revenue string
		)
		if err := row.Scan(&item.Departement, &revenue, &item.Unites); err != nil {
			return item, err
		}
		amount, err := utils.ParseDecimal(revenue)
		item.ChiffreAffaires = amount
		return item, err
	})
}

func (r *DashboardPostgresRepository) MonthlyRevenue(ctx context.Context, filter dto.DashboardFilter) ([]dto.MonthlyRevenue, error) {
	rows, err := r.db.Query(ctx, DashboardQueries.MonthlyRevenue, venteArgs(filter)...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dto.MonthlyRevenue, error) {
		var (
			item    dto.MonthlyRevenue
			revenue string
		)
		if err := row.Scan(&item.Mois, &revenue, &item.Unites); err != nil {
			return item, err
		}
		amount, err := utils.ParseDecimal(revenue)
		item.ChiffreAffaires = amount
		return item, err
	})
}

func (r *DashboardPostgresRepository) TopProduits(ctx context.Context, filter dto.DashboardFilter, limit int) ([]dto.TopProduit, error) {
	args := append(venteArgs(filter), limit)
	rows, err := r.db.Query(ctx, DashboardQueries.TopProduits, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dto.TopProduit, error) {
		var (
			item    dto.TopProduit
			revenue string
		)
		if err := row.Scan(&item.ProduitID, &item.Reference, &item.Nom, &item.Departement, &item.Unites, &revenue); err != nil {
			return item, err
		}
		amount, err := utils.ParseDecimal(revenue)
		item.ChiffreAffaires = amount
		return item, err
	})
}

func (r *DashboardPostgresRepository) CommercialRanking(ctx context.Context, filter dto.DashboardFilter) ([]dto.CommercialRanking, error) {
	rows, err := r.db.Query(ctx, DashboardQueries.CommercialRanking, venteArgs(filter)...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dto.CommercialRanking, error) {
		var (
			item    dto.CommercialRanking
			revenue string
		)
		if err := row.Scan(
			&item.CommercialID, &item.Nom, &item.Region, &item.Commandes, &revenue,
			&item.Devis, &item.DevisValides, &item.DevisRefuses,
		); err != nil {
			return item, err
		}
		amount, err := utils.ParseDecimal(revenue)
		item.ChiffreAffaires = amount
		return item, err
	})
}

func (r *DashboardPostgresRepository) ListDepartements(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, DashboardQueries.ListDepartements)
	if err != nil {
		return nil, err
	}

	departements, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("lecture départements: %w", err)
	}
	return departements, nil
}
