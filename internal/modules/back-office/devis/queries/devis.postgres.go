package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sofimed-core/internal/infrastructure/database/postgres"
	"sofimed-core/internal/modules/back-office/devis/dto"
	"sofimed-core/internal/shared/utils"

	"github.com/jackc/pgx/v5"
)

// Colonnes communes: d = devis, c = client, u = utilisateur du commercial
const devisColumns = `
	d.id::text,
	d.reference,
	d.client_id::text,
	c.raison_sociale,
	d.commercial_id::text,
	NULLIF(TRIM(COALESCE(u.prenoms, '') || ' ' || COALESCE(u.nom, '')), ''),
	d.montant::text,
	d.remise_demandee::text,
	d.statut,
	d.date_creation,
	d.date_reponse,
	d.commentaire_decision
`

const devisFrom = `
	FROM devis d
	JOIN client c ON c.id = d.client_id
	LEFT JOIN commercial cm ON cm.id = d.commercial_id
	LEFT JOIN user_utilisateur u ON u.id = cm.user_id
`

// Filtre hors statut: $1 = search, $2 = commercial_id, $3 = client_id
const devisFilter = `
	($2::text = '' OR d.commercial_id::text = $2)
	AND ($3::text = '' OR d.client_id::text = $3)
	AND ($1::text = ''
		OR d.reference ILIKE '%' || $1 || '%'
		OR c.raison_sociale ILIKE '%' || $1 || '%'
		OR (COALESCE(u.prenoms, '') || ' ' || COALESCE(u.nom, '')) ILIKE '%' || $1 || '%')
`

var DevisQueries = struct {
	ListDevis       string
	CountByStatus   string
	ExportDevis     string
	GetDevis        string
	LockDevisStatut string
	UpdateStatut    string
	ListNegociation string
}{
	/**
	 * Page de devis, ORDER BY injecté depuis une liste blanche
	 * Paramètres: $1 = search, $2 = commercial_id, $3 = client_id, $4 = statut,
	 *            $5 = limit, $6 = offset
	 */
	ListDevis: `
		SELECT ` + devisColumns + devisFrom + `
		WHERE ` + devisFilter + `
			AND ($4::text = '' OR d.statut = $4)
		ORDER BY %s
		LIMIT $5 OFFSET $6
	`,

	/**
	 * Compteurs des onglets, le filtre de statut n'est pas appliqué
	 * Paramètres: $1 = search, $2 = commercial_id, $3 = client_id
	 */
	CountByStatus: `
		SELECT
			COUNT(*)::bigint,
			COUNT(*) FILTER (WHERE d.statut = 'en_attente')::bigint,
			COUNT(*) FILTER (WHERE d.statut = 'valide')::bigint,
			COUNT(*) FILTER (WHERE d.statut = 'refuse')::bigint
		` + devisFrom + `
		WHERE ` + devisFilter,

	/**
	 * Export: mêmes filtres et tri que la liste, plafonné sans pagination
	 * Paramètres: $1 = search, $2 = commercial_id, $3 = client_id, $4 = statut, $5 = limite
	 */
	ExportDevis: `
		SELECT ` + devisColumns + devisFrom + `
		WHERE ` + devisFilter + `
			AND ($4::text = '' OR d.statut = $4)
		ORDER BY %s
		LIMIT $5
	`,

	/**
	 * Paramètres: $1 = devis_id
	 */
	GetDevis: `
		SELECT ` + devisColumns + devisFrom + `
		WHERE d.id::text = $1
	`,

	/**
	 * Paramètres: $1 = devis_id
	 */
	LockDevisStatut: `
		SELECT statut FROM devis WHERE id::text = $1 FOR UPDATE
	`,

	/**
	 * Paramètres: $1 = devis_id, $2 = statut, $3 = commentaire, $4 = decide_par
	 */
	UpdateStatut: `
		UPDATE devis
		SET statut = $2,
			commentaire_decision = NULLIF($3, ''),
			decide_par = NULLIF($4, '')::uuid,
			date_reponse = NOW()
		WHERE id::text = $1
	`,

	/**
	 * Historique de négociation, ordre chronologique
	 * Paramètres: $1 = devis_id
	 */
	ListNegociation: `
		SELECT id::text, auteur, type, montant::text, note, created_at
		FROM negociation_evenement
		WHERE devis_id::text = $1
		ORDER BY created_at ASC, id ASC
	`,
}

var devisSortColumns = map[string]string{
	dto.SortByDate:      "d.date_creation",
	dto.SortByMontant:   "d.montant",
	dto.SortByClient:    "LOWER(c.raison_sociale)",
	dto.SortByReference: "d.reference",
}

// DevisOrderBy construit la clause ORDER BY; référence en second critère
func DevisOrderBy(sortBy, sortOrder string) string {
	column, ok := devisSortColumns[sortBy]
	if !ok {
		column = devisSortColumns[dto.SortByDate]
	}
	direction := "DESC"
	if sortOrder == "asc" {
		direction = "ASC"
	}
	if column == "d.reference" {
		return column + " " + direction
	}
	return column + " " + direction + ", d.reference ASC"
}

type DevisPostgresRepository struct {
	db        *postgres.Client
	txManager *postgres.TransactionManager
}

func NewDevisPostgresRepository(db *postgres.Client, txManager *postgres.TransactionManager) *DevisPostgresRepository {
	return &DevisPostgresRepository{db: db, txManager: txManager}
}

func (r *DevisPostgresRepository) ListDevis(ctx context.Context, query dto.DevisListQuery, limit, offset int) ([]dto.Devis, dto.StatusCounts, error) {
	var counts dto.StatusCounts
	search := utils.EscapeLike(query.Search)

	var total, enAttente, valide, refuse int64
	if err := r.db.QueryRow(ctx, DevisQueries.CountByStatus, search, query.CommercialID, query.ClientID).
		Scan(&total, &enAttente, &valide, &refuse); err != nil {
		return nil, counts, fmt.Errorf("comptage devis: %w", err)
	}
	counts = dto.StatusCounts{Total: int(total), EnAttente: int(enAttente), Valide: int(valide), Refuse: int(refuse)}

	sql := fmt.Sprintf(DevisQueries.ListDevis, DevisOrderBy(query.SortBy, query.SortOrder))
	rows, err := r.db.Query(ctx, sql, search, query.CommercialID, query.ClientID, query.Statut, limit, offset)
	if err != nil {
		return nil, counts, err
	}
	items, err := pgx.CollectRows(rows, scanDevis)
	if err != nil {
		return nil, counts, fmt.Errorf("lecture devis: %w", err)
	}
	return items, counts, nil
}

func (r *DevisPostgresRepository) ListExportDevis(ctx context.Context, query dto.DevisListQuery, max int) ([]dto.Devis, error) {
	sql := fmt.Sprintf(DevisQueries.ExportDevis, DevisOrderBy(query.SortBy, query.SortOrder))
	rows, err := r.db.Query(ctx, sql,
		utils.EscapeLike(query.Search), query.CommercialID, query.ClientID, query.Statut, max)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanDevis)
}

func (r *DevisPostgresRepository) GetDevis(ctx context.Context, id string) (*dto.Devis, error) {
	rows, err := r.db.Query(ctx, DevisQueries.GetDevis, id)
	if err != nil {
		return nil, err
	}
	d, err := pgx.CollectExactlyOneRow(rows, scanDevis)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dto.ErrDevisNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DevisPostgresRepository) ListNegociation(ctx context.Context, devisID string) ([]dto.NegociationEvent, error) {
	rows, err := r.db.Query(ctx, DevisQueries.ListNegociation, devisID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dto.NegociationEvent, error) {
		var (
			e       dto.NegociationEvent
			montant *string
		)
		if err := row.Scan(&e.ID, &e.Auteur, &e.Type, &montant, &e.Note, &e.CreatedAt); err != nil {
			return e, err
		}
		if montant != nil {
			amount, err := utils.ParseDecimal(*montant)
			if err != nil {
				return e, err
			}
			formatted := utils.FormatMAD(amount)
			e.Montant = &amount
			e.MontantFormate = &formatted
		}
		return e, nil
	})
}

// UpdateStatut verrouille la ligne, contrôle la transition puis enregistre la décision.
// allowed reçoit le statut courant; son erreur annule la transaction.
func (r *DevisPostgresRepository) UpdateStatut(
	ctx context.Context,
	id, statut, commentaire, decidePar string,
	allowed func(current string) error,
) error {
	return r.txManager.WithTransaction(ctx, func(tx *postgres.Transaction) error {
		var current string
		if err := tx.QueryRow(ctx, DevisQueries.LockDevisStatut, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return dto.ErrDevisNotFound
			}
			return fmt.Errorf("verrouillage devis: %w", err)
		}
		if err := allowed(current); err != nil {
			return err
		}
		if err := tx.Exec(ctx, DevisQueries.UpdateStatut, id, statut, commentaire, decidePar); err != nil {
			return fmt.Errorf("mise à jour statut devis: %w", err)
		}
		return nil
	})
}

func scanDevis(row pgx.CollectableRow) (dto.Devis, error) {
	var (
		d               dto.Devis
		montant, remise string
		dateReponse     *time.Time
	)
	err := row.Scan(
		&d.ID, &d.Reference, &d.ClientID, &d.ClientNom, &d.CommercialID, &d.CommercialNom,
		&montant, &remise, &d.Statut, &d.DateCreation, &dateReponse, &d.CommentaireDecision,
	)
	if err != nil {
		return d, err
	}
	d.DateReponse = dateReponse

	if d.Montant, err = utils.ParseDecimal(montant); err != nil {
		return d, err
	}
	if d.RemiseDemandee, err = utils.ParseDecimal(remise); err != nil {
		return d, err
	}
	d.MontantFormate = utils.FormatMAD(d.Montant)
	return d, nil
}
