package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sofimed-core/internal/infrastructure/database/postgres"
	"sofimed-core/internal/modules/commercial/consultations/dto"

	"github.com/jackc/pgx/v5"
)

const consultationColumns = `
	c.id::text,
	c.client_id::text,
	cl.raison_sociale,
	c.commercial_id::text,
	c.devis_id::text,
	d.reference,
	c.sujet,
	c.statut,
	c.lu_par_commercial_a,
	c.created_at,
	c.updated_at`

const consultationFrom = `
	FROM consultation c
	JOIN client cl ON cl.id = c.client_id
	LEFT JOIN devis d ON d.id = c.devis_id`

var ConsultationQueries = struct {
	ListThreads     string
	GetConsultation string
	ListMessages    string
	MarkRead        string
	LockStatut      string
	InsertMessage   string
	MarkAnswered    string
	AttachmentOwner string
}{
	/**
	 * Fils du commercial avec le dernier message, activité récente d'abord
	 * Paramètres: $1 = commercial_id, $2 = statut ('' = tous)
	 */
	ListThreads: `
		SELECT` + consultationColumns + `,
			lm.contenu,
			lm.auteur_role,
			lm.piece_jointe IS NOT NULL,
			lm.created_at,
			COALESCE(mc.total, 0)::bigint
		` + consultationFrom + `
		LEFT JOIN LATERAL (
			SELECT contenu, auteur_role, piece_jointe, created_at
			FROM consultation_message
			WHERE consultation_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS total FROM consultation_message WHERE consultation_id = c.id
		) mc ON TRUE
		WHERE c.commercial_id::text = $1
		  AND ($2::text = '' OR c.statut = $2)
		ORDER BY GREATEST(c.updated_at, COALESCE(lm.created_at, c.updated_at)) DESC, c.id
	`,

	/**
	 * Paramètres: $1 = consultation_id
	 */
	GetConsultation: `
		SELECT` + consultationColumns + consultationFrom + `
		WHERE c.id::text = $1
	`,

	/**
	 * Paramètres: $1 = consultation_id
	 */
	ListMessages: `
		SELECT id::text, consultation_id::text, auteur_id::text, auteur_role, contenu,
		       piece_jointe, miniature, created_at
		FROM consultation_message
		WHERE consultation_id::text = $1
		ORDER BY created_at, id
	`,

	/**
	 * Paramètres: $1 = consultation_id
	 */
	MarkRead: `
		UPDATE consultation SET lu_par_commercial_a = NOW() WHERE id::text = $1
	`,

	/**
	 * Paramètres: $1 = consultation_id
	 */
	LockStatut: `
		SELECT statut FROM consultation WHERE id::text = $1 FOR UPDATE
	`,

	/**
	 * Paramètres: $1 = consultation_id, $2 = auteur_id, $3 = contenu,
	 *             $4 = piece_jointe, $5 = miniature
	 */
	InsertMessage: `
		INSERT INTO consultation_message (consultation_id, auteur_id, auteur_role, contenu, piece_jointe, miniature)
		VALUES ($1::uuid, $2::uuid, 'commercial', $3, $4, $5)
		RETURNING id::text, consultation_id::text, auteur_id::text, auteur_role, contenu,
		          piece_jointe, miniature, created_at
	`,

	/**
	 * La réponse vaut lecture du fil
	 * Paramètres: $1 = consultation_id
	 */
	MarkAnswered: `
		UPDATE consultation
		SET statut = 'repondue', updated_at = NOW(), lu_par_commercial_a = NOW()
		WHERE id::text = $1
	`,

	/**
	 * Consultation qui référence un fichier, en pièce jointe ou en miniature
	 * Paramètres: $1 = nom du fichier
	 */
	AttachmentOwner: `
		SELECT consultation_id::text
		FROM consultation_message
		WHERE piece_jointe = $1 OR miniature = $1
		LIMIT 1
	`,
}

type ConsultationPostgresRepository struct {
	db        *postgres.Client
	txManager *postgres.TransactionManager
}

func NewConsultationPostgresRepository(db *postgres.Client, txManager *postgres.TransactionManager) *ConsultationPostgresRepository {
	return &ConsultationPostgresRepository{db: db, txManager: txManager}
}

func (r *ConsultationPostgresRepository) ListThreads(ctx context.Context, commercialID, statut string) ([]dto.ThreadSummary, error) {
	rows, err := r.db.Query(ctx, ConsultationQueries.ListThreads, commercialID, statut)
	if err != nil {
		return nil, fmt.Errorf("liste des consultations: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dto.ThreadSummary, error) {
		var (
			t          dto.ThreadSummary
			contenu    *string
			auteurRole *string
			hasFile    *bool
			lastAt     *time.Time
		)
		dest := append(consultationDest(&t.Consultation), &contenu, &auteurRole, &hasFile, &lastAt, &t.Messages)
		if err := row.Scan(dest...); err != nil {
			return t, err
		}
		if lastAt != nil {
			t.DernierMessage = &dto.LastMessage{
				Contenu:     deref(contenu),
				AuteurRole:  deref(auteurRole),
				PieceJointe: hasFile != nil && *hasFile,
				CreatedAt:   *lastAt,
			}
		}
		return t, nil
	})
}

func (r *ConsultationPostgresRepository) GetConsultation(ctx context.Context, id string) (*dto.Consultation, error) {
	var c dto.Consultation
	err := r.db.QueryRow(ctx, ConsultationQueries.GetConsultation, id).Scan(consultationDest(&c)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, dto.ErrConsultationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture de la consultation: %w", err)
	}
	return &c, nil
}

func (r *ConsultationPostgresRepository) ListMessages(ctx context.Context, id string) ([]dto.Message, error) {
	rows, err := r.db.Query(ctx, ConsultationQueries.ListMessages, id)
	if err != nil {
		return nil, fmt.Errorf("messages de la consultation: %w", err)
	}
	return pgx.CollectRows(rows, scanMessage)
}

func (r *ConsultationPostgresRepository) MarkRead(ctx context.Context, id string) error {
	return r.db.Exec(ctx, ConsultationQueries.MarkRead, id)
}

// AppendCommercialMessage insère la réponse et passe le fil à repondue, statut verrouillé
func (r *ConsultationPostgresRepository) AppendCommercialMessage(ctx context.Context, msg dto.NewMessage) (*dto.Message, error) {
	var created dto.Message
	err := r.txManager.WithTransaction(ctx, func(tx *postgres.Transaction) error {
		var statut string
		if err := tx.QueryRow(ctx, ConsultationQueries.LockStatut, msg.ConsultationID).Scan(&statut); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return dto.ErrConsultationNotFound
			}
			return err
		}
		if statut == dto.StatutFermee {
			return dto.ErrConsultationClosed
		}

		rows, err := tx.Query(ctx, ConsultationQueries.InsertMessage,
			msg.ConsultationID, msg.AuteurID, msg.Contenu, msg.PieceJointe, msg.Miniature)
		if err != nil {
			return err
		}
		if created, err = pgx.CollectExactlyOneRow(rows, scanMessage); err != nil {
			return err
		}

		return tx.Exec(ctx, ConsultationQueries.MarkAnswered, msg.ConsultationID)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *ConsultationPostgresRepository) AttachmentOwner(ctx context.Context, fileName string) (string, error) {
	var consultationID string
	err := r.db.QueryRow(ctx, ConsultationQueries.AttachmentOwner, fileName).Scan(&consultationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", dto.ErrAttachmentNotFound
	}
	return consultationID, err
}

func consultationDest(c *dto.Consultation) []interface{} {
	return []interface{}{
		&c.ID, &c.ClientID, &c.ClientNom, &c.CommercialID, &c.DevisID, &c.DevisReference,
		&c.Sujet, &c.Statut, &c.LuParCommercialA, &c.CreatedAt, &c.UpdatedAt,
	}
}

func scanMessage(row pgx.CollectableRow) (dto.Message, error) {
	var m dto.Message
	err := row.Scan(&m.ID, &m.ConsultationID, &m.AuteurID, &m.AuteurRole, &m.Contenu,
		&m.PieceJointe, &m.Miniature, &m.CreatedAt)
	return m, err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
