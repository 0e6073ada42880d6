package comptes

import (
	"context"
	"errors"
	"fmt"

	"sofimed-core/internal/infrastructure/database/postgres"
	dto "sofimed-core/internal/modules/back-office/users/dto/comptes"
	"sofimed-core/internal/shared/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

var ComptesQueries = struct {
	CheckUserExists        string
	CreateUser             string
	CreateCommercial       string
	AddUserPermissions     string
	RemoveUserPermissions  string
	GetUserPermissionCodes string
	GetTargetUser          string
	UpdateStatut           string
	ListUsers              string
	CountUsers             string
	ListAdmins             string
	GetPermissionCatalog   string
}{
	/**
	 * Vérifie si un utilisateur existe déjà avec cet identifiant (insensible à la casse)
	 * Paramètres: $1 = identifiant
	 */
	CheckUserExists: `
		SELECT EXISTS(
			SELECT 1 FROM user_utilisateur WHERE LOWER(identifiant) = LOWER($1)
		)
	`,

	/**
	 * Crée un nouvel utilisateur, must_change_password toujours vrai à la création
	 * Paramètres: $1 = identifiant, $2 = email, $3 = nom, $4 = prenoms, $5 = telephone,
	 *            $6 = password_hash, $7 = role, $8 = departement, $9 = created_by
	 */
	CreateUser: `
		INSERT INTO user_utilisateur (
			identifiant, email, nom, prenoms, telephone, password_hash,
			role, departement, statut, must_change_password, created_by,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, 'actif', TRUE, NULLIF($9, '')::uuid,
			NOW(), NOW()
		)
		RETURNING id::text
	`,

	/**
	 * Paramètres: $1 = user_id, $2 = region, $3 = objectif_mensuel
	 */
	CreateCommercial: `
		INSERT INTO commercial (user_id, region, objectif_mensuel)
		VALUES ($1::uuid, $2, $3::numeric)
		RETURNING id::text
	`,

	/**
	 * Paramètres: $1 = user_id, $2 = codes (text[]), $3 = attribue_par
	 */
	AddUserPermissions: `
		INSERT INTO user_permission (user_id, permission_code, attribue_par, created_at)
		SELECT $1::uuid, code, NULLIF($3, '')::uuid, NOW()
		FROM unnest($2::text[]) AS code
		ON CONFLICT (user_id, permission_code) DO NOTHING
	`,

	/**
	 * Paramètres: $1 = user_id, $2 = codes (text[])
	 */
	RemoveUserPermissions: `
		DELETE FROM user_permission
		WHERE user_id = $1::uuid AND permission_code = ANY($2::text[])
	`,

	/**
	 * Paramètres: $1 = user_id
	 */
	GetUserPermissionCodes: `
		SELECT up.permission_code
		FROM user_permission up
		JOIN base_permission bp ON bp.code = up.permission_code
		WHERE up.user_id = $1::uuid
		ORDER BY bp.ordre_affichage, bp.code
	`,

	/**
	 * Paramètres: $1 = user_id
	 */
	GetTargetUser: `
		SELECT id::text, role, statut FROM user_utilisateur WHERE id = $1::uuid
	`,

	/**
	 * Paramètres: $1 = user_id, $2 = statut, $3 = motif
	 */
	UpdateStatut: `
		UPDATE user_utilisateur
		SET statut = $2,
		    motif_statut = NULLIF($3, ''),
		    updated_at = NOW()
		WHERE id = $1::uuid
	`,

	/**
	 * Liste filtrée; ORDER BY injecté depuis une liste blanche
	 * Paramètres: $1 = role, $2 = statut, $3 = search, $4 = limit, $5 = offset
	 */
	ListUsers: `
		SELECT
			u.id::text,
			u.identifiant,
			u.email,
			u.nom,
			u.prenoms,
			u.telephone,
			u.role,
			u.departement,
			u.statut,
			u.must_change_password,
			u.last_login_at,
			u.created_at,
			(SELECT COUNT(*) FROM user_permission up WHERE up.user_id = u.id)::int AS nombre_permissions,
			c.id::text
		FROM user_utilisateur u
		LEFT JOIN commercial c ON c.user_id = u.id
		WHERE ($1::text = '' OR u.role = $1)
			AND ($2::text = '' OR u.statut = $2)
			AND ($3::text = '' OR u.identifiant ILIKE '%%' || $3 || '%%'
				OR u.nom ILIKE '%%' || $3 || '%%'
				OR u.prenoms ILIKE '%%' || $3 || '%%'
				OR COALESCE(u.email, '') ILIKE '%%' || $3 || '%%')
		ORDER BY %s
		LIMIT $4 OFFSET $5
	`,

	/**
	 * Paramètres: $1 = role, $2 = statut, $3 = search
	 */
	CountUsers: `
		SELECT COUNT(*)
		FROM user_utilisateur u
		WHERE ($1::text = '' OR u.role = $1)
			AND ($2::text = '' OR u.statut = $2)
			AND ($3::text = '' OR u.identifiant ILIKE '%' || $3 || '%'
				OR u.nom ILIKE '%' || $3 || '%'
				OR u.prenoms ILIKE '%' || $3 || '%'
				OR COALESCE(u.email, '') ILIKE '%' || $3 || '%')
	`,

	/**
	 * Administrateurs avec leurs codes de permission
	 */
	ListAdmins: `
		SELECT
			u.id::text,
			u.identifiant,
			u.email,
			u.nom,
			u.prenoms,
			u.telephone,
			u.role,
			u.departement,
			u.statut,
			u.must_change_password,
			u.last_login_at,
			u.created_at,
			COALESCE(
				array_agg(up.permission_code ORDER BY up.permission_code)
					FILTER (WHERE up.permission_code IS NOT NULL),
				'{}'
			) AS permissions
		FROM user_utilisateur u
		LEFT JOIN user_permission up ON up.user_id = u.id
		WHERE u.role = 'admin'
		GROUP BY u.id
		ORDER BY u.nom, u.prenoms
	`,

	GetPermissionCatalog: `
		SELECT code, libelle, COALESCE(description, ''), module, ordre_affichage
		FROM base_permission
		ORDER BY ordre_affichage, code
	`,
}

// Colonnes de tri autorisées
var userSortColumns = map[string]string{
	"nom":           "u.nom",
	"identifiant":   "u.identifiant",
	"created_at":    "u.created_at",
	"last_login_at": "u.last_login_at",
	"role":          "u.role",
}

// UserOrderBy construit la clause de tri depuis la liste blanche
func UserOrderBy(sortBy, sortOrder string) string {
	column, ok := userSortColumns[sortBy]
	if !ok {
		column = "u.created_at"
	}
	direction := "DESC"
	if sortOrder == "asc" {
		direction = "ASC"
	}
	return fmt.Sprintf("%s %s NULLS LAST, u.id", column, direction)
}

type ComptesPostgresRepository struct {
	db        *postgres.Client
	txManager *postgres.TransactionManager
}

func NewComptesPostgresRepository(db *postgres.Client, txManager *postgres.TransactionManager) *ComptesPostgresRepository {
	return &ComptesPostgresRepository{db: db, txManager: txManager}
}

func (r *ComptesPostgresRepository) ListUsers(ctx context.Context, filters dto.UserListFilters, limit, offset int) ([]dto.UserSummary, int, error) {
	var total int
	search := utils.EscapeLike(filters.Search)
	if err := r.db.QueryRow(ctx, ComptesQueries.CountUsers, filters.Role, filters.Statut, search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("comptage utilisateurs: %w", err)
	}

	query := fmt.Sprintf(ComptesQueries.ListUsers, UserOrderBy(filters.SortBy, filters.SortOrder))
	rows, err := r.db.Query(ctx, query, filters.Role, filters.Statut, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (dto.UserSummary, error) {
		var u dto.UserSummary
		err := row.Scan(
			&u.ID, &u.Identifiant, &u.Email, &u.Nom, &u.Prenoms, &u.Telephone,
			&u.Role, &u.Departement, &u.Statut, &u.MustChangePassword,
			&u.LastLoginAt, &u.CreatedAt, &u.NombrePermissions, &u.CommercialID,
		)
		return u, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("lecture utilisateurs: %w", err)
	}
	return users, total, nil
}

func (r *ComptesPostgresRepository) ListAdmins(ctx context.Context) ([]dto.AdminSummary, error) {
	rows, err := r.db.Query(ctx, ComptesQueries.ListAdmins)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dto.AdminSummary, error) {
		var a dto.AdminSummary
		err := row.Scan(
			&a.ID, &a.Identifiant, &a.Email, &a.Nom, &a.Prenoms, &a.Telephone,
			&a.Role, &a.Departement, &a.Statut, &a.MustChangePassword,
			&a.LastLoginAt, &a.CreatedAt, &a.Permissions,
		)
		a.NombrePermissions = len(a.Permissions)
		return a, err
	})
}

func (r *ComptesPostgresRepository) GetPermissionCatalog(ctx context.Context) ([]dto.PermissionCatalogEntry, error) {
	rows, err := r.db.Query(ctx, ComptesQueries.GetPermissionCatalog)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dto.PermissionCatalogEntry, error) {
		var p dto.PermissionCatalogEntry
		err := row.Scan(&p.Code, &p.Libelle, &p.Description, &p.Module, &p.OrdreAffichage)
		return p, err
	})
}

func (r *ComptesPostgresRepository) GetTargetUser(ctx context.Context, userID string) (*dto.TargetUser, error) {
	var target dto.TargetUser
	err := r.db.QueryRow(ctx, ComptesQueries.GetTargetUser, userID).Scan(&target.ID, &target.Role, &target.Statut)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dto.ErrUserNotFound
		}
		return nil, err
	}
	return &target, nil
}

func (r *ComptesPostgresRepository) IdentifiantExists(ctx context.Context, identifiant string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, ComptesQueries.CheckUserExists, identifiant).Scan(&exists)
	return exists, err
}

// CreateUser insère le compte, son profil commercial éventuel et ses permissions
func (r *ComptesPostgresRepository) CreateUser(
	ctx context.Context,
	user dto.NewUserRecord,
	permissions []string,
	profile *dto.NewCommercialProfile,
) (string, *string, error) {
	var (
		userID       string
		commercialID *string
	)

	err := r.txManager.WithTransaction(ctx, func(tx *postgres.Transaction) error {
		if err := tx.QueryRow(ctx, ComptesQueries.CreateUser,
			user.Identifiant, user.Email, user.Nom, user.Prenoms, user.Telephone,
			user.PasswordHash, user.Role, user.Departement, user.CreatedBy,
		).Scan(&userID); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return dto.ErrDuplicateIdentifier
			}
			return fmt.Errorf("insertion utilisateur: %w", err)
		}

		if profile != nil {
			var id string
			if err := tx.QueryRow(ctx, ComptesQueries.CreateCommercial,
				userID, profile.Region, profile.ObjectifMensuel.StringFixed(2),
			).Scan(&id); err != nil {
				return fmt.Errorf("insertion profil commercial: %w", err)
			}
			commercialID = &id
		}

		if len(permissions) > 0 {
			if err := tx.Exec(ctx, ComptesQueries.AddUserPermissions, userID, permissions, user.CreatedBy); err != nil {
				return fmt.Errorf("attribution permissions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return userID, commercialID, nil
}

// ApplyPermissionChanges retourne les codes finaux après modification
func (r *ComptesPostgresRepository) ApplyPermissionChanges(ctx context.Context, userID, grantedBy string, ajouter, retirer []string) ([]string, error) {
	var final []string

	err := r.txManager.WithTransaction(ctx, func(tx *postgres.Transaction) error {
		if len(retirer) > 0 {
			if err := tx.Exec(ctx, ComptesQueries.RemoveUserPermissions, userID, retirer); err != nil {
				return fmt.Errorf("retrait permissions: %w", err)
			}
		}
		if len(ajouter) > 0 {
			if err := tx.Exec(ctx, ComptesQueries.AddUserPermissions, userID, ajouter, grantedBy); err != nil {
				return fmt.Errorf("ajout permissions: %w", err)
			}
		}

		rows, err := tx.Query(ctx, ComptesQueries.GetUserPermissionCodes, userID)
		if err != nil {
			return err
		}
		final, err = pgx.CollectRows(rows, pgx.RowTo[string])
		return err
	})
	if err != nil {
		return nil, err
	}
	return final, nil
}

func (r *ComptesPostgresRepository) UpdateStatut(ctx context.Context, userID, statut, motif string) error {
	tag, err := r.db.ExecTag(ctx, ComptesQueries.UpdateStatut, userID, statut, motif)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return dto.ErrUserNotFound
	}
	return nil
}
