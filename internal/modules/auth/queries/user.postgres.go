package queries

import (
	"context"
	"errors"
	"fmt"

	"sofimed-core/internal/infrastructure/database/postgres"
	"sofimed-core/internal/modules/auth/dto"

	"github.com/jackc/pgx/v5"
)

// UserQueries regroupe les requêtes SQL d'authentification
var UserQueries = struct {
	GetByIdentifiant       string
	GetByID                string
	UpdatePassword         string
	TouchLastLogin         string
	GetUserPermissionCodes string
	GetAllPermissionCodes  string
}{
	/**
	 * Récupère un utilisateur par identifiant (actif ou suspendu)
	 * Paramètres: $1 = identifiant
	 */
	GetByIdentifiant: `
		SELECT
			u.id::text,
			u.identifiant,
			COALESCE(u.email, ''),
			u.nom,
			u.prenoms,
			COALESCE(u.telephone, ''),
			u.password_hash,
			u.role,
			u.departement,
			u.statut,
			u.must_change_password,
			c.id::text
		FROM user_utilisateur u
		LEFT JOIN commercial c ON c.user_id = u.id
		WHERE LOWER(u.identifiant) = LOWER($1)
	`,

	/**
	 * Récupère un utilisateur actif par id
	 * Paramètres: $1 = user_id
	 */
	GetByID: `
		SELECT
			u.id::text,
			u.identifiant,
			COALESCE(u.email, ''),
			u.nom,
			u.prenoms,
			COALESCE(u.telephone, ''),
			u.password_hash,
			u.role,
			u.departement,
			u.statut,
			u.must_change_password,
			c.id::text
		FROM user_utilisateur u
		LEFT JOIN commercial c ON c.user_id = u.id
		WHERE u.id = $1::uuid AND u.statut = 'actif'
	`,

	/**
	 * Paramètres: $1 = password_hash, $2 = user_id
	 */
	UpdatePassword: `
		UPDATE user_utilisateur
		SET password_hash = $1,
		    must_change_password = FALSE,
		    updated_at = NOW()
		WHERE id = $2::uuid AND statut = 'actif'
	`,

	/**
	 * Paramètres: $1 = user_id
	 */
	TouchLastLogin: `
		UPDATE user_utilisateur SET last_login_at = NOW() WHERE id = $1::uuid
	`,

	/**
	 * Codes de permission attribués à un utilisateur
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
	 * Catalogue complet (super admin)
	 */
	GetAllPermissionCodes: `
		SELECT code FROM base_permission ORDER BY ordre_affichage, code
	`,
}

// PostgresUserRepository implémente UserRepository et PermissionRepository
type PostgresUserRepository struct {
	db *postgres.Client
}

func NewPostgresUserRepository(db *postgres.Client) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) GetByIdentifiant(ctx context.Context, identifiant string) (*dto.UserRecord, error) {
	return r.scanUser(r.db.QueryRow(ctx, UserQueries.GetByIdentifiant, identifiant))
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, userID string) (*dto.UserRecord, error) {
	return r.scanUser(r.db.QueryRow(ctx, UserQueries.GetByID, userID))
}

func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	tag, err := r.db.ExecTag(ctx, UserQueries.UpdatePassword, passwordHash, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return dto.ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) TouchLastLogin(ctx context.Context, userID string) error {
	return r.db.Exec(ctx, UserQueries.TouchLastLogin, userID)
}

func (r *PostgresUserRepository) GetUserPermissionCodes(ctx context.Context, userID string) ([]string, error) {
	return r.collectCodes(ctx, UserQueries.GetUserPermissionCodes, userID)
}

func (r *PostgresUserRepository) GetAllPermissionCodes(ctx context.Context) ([]string, error) {
	return r.collectCodes(ctx, UserQueries.GetAllPermissionCodes)
}

func (r *PostgresUserRepository) collectCodes(ctx context.Context, sql string, args ...interface{}) ([]string, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("lecture des permissions: %w", err)
	}
	return codes, nil
}

func (r *PostgresUserRepository) scanUser(row pgx.Row) (*dto.UserRecord, error) {
	var user dto.UserRecord
	err := row.Scan(
		&user.ID, &user.Identifiant, &user.Email, &user.Nom, &user.Prenoms,
		&user.Telephone, &user.PasswordHash, &user.Role, &user.Departement,
		&user.Statut, &user.MustChangePassword, &user.CommercialID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dto.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
