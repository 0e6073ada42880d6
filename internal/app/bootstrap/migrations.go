package bootstrap

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/infrastructure/database/postgres"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

// Verrou consultatif partagé par toutes les instances pendant les migrations
const migrationAdvisoryLock int64 = 74100231

// Migration représente un fichier SQL versionné
type Migration struct {
	Version string
	Name    string
	SQL     string
}

// MigrationManager applique les migrations SQL embarquées dans le binaire
type MigrationManager struct {
	pgClient  *postgres.Client
	txManager *postgres.TransactionManager
	config    *config.Config
	source    fs.FS
}

// NewMigrationManager crée une nouvelle instance du gestionnaire de migrations
func NewMigrationManager(pgClient *postgres.Client, txManager *postgres.TransactionManager, cfg *config.Config) *MigrationManager {
	return &MigrationManager{
		pgClient:  pgClient,
		txManager: txManager,
		config:    cfg,
		source:    migrationFiles,
	}
}

// LoadMigrations lit les fichiers NNNN_nom.sql d'un répertoire, triés par version
func LoadMigrations(source fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(source, dir)
	if err != nil {
		return nil, fmt.Errorf("lecture répertoire migrations: %w", err)
	}

	seen := make(map[string]string)
	migrations := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		base := strings.TrimSuffix(entry.Name(), ".sql")
		version, name, found := strings.Cut(base, "_")
		if !found || version == "" || strings.Trim(version, "0123456789") != "" {
			return nil, fmt.Errorf("nom de migration invalide: %s (attendu NNNN_nom.sql)", entry.Name())
		}
		if previous, dup := seen[version]; dup {
			return nil, fmt.Errorf("version %s dupliquée: %s et %s", version, previous, entry.Name())
		}
		seen[version] = entry.Name()

		content, err := fs.ReadFile(source, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("lecture migration %s: %w", entry.Name(), err)
		}
		if strings.TrimSpace(string(content)) == "" {
			return nil, fmt.Errorf("migration %s vide", entry.Name())
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    name,
			SQL:     string(content),
		})
	}

	// fs.ReadDir retourne les entrées triées par nom
	return migrations, nil
}

// EnsureMigrationsApplied applique dans l'ordre les migrations non encore enregistrées
func (mm *MigrationManager) EnsureMigrationsApplied(ctx context.Context) error {
	if !mm.config.Bootstrap.RunMigrations {
		fmt.Printf("[MIGRATIONS] ⏭️  Migrations désactivées (BOOTSTRAP_RUN_MIGRATIONS=false)\n")
		return nil
	}

	migrations, err := LoadMigrations(mm.source, migrationsDir)
	if err != nil {
		return err
	}

	if err := mm.pgClient.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    VARCHAR(20) PRIMARY KEY,
			name       VARCHAR(200) NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("création table schema_migrations: %w", err)
	}

	applied := 0
	for _, migration := range migrations {
		ran, err := mm.applyMigration(ctx, migration)
		if err != nil {
			return err
		}
		if ran {
			applied++
		}
	}

	fmt.Printf("[MIGRATIONS] ✅ %d migration(s) appliquée(s), %d déjà à jour\n", applied, len(migrations)-applied)
	return nil
}

func (mm *MigrationManager) applyMigration(ctx context.Context, migration Migration) (bool, error) {
	ran := false
	err := mm.txManager.WithTransaction(ctx, func(tx *postgres.Transaction) error {
		if err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationAdvisoryLock); err != nil {
			return fmt.Errorf("verrou migrations: %w", err)
		}

		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`,
			migration.Version,
		).Scan(&exists); err != nil {
			return fmt.Errorf("vérification migration %s: %w", migration.Version, err)
		}
		if exists {
			return nil
		}

		fmt.Printf("[MIGRATIONS] 🔧 Application %s_%s\n", migration.Version, migration.Name)

		// Sans argument, pgx utilise le protocole simple: plusieurs instructions acceptées
		if err := tx.Exec(ctx, migration.SQL); err != nil {
			return fmt.Errorf("migration %s_%s: %w", migration.Version, migration.Name, err)
		}

		if err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
			migration.Version, migration.Name,
		); err != nil {
			return fmt.Errorf("enregistrement migration %s: %w", migration.Version, err)
		}

		ran = true
		return nil
	})
	return ran, err
}
