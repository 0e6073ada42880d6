package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"sofimed-core/internal/infrastructure/database/postgres"

	"github.com/jackc/pgx/v5"
)

// pgcrypto fournit gen_random_uuid() utilisé par toutes les clés primaires
var requiredExtensions = []string{"pgcrypto"}

type ExtensionManager struct {
	pgClient *postgres.Client
}

func NewExtensionManager(pgClient *postgres.Client) *ExtensionManager {
	return &ExtensionManager{pgClient: pgClient}
}

// EnsureRequiredExtensions installe les extensions absentes et trace leur version
func (em *ExtensionManager) EnsureRequiredExtensions(ctx context.Context) error {
	for _, name := range requiredExtensions {
		version, err := em.installedVersion(ctx, name)
		if err != nil {
			return fmt.Errorf("lecture extension %s: %w", name, err)
		}
		if version != "" {
			fmt.Printf("[EXTENSIONS] ✅ %s %s\n", name, version)
			continue
		}

		// Le nom vient de requiredExtensions, jamais d'une entrée utilisateur
		if err := em.pgClient.Exec(ctx, fmt.Sprintf(`CREATE EXTENSION IF NOT EXISTS %q`, name)); err != nil {
			return fmt.Errorf("création extension %s: %w", name, err)
		}
		if version, err = em.installedVersion(ctx, name); err != nil {
			return fmt.Errorf("vérification extension %s: %w", name, err)
		}
		if version == "" {
			return fmt.Errorf("extension %s absente après création", name)
		}
		fmt.Printf("[EXTENSIONS] 🔧 %s %s installée\n", name, version)
	}
	return nil
}

func (em *ExtensionManager) installedVersion(ctx context.Context, name string) (string, error) {
	var version string
	err := em.pgClient.QueryRow(ctx, `SELECT extversion FROM pg_extension WHERE extname = $1`, name).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return version, err
}
