package bootstrap

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/infrastructure/database/postgres"
	"sofimed-core/internal/shared/utils"
)

//go:embed seeds/permissions.json
var permissionSeedFile []byte

// PermissionSeed entrée du catalogue de permissions
type PermissionSeed struct {
	Code           string `json:"code"`
	Libelle        string `json:"libelle"`
	Description    string `json:"description"`
	Module         string `json:"module"`
	OrdreAffichage int    `json:"ordre_affichage"`
}

// SeedingManager gère les données initiales: catalogue de permissions et super admin
type SeedingManager struct {
	pgClient  *postgres.Client
	txManager *postgres.TransactionManager
	config    *config.Config
}

// NewSeedingManager crée une nouvelle instance du gestionnaire de seeding
func NewSeedingManager(pgClient *postgres.Client, txManager *postgres.TransactionManager, cfg *config.Config) *SeedingManager {
	return &SeedingManager{
		pgClient:  pgClient,
		txManager: txManager,
		config:    cfg,
	}
}

// ParsePermissionSeed décode et contrôle le catalogue embarqué
func ParsePermissionSeed(raw []byte) ([]PermissionSeed, error) {
	var seeds []PermissionSeed
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return nil, fmt.Errorf("décodage catalogue permissions: %w", err)
	}

	seen := make(map[string]bool, len(seeds))
	for i, seed := range seeds {
		code := strings.TrimSpace(seed.Code)
		if code == "" || !strings.Contains(code, ".") {
			return nil, fmt.Errorf("permission %d: code invalide %q (attendu module.action)", i, seed.Code)
		}
		if seen[code] {
			return nil, fmt.Errorf("permission %s dupliquée", code)
		}
		if seed.Libelle == "" || seed.Module == "" {
			return nil, fmt.Errorf("permission %s: libellé et module obligatoires", code)
		}
		seen[code] = true
	}

	return seeds, nil
}

// CheckSeedDataExists indique si un super admin existe déjà
func (sm *SeedingManager) CheckSeedDataExists(ctx context.Context) (bool, error) {
	var exists bool
	err := sm.pgClient.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_utilisateur WHERE role = 'super_admin')`,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("vérification super admin: %w", err)
	}
	return exists, nil
}

// ApplySeeding synchronise le catalogue puis crée le super admin s'il est absent
func (sm *SeedingManager) ApplySeeding(ctx context.Context, superAdminExists bool) error {
	if !sm.config.Bootstrap.RunSeeding {
		fmt.Printf("[SEEDING] ⏭️  Seeding désactivé (BOOTSTRAP_RUN_SEEDING=false)\n")
		return nil
	}

	seeds, err := ParsePermissionSeed(permissionSeedFile)
	if err != nil {
		return err
	}

	if err := sm.txManager.WithTransaction(ctx, func(tx *postgres.Transaction) error {
		for _, seed := range seeds {
			if err := tx.Exec(ctx, `
				INSERT INTO base_permission (code, libelle, description, module, ordre_affichage)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (code) DO UPDATE SET
					libelle = EXCLUDED.libelle,
					description = EXCLUDED.description,
					module = EXCLUDED.module,
					ordre_affichage = EXCLUDED.ordre_affichage
			`, seed.Code, seed.Libelle, seed.Description, seed.Module, seed.OrdreAffichage); err != nil {
				return fmt.Errorf("insertion permission %s: %w", seed.Code, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	fmt.Printf("[SEEDING] ✅ Catalogue de %d permissions synchronisé\n", len(seeds))

	if superAdminExists {
		fmt.Printf("[SEEDING] ✅ Super admin déjà présent\n")
		return nil
	}

	return sm.seedSuperAdmin(ctx)
}

func (sm *SeedingManager) seedSuperAdmin(ctx context.Context) error {
	bootstrapCfg := sm.config.Bootstrap
	if bootstrapCfg.SuperAdminPassword == "" {
		fmt.Printf("[SEEDING] ⚠️  SUPER_ADMIN_PASSWORD vide, super admin non créé\n")
		return nil
	}

	hash, err := utils.HashPassword(bootstrapCfg.SuperAdminPassword, sm.config.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash mot de passe super admin: %w", err)
	}

	var email interface{}
	if bootstrapCfg.SuperAdminEmail != "" {
		email = bootstrapCfg.SuperAdminEmail
	}

	if err := sm.pgClient.Exec(ctx, `
		INSERT INTO user_utilisateur (identifiant, email, nom, prenoms, password_hash, role, must_change_password)
		VALUES ($1, $2, 'Administrateur', 'Système', $3, 'super_admin', FALSE)
		ON CONFLICT DO NOTHING
	`, bootstrapCfg.SuperAdminIdentifiant, email, hash); err != nil {
		return fmt.Errorf("création super admin: %w", err)
	}

	fmt.Printf("[SEEDING] ✅ Super admin %s créé\n", bootstrapCfg.SuperAdminIdentifiant)
	return nil
}
