package bootstrap

import (
	"context"
	"fmt"
	"time"

	"sofimed-core/internal/infrastructure/database/mongodb"

	"go.uber.org/fx"
)

// BootstrapSystem orchestre le démarrage: extensions, migrations, seeding, collections
type BootstrapSystem struct {
	extensionManager  *ExtensionManager
	migrationManager  *MigrationManager
	seedingManager    *SeedingManager
	collectionManager *mongodb.CollectionManager
	timeout           time.Duration
}

// BootstrapResult contient le résultat d'exécution du bootstrap
type BootstrapResult struct {
	Success        bool          `json:"success"`
	TotalDuration  time.Duration `json:"total_duration"`
	PhasesExecuted []PhaseResult `json:"phases_executed"`
	ErrorMessage   string        `json:"error_message,omitempty"`
}

// PhaseResult contient le résultat d'une phase du bootstrap
type PhaseResult struct {
	Phase       string        `json:"phase"`
	Success     bool          `json:"success"`
	Duration    time.Duration `json:"duration"`
	Description string        `json:"description"`
	Error       string        `json:"error,omitempty"`
}

type phase struct {
	name    string
	icon    string
	success string
	failure string
	fatal   bool
	run     func(ctx context.Context) error
}

// NewBootstrapSystem crée une nouvelle instance du système de bootstrap
func NewBootstrapSystem(
	extensionManager *ExtensionManager,
	migrationManager *MigrationManager,
	seedingManager *SeedingManager,
	collectionManager *mongodb.CollectionManager,
) *BootstrapSystem {
	return &BootstrapSystem{
		extensionManager:  extensionManager,
		migrationManager:  migrationManager,
		seedingManager:    seedingManager,
		collectionManager: collectionManager,
		timeout:           5 * time.Minute,
	}
}

func (bs *BootstrapSystem) phases() []phase {
	return []phase{
		{
			name:    "Phase 0: Extensions PostgreSQL",
			icon:    "🔧",
			success: "Extension pgcrypto disponible",
			failure: "Création extension pgcrypto",
			fatal:   true,
			run:     bs.extensionManager.EnsureRequiredExtensions,
		},
		{
			name:    "Phase 1: Migrations SQL",
			icon:    "🗄️ ",
			success: "Schéma à jour",
			failure: "Application des migrations embarquées",
			fatal:   true,
			run:     bs.migrationManager.EnsureMigrationsApplied,
		},
		{
			name:    "Phase 2: Seeding données",
			icon:    "🌱",
			success: "Catalogue de permissions et super admin prêts",
			failure: "Application seeding données",
			fatal:   true,
			run: func(ctx context.Context) error {
				exists, err := bs.seedingManager.CheckSeedDataExists(ctx)
				if err != nil {
					return fmt.Errorf("data check failed: %w", err)
				}
				return bs.seedingManager.ApplySeeding(ctx, exists)
			},
		},
		{
			// MongoDB indisponible: réclamations et rapports dégradés, le serveur démarre quand même
			name:    "Phase 3: Collections MongoDB",
			icon:    "📚",
			success: "Collections reclamations et prediction_reports indexées",
			failure: "Création collections et index MongoDB",
			fatal:   false,
			run:     bs.collectionManager.EnsureCollections,
		},
	}
}

// Execute lance le processus de bootstrap complet
func (bs *BootstrapSystem) Execute() (*BootstrapResult, error) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), bs.timeout)
	defer cancel()

	fmt.Printf("[BOOTSTRAP] Démarrage BootstrapSystem (timeout: %v)\n", bs.timeout)

	result := &BootstrapResult{
		Success:        true,
		PhasesExecuted: []PhaseResult{},
	}

	for i, p := range bs.phases() {
		phaseResult := bs.executePhase(ctx, p)
		result.PhasesExecuted = append(result.PhasesExecuted, phaseResult)
		if !phaseResult.Success && p.fatal {
			result.Success = false
			result.ErrorMessage = fmt.Sprintf("%s échouée: %s", p.name, phaseResult.Error)
			return bs.finalizeResult(result, startTime), fmt.Errorf("bootstrap failed at phase %d: %s", i, phaseResult.Error)
		}
	}

	result = bs.finalizeResult(result, startTime)
	fmt.Printf("[BOOTSTRAP] ✅ BootstrapSystem terminé avec succès en %v\n", result.TotalDuration)
	fmt.Printf("[BOOTSTRAP] 🎯 Application prête pour démarrage serveur HTTP\n")

	return result, nil
}

func (bs *BootstrapSystem) executePhase(ctx context.Context, p phase) PhaseResult {
	startTime := time.Now()
	fmt.Printf("[BOOTSTRAP] %s Démarrage %s\n", p.icon, p.name)

	err := p.run(ctx)
	duration := time.Since(startTime)

	if err != nil {
		if p.fatal {
			fmt.Printf("[BOOTSTRAP] ❌ %s échouée en %v: %v\n", p.name, duration, err)
		} else {
			fmt.Printf("[BOOTSTRAP] ⚠️  %s ignorée après %v: %v\n", p.name, duration, err)
		}
		return PhaseResult{
			Phase:       p.name,
			Success:     false,
			Duration:    duration,
			Description: p.failure,
			Error:       err.Error(),
		}
	}

	fmt.Printf("[BOOTSTRAP] ✅ %s terminée en %v\n", p.name, duration)
	return PhaseResult{
		Phase:       p.name,
		Success:     true,
		Duration:    duration,
		Description: p.success,
	}
}

// finalizeResult finalise le résultat avec la durée totale
func (bs *BootstrapSystem) finalizeResult(result *BootstrapResult, startTime time.Time) *BootstrapResult {
	result.TotalDuration = time.Since(startTime)
	return result
}

// SetTimeout configure un nouveau timeout
func (bs *BootstrapSystem) SetTimeout(timeout time.Duration) {
	bs.timeout = timeout
}

// Module fournit les gestionnaires et exécute le bootstrap avant le serveur HTTP
var Module = fx.Options(
	fx.Provide(
		NewExtensionManager,
		NewMigrationManager,
		NewSeedingManager,
		NewBootstrapSystem,
	),
	fx.Invoke(RegisterBootstrapLifecycle),
)

// RegisterBootstrapLifecycle enregistre le système de bootstrap dans le cycle de vie Fx
func RegisterBootstrapLifecycle(
	lc fx.Lifecycle,
	bootstrap *BootstrapSystem,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			fmt.Printf("[LIFECYCLE] 🚀 Démarrage BootstrapSystem AVANT serveur HTTP\n")

			result, err := bootstrap.Execute()
			if err != nil {
				fmt.Printf("[LIFECYCLE] ❌ Bootstrap échoué: %v\n", err)
				return fmt.Errorf("bootstrap system failed: %w", err)
			}

			fmt.Printf("[LIFECYCLE] ✅ Bootstrap terminé en %v\n", result.TotalDuration)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			fmt.Printf("[LIFECYCLE] 🛑 Arrêt BootstrapSystem\n")
			return nil
		},
	})
}
