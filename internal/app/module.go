package app

import (
	"sofimed-core/internal/app/bootstrap"
	"sofimed-core/internal/app/config"
	"sofimed-core/internal/infrastructure/database"
	"sofimed-core/internal/infrastructure/database/redis"
	"sofimed-core/internal/infrastructure/logger"
	"sofimed-core/internal/infrastructure/storage"
	"sofimed-core/internal/modules/auth"
	"sofimed-core/internal/modules/back-office/dashboard"
	"sofimed-core/internal/modules/back-office/devis"
	"sofimed-core/internal/modules/back-office/reclamations"
	"sofimed-core/internal/modules/back-office/users"
	"sofimed-core/internal/modules/commercial"
	core_services "sofimed-core/internal/modules/core-services"
	"sofimed-core/internal/modules/predictions"
	"sofimed-core/internal/modules/system"
	"sofimed-core/internal/shared/middleware"

	"go.uber.org/fx"
)

// NewRedisKeyGenerator crée le générateur de clés Redis
func NewRedisKeyGenerator(cfg *config.Config) *redis.RedisKeyGenerator {
	return redis.NewRedisKeyGenerator(cfg.Environment)
}

var AppModule = fx.Options(
	// Configuration (doit être fournie en premier)
	fx.Provide(config.NewConfig),
	fx.Provide(config.NewPostgresConfig),
	fx.Provide(config.NewRedisConfig),
	fx.Provide(config.NewMongoConfig),

	// Utilitaires partagés (après config, avant infrastructure)
	fx.Provide(NewRedisKeyGenerator),

	// Infrastructure
	database.Module,
	logger.Module,
	storage.Module,

	// Auth fournit les validateurs de session requis par les middlewares
	auth.Module,
	middleware.Module,

	// Services transverses
	core_services.Module,

	// Modules métier
	users.Module,
	dashboard.Module,
	devis.Module,
	reclamations.Module,
	commercial.Module,
	predictions.Module,
	system.Module,

	// Bootstrap: extensions, migrations, seeding, collections MongoDB
	bootstrap.Module,

	// Router
	fx.Provide(NewRouter),

	// Application
	fx.Provide(NewApplication),
	fx.Invoke((*Application).Start),
)
