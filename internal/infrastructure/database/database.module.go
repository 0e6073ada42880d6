package database

import (
	"go.uber.org/fx"

	"sofimed-core/internal/infrastructure/database/mongodb"
	"sofimed-core/internal/infrastructure/database/postgres"
	"sofimed-core/internal/infrastructure/database/redis"
)

var Module = fx.Options(
	postgres.Module,
	redis.Module,
	mongodb.Module,
)
