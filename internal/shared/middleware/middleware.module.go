package middleware

import (
	"go.uber.org/fx"
	"sofimed-core/internal/shared/middleware/auth"
	"sofimed-core/internal/shared/middleware/core"
	"sofimed-core/internal/shared/middleware/security"
)

// Module regroupe tous les providers des middlewares
var Module = fx.Options(
	auth.AuthMiddlewareModule,
	fx.Provide(core.RecoveryMiddleware),
	fx.Provide(core.RequestIDMiddleware),
	fx.Provide(security.CORSMiddleware),
)
