package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sofimed-core/internal/app/config"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.uber.org/fx"
)

const shutdownTimeout = 30 * time.Second

// Application serveur HTTP piloté par le cycle de vie Fx
type Application struct {
	config *config.Config
	router *gin.Engine
	logg   *logrus.Logger
	server *http.Server
}

// NewApplication crée une nouvelle instance de l'application
func NewApplication(cfg *config.Config, router *gin.Engine, logg *logrus.Logger) *Application {
	return &Application{
		config: cfg,
		router: router,
		logg:   logg,
	}
}

// Start démarre l'application avec lifecycle Fx
func (a *Application) Start(lc fx.Lifecycle, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			serverConfig := a.config.GetServer()
			addr := fmt.Sprintf("%s:%d", serverConfig.Host, serverConfig.Port)

			a.server = &http.Server{
				Addr:         addr,
				Handler:      a.router,
				ReadTimeout:  serverConfig.ReadTimeout,
				WriteTimeout: serverConfig.WriteTimeout,
			}

			go func() {
				a.logg.WithField("addr", addr).Info("[SERVER] Démarrage serveur HTTP")
				if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.logg.WithError(err).Error("[SERVER] Échec démarrage serveur")
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()

			a.logg.WithField("env", a.config.Environment).Info("[SERVER] Serveur HTTP initialisé")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			a.logg.Info("[SERVER] Arrêt serveur HTTP")

			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := a.server.Shutdown(shutdownCtx); err != nil {
				a.logg.WithError(err).Warn("[SERVER] Arrêt forcé")
				return err
			}

			a.logg.Info("[SERVER] Serveur arrêté proprement")
			return nil
		},
	})
}
