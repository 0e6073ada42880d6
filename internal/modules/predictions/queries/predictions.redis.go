package queries

import (
	"context"
	"errors"
	"time"

	"sofimed-core/internal/app/config"
	redisInfra "sofimed-core/internal/infrastructure/database/redis"
	"sofimed-core/internal/modules/predictions/dto"

	"github.com/sirupsen/logrus"
)

// ReportLock un seul rapport en cours par devis
type ReportLock struct {
	redisClient *redisInfra.Client
	ttl         time.Duration
	logg        *logrus.Logger
}

func NewReportLock(redisClient *redisInfra.Client, cfg *config.Config, logg *logrus.Logger) *ReportLock {
	return &ReportLock{redisClient: redisClient, ttl: cfg.GetPrediction().LockTTL, logg: logg}
}

func (l *ReportLock) Acquire(ctx context.Context, devisID string) (func(), error) {
	key := l.redisClient.Keys().MustKey("lock_prediction", devisID)
	lock, err := l.redisClient.Obtain(ctx, key, l.ttl)
	if errors.Is(err, redisInfra.ErrLockNotObtained) {
		return nil, dto.ErrReportInProgress
	}
	if err != nil {
		return nil, err
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil {
			l.logg.WithError(err).WithField("devis_id", devisID).Warn("[PREDICTIONS] libération du verrou échouée")
		}
	}, nil
}
