package services

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/infrastructure/database/mongodb"
	"sofimed-core/internal/infrastructure/database/postgres"
	redisInfra "sofimed-core/internal/infrastructure/database/redis"
	"sofimed-core/internal/modules/system/dto"

	"github.com/sirupsen/logrus"
)

const (
	AppName      = "sofimed-core"
	checkTimeout = 2 * time.Second
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type SystemRepository interface {
	LatestMigration(ctx context.Context) (*string, error)
	Counts(ctx context.Context) (*dto.Counts, error)
}

// Dependency sonde nommée; une dépendance critique en panne rend le service indisponible
type Dependency struct {
	Name     string
	Critical bool
	Pinger   Pinger
}

type SystemService struct {
	dependencies []Dependency
	repo         SystemRepository
	config       *config.Config
	logg         *logrus.Logger
	startedAt    time.Time
}

func NewSystemService(
	pg *postgres.Client,
	rdb *redisInfra.Client,
	mongo *mongodb.Client,
	repo SystemRepository,
	cfg *config.Config,
	logg *logrus.Logger,
) *SystemService {
	return NewSystemServiceWithDependencies([]Dependency{
		{Name: "postgres", Critical: true, Pinger: pg},
		{Name: "redis", Critical: true, Pinger: rdb},
		{Name: "mongodb", Critical: false, Pinger: mongo},
	}, repo, cfg, logg)
}

func NewSystemServiceWithDependencies(deps []Dependency, repo SystemRepository, cfg *config.Config, logg *logrus.Logger) *SystemService {
	return &SystemService{
		dependencies: deps,
		repo:         repo,
		config:       cfg,
		logg:         logg,
		startedAt:    time.Now(),
	}
}

// Readiness sonde les dépendances en parallèle
func (s *SystemService) Readiness(ctx context.Context) dto.ReadinessResponse {
	checks := make(map[string]dto.CheckResult, len(s.dependencies))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, dep := range s.dependencies {
		wg.Add(1)
		go func(dep Dependency) {
			defer wg.Done()
			result := probe(ctx, dep)
			mu.Lock()
			checks[dep.Name] = result
			mu.Unlock()
		}(dep)
	}
	wg.Wait()

	return dto.ReadinessResponse{Status: OverallStatus(checks), Checks: checks}
}

func probe(ctx context.Context, dep Dependency) dto.CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := dep.Pinger.Ping(checkCtx)
	result := dto.CheckResult{
		Status:    dto.CheckUp,
		Critique:  dep.Critical,
		LatenceMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Status = dto.CheckDown
		result.Erreur = err.Error()
	}
	return result
}

// OverallStatus not_ready si une dépendance critique est en panne, degraded si une autre l'est
func OverallStatus(checks map[string]dto.CheckResult) string {
	status := dto.StatusReady
	for _, check := range checks {
		if check.Status == dto.CheckUp {
			continue
		}
		if check.Critique {
			return dto.StatusNotReady
		}
		status = dto.StatusDegraded
	}
	return status
}

func (s *SystemService) Info(ctx context.Context) (*dto.SystemInfoResponse, error) {
	readiness := s.Readiness(ctx)

	info := &dto.SystemInfoResponse{
		Application: dto.ApplicationInfo{
			Nom:         AppName,
			Version:     dto.Version,
			Environment: s.config.Environment,
			GoVersion:   runtime.Version(),
			DemarreA:    s.startedAt,
			UptimeSec:   int64(time.Since(s.startedAt).Seconds()),
		},
		Dependances: readiness.Checks,
	}

	if readiness.Checks["postgres"].Status != dto.CheckUp {
		return info, nil
	}

	migration, err := s.repo.LatestMigration(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, err
	}
	info.DerniereMigration = migration
	info.Volumetrie = *counts
	return info, nil
}

// GenerateAlertes signale les dépendances en panne et la configuration incomplète
func (s *SystemService) GenerateAlertes(info *dto.SystemInfoResponse) []dto.AlerteDTO {
	var alertes []dto.AlerteDTO

	names := make([]string, 0, len(info.Dependances))
	for name := range info.Dependances {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		check := info.Dependances[name]
		if check.Status == dto.CheckUp {
			continue
		}
		alerte := dto.AlerteDTO{
			Type:    "warning",
			Code:    "DEPENDANCE_INDISPONIBLE",
			Message: "Dépendance indisponible: " + name,
			Details: map[string]interface{}{"dependance": name, "erreur": check.Erreur},
		}
		if check.Critique {
			alerte.Type = "error"
		}
		alertes = append(alertes, alerte)
	}

	if s.config.GetPrediction().APIKey == "" {
		alertes = append(alertes, dto.AlerteDTO{
			Type:    "info",
			Code:    "PREDICTION_API_KEY_ABSENTE",
			Message: "Aucune clé API configurée pour le service de prédiction",
		})
	}
	return alertes
}
