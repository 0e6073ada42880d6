package services

import (
	"context"
	"errors"
	"testing"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/infrastructure/logger"
	"sofimed-core/internal/modules/system/dto"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

type fakeSystemRepo struct{ calls int }

func (f *fakeSystemRepo) LatestMigration(ctx context.Context) (*string, error) {
	f.calls++
	v := "0004_consultations"
	return &v, nil
}

func (f *fakeSystemRepo) Counts(ctx context.Context) (*dto.Counts, error) {
	return &dto.Counts{Utilisateurs: 4, DevisEnAttente: 7}, nil
}

func newService(pg, redis, mongo error, repo *fakeSystemRepo) *SystemService {
	cfg := &config.Config{Environment: "test"}
	return NewSystemServiceWithDependencies([]Dependency{
		{Name: "postgres", Critical: true, Pinger: fakePinger{pg}},
		{Name: "redis", Critical: true, Pinger: fakePinger{redis}},
		{Name: "mongodb", Critical: false, Pinger: fakePinger{mongo}},
	}, repo, cfg, logger.NewDiscardLogger())
}

func TestReadinessStatus(t *testing.T) {
	down := errors.New("connection refused")
	cases := []struct {
		name           string
		pg, redis, mgo error
		want           string
	}{
		{"all up", nil, nil, nil, dto.StatusReady},
		{"mongo down", nil, nil, down, dto.StatusDegraded},
		{"redis down", nil, down, nil, dto.StatusNotReady},
		{"postgres down with mongo down", down, nil, down, dto.StatusNotReady},
	}

	for _, tc := range cases {
		got := newService(tc.pg, tc.redis, tc.mgo, &fakeSystemRepo{}).Readiness(context.Background())
		if got.Status != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got.Status)
		}
		if len(got.Checks) != 3 {
			t.Fatalf("%s: expected 3 checks, got %v", tc.name, got.Checks)
		}
	}
}

func TestInfoAndAlerts(t *testing.T) {
	repo := &fakeSystemRepo{}
	svc := newService(nil, nil, errors.New("timeout"), repo)

	info, err := svc.Info(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Application.Nom != AppName || info.Application.Environment != "test" {
		t.Fatalf("unexpected application info %+v", info.Application)
	}
	if info.DerniereMigration == nil || *info.DerniereMigration != "0004_consultations" || info.Volumetrie.DevisEnAttente != 7 {
		t.Fatalf("unexpected database info %+v", info)
	}

	alertes := svc.GenerateAlertes(info)
	if len(alertes) != 2 || alertes[0].Code != "DEPENDANCE_INDISPONIBLE" || alertes[0].Type != "warning" ||
		alertes[1].Code != "PREDICTION_API_KEY_ABSENTE" {
		t.Fatalf("unexpected alerts %+v", alertes)
	}
}

func TestInfoSkipsDatabaseWhenPostgresDown(t *testing.T) {
	repo := &fakeSystemRepo{}
	info, err := newService(errors.New("down"), nil, nil, repo).Info(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.calls != 0 || info.DerniereMigration != nil {
		t.Fatal("database queries must be skipped when postgres is down")
	}
}
