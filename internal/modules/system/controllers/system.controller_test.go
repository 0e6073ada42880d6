package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/infrastructure/logger"
	"sofimed-core/internal/modules/system/dto"
	"sofimed-core/internal/modules/system/services"

	"github.com/gin-gonic/gin"
)

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error { return p.err }

type emptyRepo struct{}

func (emptyRepo) LatestMigration(ctx context.Context) (*string, error) { return nil, nil }

func (emptyRepo) Counts(ctx context.Context) (*dto.Counts, error) { return &dto.Counts{}, nil }

func newRouter(redisErr error) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := services.NewSystemServiceWithDependencies([]services.Dependency{
		{Name: "postgres", Critical: true, Pinger: pinger{}},
		{Name: "redis", Critical: true, Pinger: pinger{redisErr}},
	}, emptyRepo{}, &config.Config{Environment: "development"}, logger.NewDiscardLogger())

	ctrl := NewSystemController(svc)
	r := gin.New()
	r.GET("/health", ctrl.Health)
	r.GET("/ready", ctrl.Ready)
	r.GET("/info", ctrl.GetSystemInfo)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestReadyReflectsCriticalDependencies(t *testing.T) {
	if w := get(newRouter(nil), "/ready"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}

	w := get(newRouter(errors.New("redis down")), "/ready")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	var body struct {
		Data dto.ReadinessResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Data.Status != dto.StatusNotReady || body.Data.Checks["redis"].Erreur != "redis down" {
		t.Fatalf("unexpected readiness %+v", body.Data)
	}
}

func TestHealthAndInfo(t *testing.T) {
	r := newRouter(nil)
	if w := get(r, "/health"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w := get(r, "/info")
	var resp dto.StandardAPIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("unexpected info response %d %s", w.Code, w.Body.String())
	}
	if len(resp.Alertes) != 1 || resp.Alertes[0].Code != "PREDICTION_API_KEY_ABSENTE" {
		t.Fatalf("expected missing api key alert, got %+v", resp.Alertes)
	}
}
