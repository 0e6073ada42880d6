package queries

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/modules/predictions/dto"
)

func newTestClient(url string, timeout time.Duration) *PredictionHTTPClient {
	return NewPredictionHTTPClient(&config.Config{Prediction: config.PredictionConfig{
		BaseURL: url,
		APIKey:  "secret",
		Timeout: timeout,
	}})
}

func TestPredictSendsFeaturesAndDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "secret" {
			t.Errorf("missing api key header")
		}
		var features dto.Features
		if err := json.NewDecoder(r.Body).Decode(&features); err != nil || features.DevisID != "dv-1" {
			t.Errorf("unexpected payload %+v (%v)", features, err)
		}
		_, _ = w.Write([]byte(`{"probabilite":0.82,"facteurs":[{"nom":"fidelite","impact":0.3}],"modele":"gbm-v2"}`))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL, time.Second).Predict(context.Background(), dto.Features{DevisID: "dv-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Probabilite != 0.82 || len(resp.Facteurs) != 1 || resp.Modele != "gbm-v2" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestPredictErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, dto.ErrServiceUnavailable},
		{"malformed json", http.StatusOK, `{"probabilite":`, dto.ErrInvalidResponse},
		{"probability out of range", http.StatusOK, `{"probabilite":1.4}`, dto.ErrInvalidResponse},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL, time.Second).Predict(context.Background(), dto.Features{})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestPredictTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := newTestClient(server.URL, 50*time.Millisecond).Predict(context.Background(), dto.Features{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestPredictUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestClient(url, time.Second).Predict(context.Background(), dto.Features{})
	if !errors.Is(err, dto.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}
