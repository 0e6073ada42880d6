package queries

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/modules/predictions/dto"
)

const maxResponseBytes = 1 << 20

// PredictionHTTPClient appelle POST {base}/predict du service de scoring
type PredictionHTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewPredictionHTTPClient(cfg *config.Config) *PredictionHTTPClient {
	prediction := cfg.GetPrediction()
	return &PredictionHTTPClient{
		baseURL:    prediction.BaseURL,
		apiKey:     prediction.APIKey,
		httpClient: &http.Client{Timeout: prediction.Timeout},
	}
}

func (c *PredictionHTTPClient) Predict(ctx context.Context, features dto.Features) (*dto.ServiceResponse, error) {
	body, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("encodage des indicateurs: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dto.ErrServiceUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return nil, fmt.Errorf("%w: %v", dto.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: lecture de la réponse: %v", dto.ErrServiceUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: statut HTTP %d", dto.ErrServiceUnavailable, resp.StatusCode)
	}

	var out dto.ServiceResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", dto.ErrInvalidResponse, err)
	}
	if math.IsNaN(out.Probabilite) || out.Probabilite < 0 || out.Probabilite > 1 {
		return nil, fmt.Errorf("%w: probabilité %v hors de [0,1]", dto.ErrInvalidResponse, out.Probabilite)
	}
	return &out, nil
}
